package signup

import (
	"context"
	"fmt"
	"mime/quotedprintable"
	"net/smtp"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// SMTPMailer delivers mail over plain SMTP. It exists for deployments that
// do not bring their own provider adapter; anything implementing Mailer
// can be used instead.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
}

// ValidateConfiguration checks the adapter can plausibly deliver mail.
func (m *SMTPMailer) ValidateConfiguration() error {
	if m.Host == "" {
		return goerrors.New("smtp mailer requires a host", goerrors.CategoryBadInput)
	}
	if m.Port == 0 {
		return goerrors.New("smtp mailer requires a port", goerrors.CategoryBadInput)
	}
	return nil
}

// Send delivers a multipart/alternative message with text and HTML parts.
func (m *SMTPMailer) Send(ctx context.Context, from, to, plainText, html, subject string) error {
	if err := ctx.Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled before email dispatch")
	}

	msg, err := buildMIMEMessage(from, to, plainText, html, subject)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	if err := smtp.SendMail(addr, auth, from, []string{to}, msg); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp delivery failed")
	}
	return nil
}

const mimeBoundary = "signup-alt-boundary"

func buildMIMEMessage(from, to, plainText, html, subject string) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", mimeBoundary)
	b.WriteString("\r\n")

	for _, part := range []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", plainText},
		{"text/html; charset=UTF-8", html},
	} {
		fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
		fmt.Fprintf(&b, "Content-Type: %s\r\n", part.contentType)
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

		qp := quotedprintable.NewWriter(&b)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode email body")
		}
		if err := qp.Close(); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode email body")
		}
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)

	return []byte(b.String()), nil
}

// SentEmail is one message captured by BufferMailer.
type SentEmail struct {
	From      string
	To        string
	PlainText string
	HTML      string
	Subject   string
}

// BufferMailer collects messages in memory. Useful in tests and as a sink
// for local development.
type BufferMailer struct {
	mu   sync.Mutex
	sent []SentEmail
}

// ValidateConfiguration implements Mailer.
func (m *BufferMailer) ValidateConfiguration() error { return nil }

// Send implements Mailer.
func (m *BufferMailer) Send(_ context.Context, from, to, plainText, html, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentEmail{
		From:      from,
		To:        to,
		PlainText: plainText,
		HTML:      html,
		Subject:   subject,
	})
	return nil
}

// Sent returns a copy of the captured messages.
func (m *BufferMailer) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEmail, len(m.sent))
	copy(out, m.sent)
	return out
}
