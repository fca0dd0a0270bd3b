package signup

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ConfirmationFlow issues verification tokens, dispatches the confirmation
// email, and completes gated signups once the address is proven.
type ConfirmationFlow struct {
	plugin *Plugin
	logger Logger
}

// NewConfirmationFlow creates a flow for the bound plugin.
func NewConfirmationFlow(plugin *Plugin) *ConfirmationFlow {
	return &ConfirmationFlow{
		plugin: plugin,
		logger: plugin.logger,
	}
}

// RequestConfirmation issues a verification token for the email and
// dispatches the confirmation message. Delivery is fire-and-forget: the
// caller's response does not wait for it, and failures only reach the
// adapter's logging.
func (f *ConfirmationFlow) RequestConfirmation(ctx context.Context, email, url string) error {
	p := f.plugin

	token, err := p.tokens.Issue(TokenClaims{
		Email:  email,
		Issuer: p.opts.BrandName,
	}, PurposeVerifyEmail, VerifyTokenTTL)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
	}

	text, html, subject, err := f.renderConfirmationEmail(url, token)
	if err != nil {
		return err
	}

	adapter := p.opts.ConfirmEmails.Adapter
	from := p.opts.ConfirmEmails.SendFrom

	go func() {
		// detached from the request context on purpose: dispatch must
		// outlive the response
		if err := adapter.Send(context.Background(), from, email, text, html, subject); err != nil {
			f.logger.Error("confirmation email dispatch failed: %v", err)
		}
	}()

	return nil
}

// CompleteVerifiedSignupMessage is the input to the confirmation step.
type CompleteVerifiedSignupMessage struct {
	Token    string `json:"token"`
	Password string `json:"password"`

	Sink  ResponseSink    `json:"-"`
	Extra *RequestContext `json:"-"`
}

func (e CompleteVerifiedSignupMessage) Type() string { return "signup.complete_verified" }

// Execute completes a confirmation-gated signup: verify the token, set the
// password and confirmed flag, then log the user in.
func (f *ConfirmationFlow) Execute(ctx context.Context, msg CompleteVerifiedSignupMessage) (*SignupResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during signup confirmation")
	default:
		return f.execute(ctx, msg)
	}
}

func (f *ConfirmationFlow) execute(ctx context.Context, msg CompleteVerifiedSignupMessage) (*SignupResult, error) {
	p := f.plugin

	if !p.ConfirmationEnabled() {
		return nil, goerrors.New("email confirmation is not enabled", goerrors.CategoryOperation)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// the generic message deliberately hides whether the signature, the
	// purpose, or the expiry failed
	claims, err := p.tokens.Verify(msg.Token, PurposeVerifyEmail, false)
	if err != nil || claims.Email == "" {
		return failure(p.tr(MsgInvalidToken, nil)), nil
	}

	if msg.Password == "" {
		return failure(p.tr(MsgPasswordRequired, nil)), nil
	}

	record, err := p.store.Get(ctx, p.emailColumn.Name, claims.Email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user record for confirmation")
	}
	if record == nil {
		return failure(p.tr(MsgUserNotFound, nil)), nil
	}

	// idempotence guard: the token stays valid for its whole TTL, so a
	// replay must not complete twice
	if boolValue(record[p.emailConfirmedColumn.Name]) {
		return failure(p.tr(MsgEmailAlreadyConfirmed, nil)), nil
	}

	hash, err := p.hasher.Hash(msg.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	var pk any
	if pkCol := p.authResource.PrimaryKeyColumn(); pkCol != nil {
		pk = record[pkCol.Name]
	}

	// flag and password hash move in one update so a concurrent replay
	// cannot set the password without also confirming
	patch := Record{
		p.emailConfirmedColumn.Name: true,
		p.opts.PasswordHashField:    hash,
	}
	if err := p.store.Update(ctx, pk, patch); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm user record")
	}

	login, err := NewLoginBridge(p).Login(ctx, claims.Email, msg.Sink, msg.Extra)
	if err != nil {
		return nil, err
	}
	return &SignupResult{OK: login.AllowedLogin, Login: login}, nil
}

const confirmationTextTemplate = `Dear user,
Welcome to {brandName}!

To confirm your email, click the link below:

{url}?verifyToken={verifyToken}

If you didn't request this, please ignore this email.
Link is valid for 2 hours.

Thanks,
The {brandName} Team
`

func (f *ConfirmationFlow) renderConfirmationEmail(url, token string) (text, html, subject string, err error) {
	p := f.plugin
	brand := p.opts.BrandName

	text = p.tr(confirmationTextTemplate, map[string]any{
		"brandName":   brand,
		"url":         url,
		"verifyToken": token,
	})

	fragments := map[string]string{
		"greeting":    p.tr("Dear user,", nil),
		"welcome":     p.tr("Welcome to {brandName}!", map[string]any{"brandName": brand}),
		"instruction": p.tr("To confirm your email, click the link below:", nil),
		"linkText":    p.tr("Confirm email", nil),
		"disclaimer":  p.tr("If you didn't request this, please ignore this email.", nil),
		"validity":    p.tr("Link is valid for 2 hours.", nil),
		"thanks":      p.tr("Thanks,", nil),
		"team":        p.tr("The {brandName} Team", map[string]any{"brandName": brand}),
	}

	html, err = renderConfirmationHTML(url, token, fragments)
	if err != nil {
		return "", "", "", err
	}

	subject = p.tr("Signup request at {brandName}", map[string]any{"brandName": brand})
	return text, html, subject, nil
}
