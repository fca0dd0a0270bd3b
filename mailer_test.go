package signup_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailerValidateConfiguration(t *testing.T) {
	t.Run("requires a host", func(t *testing.T) {
		mailer := &signup.SMTPMailer{Port: 587}
		assert.Error(t, mailer.ValidateConfiguration())
	})

	t.Run("requires a port", func(t *testing.T) {
		mailer := &signup.SMTPMailer{Host: "smtp.acme.test"}
		assert.Error(t, mailer.ValidateConfiguration())
	})

	t.Run("accepts a complete configuration", func(t *testing.T) {
		mailer := &signup.SMTPMailer{Host: "smtp.acme.test", Port: 587}
		assert.NoError(t, mailer.ValidateConfiguration())
	})
}

func TestBufferMailer(t *testing.T) {
	mailer := &signup.BufferMailer{}
	require.NoError(t, mailer.ValidateConfiguration())

	err := mailer.Send(context.Background(), "from@acme.test", "to@acme.test", "text", "<p>html</p>", "subject")
	require.NoError(t, err)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "to@acme.test", sent[0].To)
	assert.Equal(t, "<p>html</p>", sent[0].HTML)
	assert.Equal(t, "subject", sent[0].Subject)
}
