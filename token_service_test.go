package signup_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := signup.NewJWTTokenIssuer([]byte(testSigningKey), "Acme Admin", nil)

	token, err := issuer.Issue(signup.TokenClaims{
		Email:  "user@example.com",
		Issuer: "Acme Admin",
	}, signup.PurposeVerifyEmail, signup.VerifyTokenTTL)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token, signup.PurposeVerifyEmail, false)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "Acme Admin", claims.Issuer)
}

func TestTokenVerifyFailures(t *testing.T) {
	t.Run("rejects a token after its TTL", func(t *testing.T) {
		now := time.Now()
		issuer := signup.NewJWTTokenIssuer([]byte(testSigningKey), "Acme Admin", nil)

		token, err := issuer.Issue(signup.TokenClaims{Email: "user@example.com"}, signup.PurposeVerifyEmail, signup.VerifyTokenTTL)
		require.NoError(t, err)

		issuer.WithClock(func() time.Time { return now.Add(signup.VerifyTokenTTL + time.Minute) })

		_, err = issuer.Verify(token, signup.PurposeVerifyEmail, false)
		assert.ErrorIs(t, err, signup.ErrTokenExpired)
	})

	t.Run("rejects a token under a different purpose", func(t *testing.T) {
		issuer := signup.NewJWTTokenIssuer([]byte(testSigningKey), "Acme Admin", nil)

		token, err := issuer.Issue(signup.TokenClaims{Email: "user@example.com"}, signup.PurposeVerifyEmail, time.Hour)
		require.NoError(t, err)

		_, err = issuer.Verify(token, "password-reset", false)
		assert.ErrorIs(t, err, signup.ErrTokenInvalid)
	})

	t.Run("rejects a token signed with a different key", func(t *testing.T) {
		issuer := signup.NewJWTTokenIssuer([]byte(testSigningKey), "Acme Admin", nil)
		other := signup.NewJWTTokenIssuer([]byte("other-key"), "Acme Admin", nil)

		token, err := other.Issue(signup.TokenClaims{Email: "user@example.com"}, signup.PurposeVerifyEmail, time.Hour)
		require.NoError(t, err)

		_, err = issuer.Verify(token, signup.PurposeVerifyEmail, false)
		assert.ErrorIs(t, err, signup.ErrTokenInvalid)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		issuer := signup.NewJWTTokenIssuer([]byte(testSigningKey), "Acme Admin", nil)
		_, err := issuer.Verify("not-a-token", signup.PurposeVerifyEmail, false)
		assert.ErrorIs(t, err, signup.ErrTokenInvalid)
	})

	t.Run("strict mode enforces the issuer", func(t *testing.T) {
		issuer := signup.NewJWTTokenIssuer([]byte(testSigningKey), "Acme Admin", nil)

		token, err := issuer.Issue(signup.TokenClaims{Email: "user@example.com", Issuer: "Someone Else"}, signup.PurposeVerifyEmail, time.Hour)
		require.NoError(t, err)

		_, err = issuer.Verify(token, signup.PurposeVerifyEmail, true)
		assert.ErrorIs(t, err, signup.ErrTokenInvalid)

		claims, err := issuer.Verify(token, signup.PurposeVerifyEmail, false)
		require.NoError(t, err)
		assert.Equal(t, "Someone Else", claims.Issuer)
	})

	t.Run("rejects a non positive TTL at issuance", func(t *testing.T) {
		issuer := signup.NewJWTTokenIssuer([]byte(testSigningKey), "Acme Admin", nil)
		_, err := issuer.Issue(signup.TokenClaims{Email: "user@example.com"}, signup.PurposeVerifyEmail, 0)
		assert.Error(t, err)
	})
}
