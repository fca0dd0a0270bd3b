package signup

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// PurposeVerifyEmail scopes confirmation tokens so they cannot be replayed
// against other token purposes in the host system.
const PurposeVerifyEmail = "temp-verify-email-token"

// VerifyTokenTTL is the fixed validity window of confirmation tokens.
const VerifyTokenTTL = 2 * time.Hour

// ErrTokenExpired is returned when a token is past its expiry.
var ErrTokenExpired = goerrors.New("token has expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED")

// ErrTokenInvalid covers bad signatures, malformed tokens, and purpose
// mismatches. Callers must not leak which failure occurred.
var ErrTokenInvalid = goerrors.New("token is invalid", goerrors.CategoryAuth).
	WithTextCode("TOKEN_INVALID")

// verificationClaims is the on-wire claim set of a verification token.
type verificationClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

// JWTTokenIssuer implements TokenIssuer with HMAC-signed JWTs, mirroring
// how the host backend signs its own session tokens.
type JWTTokenIssuer struct {
	signingKey []byte
	issuer     string
	logger     Logger

	// now is swappable for expiry tests
	now func() time.Time
}

// NewJWTTokenIssuer creates a TokenIssuer signing with the given key.
// issuer is the label stamped on every token, typically the brand name.
func NewJWTTokenIssuer(signingKey []byte, issuer string, logger Logger) *JWTTokenIssuer {
	if logger == nil {
		logger = defLogger{}
	}
	return &JWTTokenIssuer{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source used for issuance and validation.
func (ts *JWTTokenIssuer) WithClock(now func() time.Time) *JWTTokenIssuer {
	if now != nil {
		ts.now = now
	}
	return ts
}

// Issue signs a purpose-scoped token valid for ttl.
func (ts *JWTTokenIssuer) Issue(claims TokenClaims, purpose string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", goerrors.New("token TTL must be positive", goerrors.CategoryBadInput)
	}

	now := ts.now()
	issuer := claims.Issuer
	if issuer == "" {
		issuer = ts.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &verificationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   claims.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:   claims.Email,
		Purpose: purpose,
	})

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign verification token")
	}

	return signed, nil
}

// Verify checks signature, expiry, and purpose. With strict set the issuer
// claim must also match the configured issuer.
func (ts *JWTTokenIssuer) Verify(tokenString, purpose string, strict bool) (*TokenClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
	}
	if strict && ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &verificationClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token verify encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*verificationClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token verify could not decode claims")
		return nil, ErrTokenInvalid
	}

	if claims.Purpose != purpose {
		return nil, ErrTokenInvalid
	}

	return &TokenClaims{
		Email:  claims.Email,
		Issuer: claims.RegisteredClaims.Issuer,
	}, nil
}
