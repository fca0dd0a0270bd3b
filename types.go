package signup

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface the workflow needs. Embedding
// applications can plug their own implementation via WithLogger.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Record is a user record as stored by the host record store. Attribute
// names follow the authentication resource's column names.
type Record map[string]any

// RecordStore is the host's query/update API for the authentication
// resource. Get returns (nil, nil) when no record matches; errors are
// reserved for infrastructure failures.
type RecordStore interface {
	Get(ctx context.Context, field, value string) (Record, error)
	Create(ctx context.Context, record Record) (Record, error)
	Update(ctx context.Context, pk any, patch Record) error
}

// Identity is the identity handed to the host auth subsystem after a
// record has been created or confirmed.
type Identity struct {
	PrimaryKey any    `json:"pk"`
	Username   string `json:"username"`
	Record     Record `json:"-"`
}

// LoginResult accumulates the outcome of the login-callback chain. It is
// produced per request and never persisted.
type LoginResult struct {
	AllowedLogin bool   `json:"allowedLogin"`
	Error        string `json:"error,omitempty"`
	RedirectTo   string `json:"redirectTo,omitempty"`
}

// ResponseSink receives cookie side effects from the host session layer.
// The HTTP controller provides a fiber-backed implementation.
type ResponseSink interface {
	SetCookie(name, value string, expires time.Time)
}

// SessionManager is the host authentication subsystem: it owns the login
// callback chain and the session cookie.
type SessionManager interface {
	// RunLoginCallbacks runs the host's configured callbacks against the
	// identity. Callbacks may flip result.AllowedLogin to false and set an
	// error or redirect.
	RunLoginCallbacks(ctx context.Context, identity *Identity, result *LoginResult, sink ResponseSink, extra *RequestContext) error
	// EstablishSession instructs the host to create a session for the
	// identity, writing whatever cookies it needs through the sink.
	EstablishSession(sink ResponseSink, identity *Identity) error
}

// TokenClaims are the claims carried by a verification token.
type TokenClaims struct {
	Email  string `json:"email"`
	Issuer string `json:"issuer,omitempty"`
}

// TokenIssuer issues and verifies signed, purpose-scoped, time-limited
// tokens. Validity is purely signature plus expiry; there is no revocation
// state, so a token stays verifiable for its whole TTL.
type TokenIssuer interface {
	Issue(claims TokenClaims, purpose string, ttl time.Duration) (string, error)
	// Verify checks signature, expiry, and purpose. When strict is true the
	// issuer claim must also match the configured issuer. A nil result with
	// a nil error never occurs; failures return an error.
	Verify(token, purpose string, strict bool) (*TokenClaims, error)
}

// Translator localizes user-facing message templates. Implementations
// interpolate {name} placeholders from vars and fall back to the source
// text when no translation exists.
type Translator interface {
	Translate(text, namespace string, vars map[string]any) string
}

// Mailer delivers the confirmation email. Send is invoked fire-and-forget
// relative to the signup response; delivery failures surface only through
// the adapter's own logging.
type Mailer interface {
	ValidateConfiguration() error
	Send(ctx context.Context, from, to, plainText, html, subject string) error
}

// PasswordHasher hashes plaintext passwords before they reach the store.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// RequestContext bundles the request attributes passed through to hooks and
// login callbacks. It is a fixed-field type rather than an ad hoc bag so
// every call site carries the same shape.
type RequestContext struct {
	Body       map[string]any
	Headers    map[string]string
	Query      map[string]string
	Cookies    map[string]string
	RequestURL string
}

// HookPayload is handed to lifecycle hooks.
type HookPayload struct {
	Resource *Resource
	Record   Record
	Extra    *RequestContext
}

// HookResult is the contract every lifecycle hook must honor: either OK is
// true, or Error carries a caller-facing message. A hook may replace the
// candidate record by setting Record.
type HookResult struct {
	OK     bool
	Error  string
	Record Record
}

// Hook transforms or vetoes record creation. A nil HookResult, or one with
// neither OK nor Error set, violates the contract and fails the request.
type Hook func(ctx context.Context, payload *HookPayload) (*HookResult, error)

// Hooks are the optional lifecycle extension points around record creation.
// An AfterUserSave error is surfaced to the caller even though the record
// already exists; the workflow performs no compensation.
type Hooks struct {
	BeforeUserSave Hook
	AfterUserSave  Hook
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SIGNUP "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SIGNUP "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SIGNUP "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SIGNUP "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
