package signup

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// LoginCallback is one link in the host's login-callback chain. Callbacks
// may flip result.AllowedLogin to false and set an error or redirect; the
// chain stops at the first callback that disallows the login.
type LoginCallback func(ctx context.Context, identity *Identity, result *LoginResult, sink ResponseSink, extra *RequestContext) error

// CookieSessionManager is a SessionManager for hosts without their own
// session plumbing: it signs a session token and writes it as an HTTP
// cookie through the sink. Hosts with an existing auth subsystem should
// implement SessionManager over it instead.
type CookieSessionManager struct {
	tokens     TokenIssuer
	cookieName string
	duration   time.Duration
	callbacks  []LoginCallback
	logger     Logger
}

var _ SessionManager = (*CookieSessionManager)(nil)

// SessionPurpose scopes session tokens apart from verification tokens.
const SessionPurpose = "auth-session-token"

// NewCookieSessionManager creates a manager signing session tokens with
// the given issuer.
func NewCookieSessionManager(tokens TokenIssuer, cookieName string, duration time.Duration) *CookieSessionManager {
	if cookieName == "" {
		cookieName = "auth_session"
	}
	if duration <= 0 {
		duration = 24 * time.Hour
	}
	return &CookieSessionManager{
		tokens:     tokens,
		cookieName: cookieName,
		duration:   duration,
		logger:     defLogger{},
	}
}

// WithLogger overrides the logger.
func (m *CookieSessionManager) WithLogger(logger Logger) *CookieSessionManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithLoginCallbacks appends callbacks to the chain.
func (m *CookieSessionManager) WithLoginCallbacks(callbacks ...LoginCallback) *CookieSessionManager {
	m.callbacks = append(m.callbacks, callbacks...)
	return m
}

// RunLoginCallbacks implements SessionManager.
func (m *CookieSessionManager) RunLoginCallbacks(ctx context.Context, identity *Identity, result *LoginResult, sink ResponseSink, extra *RequestContext) error {
	for _, callback := range m.callbacks {
		if err := callback(ctx, identity, result, sink, extra); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "login callback failed")
		}
		if !result.AllowedLogin {
			return nil
		}
	}
	return nil
}

// EstablishSession implements SessionManager.
func (m *CookieSessionManager) EstablishSession(sink ResponseSink, identity *Identity) error {
	token, err := m.tokens.Issue(TokenClaims{Email: identity.Username}, SessionPurpose, m.duration)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	if sink == nil {
		return goerrors.New("response sink is required to establish a session", goerrors.CategoryBadInput)
	}

	sink.SetCookie(m.cookieName, token, time.Now().Add(m.duration))
	m.logger.Debug("session established for %s", identity.Username)
	return nil
}
