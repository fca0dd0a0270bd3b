package signup

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// LoginBridge performs the immediate-login terminal step: it loads the
// record the caller just created or confirmed, runs the host's login
// callbacks, and on success instructs the host to establish a session.
type LoginBridge struct {
	plugin *Plugin
	logger Logger
}

// NewLoginBridge creates a bridge for the bound plugin.
func NewLoginBridge(plugin *Plugin) *LoginBridge {
	return &LoginBridge{
		plugin: plugin,
		logger: plugin.logger,
	}
}

// Login loads the record by email and runs the callback chain. The caller
// guarantees the record exists, so absence here is an unexpected internal
// error rather than a business outcome.
func (b *LoginBridge) Login(ctx context.Context, email string, sink ResponseSink, extra *RequestContext) (*LoginResult, error) {
	p := b.plugin

	record, err := p.store.Get(ctx, p.emailColumn.Name, email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user record for login")
	}
	if record == nil {
		return nil, goerrors.New("user record disappeared between creation and login", goerrors.CategoryInternal).
			WithMetadata(map[string]any{"email": email})
	}

	identity := &Identity{
		Username: email,
		Record:   record,
	}
	if pkCol := p.authResource.PrimaryKeyColumn(); pkCol != nil {
		identity.PrimaryKey = record[pkCol.Name]
	}

	result := &LoginResult{AllowedLogin: true}

	if err := p.sessions.RunLoginCallbacks(ctx, identity, result, sink, extra); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "login callback chain failed")
	}

	if result.AllowedLogin {
		if err := p.sessions.EstablishSession(sink, identity); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to establish session")
		}
	}

	return result, nil
}
