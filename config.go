package signup

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// ConfirmEmails enables the email-confirmation gate: new accounts stay
// unusable until the address is proven via a signed token.
type ConfirmEmails struct {
	// EmailConfirmedField is the boolean column flipped once the address
	// is verified.
	EmailConfirmedField string
	// Adapter delivers the confirmation email.
	Adapter Mailer
	// SendFrom is the sender address used for confirmation emails.
	SendFrom string
}

// Options configure the workflow. They are resolved against the host
// schema exactly once; the resulting Plugin is immutable afterwards.
type Options struct {
	// EmailField is the auth resource column holding the account email.
	EmailField string
	// PasswordField is the virtual column declaring password constraints.
	PasswordField string
	// PasswordHashField is the column storing the hashed password.
	PasswordHashField string
	// BrandName labels issued tokens and confirmation emails.
	BrandName string
	// ConfirmEmails, when set, gates signup behind email confirmation.
	ConfirmEmails *ConfirmEmails
	// DefaultFieldValues seed every newly created record.
	DefaultFieldValues map[string]any
	// Hooks are the optional lifecycle extension points.
	Hooks Hooks
	// UseHashid derives record ids deterministically from the email
	// instead of generating random UUIDs.
	UseHashid bool
}

// Plugin is the configured signup workflow. Build it with New, bind it with
// Bind, and finish validation with ValidateAfterDiscover once the host has
// completed schema discovery. All fields are read-only after that.
type Plugin struct {
	opts Options

	schema       *Schema
	authResource *Resource

	emailColumn          *Column
	passwordColumn       *Column
	emailConfirmedColumn *Column

	store      RecordStore
	sessions   SessionManager
	tokens     TokenIssuer
	translator Translator
	hasher     PasswordHasher
	logger     Logger
}

// New validates the options that do not require schema access and returns
// an unbound Plugin.
func New(opts Options) (*Plugin, error) {
	if opts.EmailField == "" {
		return nil, ErrEmailFieldRequired
	}
	if opts.PasswordField == "" {
		return nil, ErrPasswordFieldRequired
	}
	if opts.PasswordHashField == "" {
		return nil, ErrPasswordHashFieldRequired
	}
	if opts.ConfirmEmails != nil {
		if opts.ConfirmEmails.Adapter == nil {
			return nil, ErrConfirmAdapterRequired
		}
		if opts.ConfirmEmails.EmailConfirmedField == "" {
			return nil, ErrConfirmedFieldRequired
		}
	}

	return &Plugin{
		opts:       opts,
		translator: PassthroughTranslator{},
		hasher:     BcryptHasher{},
		logger:     defLogger{},
	}, nil
}

// WithLogger overrides the logger.
func (p *Plugin) WithLogger(logger Logger) *Plugin {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithTranslator overrides the localization collaborator.
func (p *Plugin) WithTranslator(tr Translator) *Plugin {
	if tr != nil {
		p.translator = tr
	}
	return p
}

// WithHasher overrides the password hashing utility.
func (p *Plugin) WithHasher(hasher PasswordHasher) *Plugin {
	if hasher != nil {
		p.hasher = hasher
	}
	return p
}

// WithTokenIssuer sets the signed-token collaborator. Required before the
// confirmation flow can run.
func (p *Plugin) WithTokenIssuer(tokens TokenIssuer) *Plugin {
	p.tokens = tokens
	return p
}

// Bind resolves the field bindings against the host schema and attaches the
// store and session collaborators. It fails when the authentication
// resource or any required column cannot be resolved; the process must not
// start in that case.
func (p *Plugin) Bind(schema *Schema, store RecordStore, sessions SessionManager) error {
	if schema == nil {
		return goerrors.New("schema is required", goerrors.CategoryBadInput)
	}
	if store == nil {
		return goerrors.New("record store is required", goerrors.CategoryBadInput)
	}
	if sessions == nil {
		return goerrors.New("session manager is required", goerrors.CategoryBadInput)
	}

	if p.opts.ConfirmEmails != nil && p.tokens == nil {
		return goerrors.New("token issuer is required when email confirmation is enabled", goerrors.CategoryBadInput)
	}

	authResource := schema.AuthResource()
	if authResource == nil {
		return goerrors.New(
			fmt.Sprintf("resource with id AuthResourceID=%s not found", schema.AuthResourceID),
			goerrors.CategoryBadInput,
		)
	}

	emailColumn, err := p.resolveColumn(authResource, p.opts.EmailField)
	if err != nil {
		return err
	}

	passwordColumn, err := p.resolveColumn(authResource, p.opts.PasswordField)
	if err != nil {
		return err
	}

	var confirmedColumn *Column
	if p.opts.ConfirmEmails != nil {
		if confirmedColumn, err = p.resolveColumn(authResource, p.opts.ConfirmEmails.EmailConfirmedField); err != nil {
			return err
		}
	}

	// fail fast on unparsable validation patterns instead of at request time
	for _, rule := range emailColumn.Validation {
		if err := rule.Compile(); err != nil {
			return err
		}
	}
	for _, rule := range passwordColumn.Validation {
		if err := rule.Compile(); err != nil {
			return err
		}
	}

	p.schema = schema
	p.authResource = authResource
	p.emailColumn = emailColumn
	p.passwordColumn = passwordColumn
	p.emailConfirmedColumn = confirmedColumn
	p.store = store
	p.sessions = sessions

	return nil
}

// ValidateAfterDiscover runs the checks that need full type metadata, which
// the host only has once schema discovery finishes: the confirmed-flag
// column must be boolean and the email adapter must be usable.
func (p *Plugin) ValidateAfterDiscover() error {
	if p.authResource == nil {
		return goerrors.New("plugin must be bound before post-discovery validation", goerrors.CategoryOperation)
	}

	if p.opts.ConfirmEmails == nil {
		return nil
	}

	if err := p.opts.ConfirmEmails.Adapter.ValidateConfiguration(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "email adapter configuration is invalid")
	}

	if p.emailConfirmedColumn.Type != ColumnBoolean {
		return goerrors.New(
			fmt.Sprintf("field %s must be of type boolean", p.emailConfirmedColumn.Name),
			goerrors.CategoryBadInput,
		)
	}

	return nil
}

func (p *Plugin) resolveColumn(resource *Resource, name string) (*Column, error) {
	col := resource.Column(name)
	if col != nil {
		return col, nil
	}

	msg := fmt.Sprintf("field with name %s not found in resource %s", name, resource.ResourceID)
	if similar := SuggestIfTypo(resource.ColumnNames(), name); similar != "" {
		msg = fmt.Sprintf("%s. Did you mean %s?", msg, similar)
	}

	return nil, goerrors.New(msg, goerrors.CategoryBadInput).
		WithMetadata(map[string]any{"field": name, "resource": resource.ResourceID})
}

// ConfirmationEnabled reports whether the signup flow is gated behind
// email confirmation.
func (p *Plugin) ConfirmationEnabled() bool {
	return p.opts.ConfirmEmails != nil
}

// AuthResource exposes the bound authentication resource.
func (p *Plugin) AuthResource() *Resource {
	return p.authResource
}

func (p *Plugin) tr(text string, vars map[string]any) string {
	return p.translator.Translate(text, TranslationNamespace, vars)
}
