package signup

import (
	"context"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// SignupMessage is the input to the signup operation.
type SignupMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// URL is the signup page location; the confirmation link is built
	// against it in confirmation mode.
	URL string `json:"url"`

	Sink  ResponseSink    `json:"-"`
	Extra *RequestContext `json:"-"`
}

func (e SignupMessage) Type() string { return "signup.register" }

// SignupResult is the data-shaped outcome of signup or confirmation. When
// Login is set the operation terminated in the login bridge and Login is
// the response body; otherwise OK/Error describe the outcome.
type SignupResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	Login *LoginResult `json:"-"`
}

func failure(message string) *SignupResult {
	return &SignupResult{OK: false, Error: message}
}

// SignupHandler orchestrates the signup request: input validation,
// duplicate detection, hook-mediated record creation, and the branch
// between immediate login and the confirmation flow.
type SignupHandler struct {
	plugin *Plugin
	bridge *LoginBridge
	flow   *ConfirmationFlow
	logger Logger
}

// NewSignupHandler creates a handler for the bound plugin.
func NewSignupHandler(plugin *Plugin) *SignupHandler {
	return &SignupHandler{
		plugin: plugin,
		bridge: NewLoginBridge(plugin),
		flow:   NewConfirmationFlow(plugin),
		logger: plugin.logger,
	}
}

// Execute runs the signup operation. Business-rule failures come back as a
// SignupResult; a non-nil error means a collaborator contract violation or
// infrastructure failure.
func (h *SignupHandler) Execute(ctx context.Context, msg SignupMessage) (*SignupResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during signup")
	default:
		return h.execute(ctx, msg)
	}
}

func (h *SignupHandler) execute(ctx context.Context, msg SignupMessage) (*SignupResult, error) {
	p := h.plugin

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// email rules run against the raw input, in declaration order
	for _, rule := range p.emailColumn.Validation {
		match, err := rule.Matches(msg.Email)
		if err != nil {
			return nil, err
		}
		if !match {
			return failure(p.tr(rule.Message, nil)), nil
		}
	}

	// with confirmation enabled the password is collected later, at the
	// confirmation step, so policy checks are deferred there as well
	if !p.ConfirmationEnabled() {
		if result := h.validatePassword(msg.Password); result != nil {
			return result, nil
		}
	}

	// defensive normalization, independent of field-level validators
	normalizedEmail := strings.ToLower(msg.Email)

	existing, err := p.store.Get(ctx, p.emailColumn.Name, normalizedEmail)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing user")
	}

	// an unconfirmed record under confirmation mode is not a conflict: it
	// permits re-issuing the confirmation email
	if existing != nil {
		confirmed := p.ConfirmationEnabled() && boolValue(existing[p.emailConfirmedColumn.Name])
		if !p.ConfirmationEnabled() || confirmed {
			return failure(p.tr(MsgEmailExists, nil)), nil
		}
	}

	if existing == nil {
		record, err := h.buildRecord(normalizedEmail, msg.Password)
		if err != nil {
			return nil, err
		}

		if hook := p.opts.Hooks.BeforeUserSave; hook != nil {
			resp, err := h.runHook(ctx, "BeforeUserSave", hook, record, msg.Extra)
			if err != nil {
				return nil, err
			}
			if resp.Error != "" {
				return failure(resp.Error), nil
			}
			if resp.Record != nil {
				record = resp.Record
			}
		}

		created, err := p.store.Create(ctx, record)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user record")
		}

		if hook := p.opts.Hooks.AfterUserSave; hook != nil {
			resp, err := h.runHook(ctx, "AfterUserSave", hook, created, msg.Extra)
			if err != nil {
				return nil, err
			}
			// the record already exists at this point; the error is still
			// surfaced to the caller and no compensation is attempted
			if resp.Error != "" {
				return failure(resp.Error), nil
			}
		}
	}

	if !p.ConfirmationEnabled() {
		login, err := h.bridge.Login(ctx, normalizedEmail, msg.Sink, msg.Extra)
		if err != nil {
			return nil, err
		}
		return &SignupResult{OK: login.AllowedLogin, Login: login}, nil
	}

	if err := h.flow.RequestConfirmation(ctx, normalizedEmail, msg.URL); err != nil {
		return nil, err
	}

	return &SignupResult{OK: true}, nil
}

// validatePassword enforces the declared length bounds and rules,
// short-circuiting on the first failure. A nil result means the password
// passed.
func (h *SignupHandler) validatePassword(password string) *SignupResult {
	p := h.plugin
	col := p.passwordColumn

	// length bounds count characters, not bytes
	length := utf8.RuneCountInString(password)
	if length < col.MinLength {
		return failure(p.tr(MsgPasswordTooShort, map[string]any{"minLength": col.MinLength}))
	}
	if col.MaxLength > 0 && length > col.MaxLength {
		return failure(p.tr(MsgPasswordTooLong, map[string]any{"maxLength": col.MaxLength}))
	}

	for _, rule := range col.Validation {
		match, err := rule.Matches(password)
		if err != nil {
			// patterns are compiled during Bind, so this cannot trip for a
			// bound plugin; treat it as a plain failure regardless
			return failure(p.tr(rule.Message, nil))
		}
		if !match {
			return failure(p.tr(rule.Message, nil))
		}
	}
	return nil
}

func (h *SignupHandler) buildRecord(email, password string) (Record, error) {
	p := h.plugin

	record := Record{}
	if p.opts.DefaultFieldValues != nil {
		maps.Copy(record, p.opts.DefaultFieldValues)
	}

	if p.ConfirmationEnabled() {
		record[p.emailConfirmedColumn.Name] = false
	}

	record[p.emailColumn.Name] = email

	// empty password is only meaningful in confirmation mode, where the
	// real password arrives at the confirmation step
	hash := ""
	if password != "" {
		var err error
		if hash, err = p.hasher.Hash(password); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
	}
	record[p.opts.PasswordHashField] = hash

	if pkCol := p.authResource.PrimaryKeyColumn(); pkCol != nil {
		if _, ok := record[pkCol.Name]; !ok {
			record[pkCol.Name] = h.newRecordID(email)
		}
	}

	return record, nil
}

func (h *SignupHandler) newRecordID(email string) string {
	if h.plugin.opts.UseHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			return id.String()
		}
	}
	return uuid.New().String()
}

func (h *SignupHandler) runHook(ctx context.Context, name string, hook Hook, record Record, extra *RequestContext) (*HookResult, error) {
	resp, err := hook(ctx, &HookPayload{
		Resource: h.plugin.authResource,
		Record:   record,
		Extra:    extra,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "hook "+name+" failed")
	}
	if resp == nil || (!resp.OK && resp.Error == "") {
		return nil, goerrors.New(
			"hook "+name+" must return a result with OK set or an error message",
			goerrors.CategoryInternal,
		).WithTextCode("HOOK_CONTRACT_VIOLATION")
	}
	return resp, nil
}

// boolValue reads a stored confirmed-flag value, tolerating the integer
// booleans some drivers return.
func boolValue(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case int:
		return value != 0
	case int64:
		return value != 0
	case float64:
		return value != 0
	case string:
		return value == "true" || value == "1"
	default:
		return false
	}
}
