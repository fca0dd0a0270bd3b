package signup

import "errors"

// ErrNoEmptyString rejects empty input where a value is required.
var ErrNoEmptyString = errors.New("value should not be an empty string")

// ErrEmailFieldRequired is returned when options omit the email binding.
var ErrEmailFieldRequired = errors.New("EmailField is required and should be a name of a field in the auth resource")

// ErrPasswordFieldRequired is returned when options omit the password binding.
var ErrPasswordFieldRequired = errors.New("PasswordField is required to read password constraints and should be a name of a virtual field in the auth resource")

// ErrPasswordHashFieldRequired is returned when options omit the hash binding.
var ErrPasswordHashFieldRequired = errors.New("PasswordHashField is required and should be a name of a field in the auth resource")

// ErrConfirmAdapterRequired is returned when confirmation is enabled
// without an email adapter.
var ErrConfirmAdapterRequired = errors.New("ConfirmEmails.Adapter is required when email confirmation is enabled")

// ErrConfirmedFieldRequired is returned when confirmation is enabled
// without a confirmed-flag binding.
var ErrConfirmedFieldRequired = errors.New("ConfirmEmails.EmailConfirmedField is required when email confirmation is enabled")

// Messages for business-rule failures. They are returned as data, never as
// Go errors, and always pass through the Translator before reaching a
// caller. The invalid-token message is deliberately generic so callers
// cannot distinguish bad signature, wrong purpose, and expiry.
const (
	MsgEmailExists           = "Email already exists"
	MsgInvalidToken          = "Invalid token"
	MsgPasswordRequired      = "Password is required"
	MsgUserNotFound          = "User not found"
	MsgEmailAlreadyConfirmed = "Email already confirmed"
	MsgPasswordTooShort      = "Password must be at least {minLength} characters long"
	MsgPasswordTooLong       = "Password must be at most {maxLength} characters long"
)

// TranslationNamespace is the namespace passed to the Translator for every
// message this workflow emits.
const TranslationNamespace = "signup"
