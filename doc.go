// Package signup provides a self-service account signup workflow with an
// optional email-confirmation gate, designed to be embedded in an admin
// backend that owns sessions, localization, and the user record store.
//
// Field bindings:
//   - The workflow reads and writes the authentication resource through
//     configured column names (email, password hash, and the confirmed flag
//     when confirmation is enabled). Bindings are resolved once at startup
//     against the host schema and are immutable afterwards.
//
// Confirmation mode:
//   - When ConfirmEmails is configured, signup does not establish a session.
//     Instead a purpose-scoped, time-limited token is issued and mailed to
//     the address; CompleteVerifiedSignup later marks the record confirmed,
//     sets the password, and logs the user in.
//
// Lifecycle hooks:
//   - BeforeUserSave and AfterUserSave let the embedding application
//     transform or veto record creation. Hooks return a HookResult; any
//     other shape is treated as a programming error, not a business error.
package signup
