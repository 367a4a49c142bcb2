// Package account holds user accounts and their session tokens.
//
// An account is created at registration with a freshly issued opaque token.
// The token never rotates and never expires; it identifies the account for
// the lifetime of the process. Passwords are stored and compared in plain
// text — this is a disposable mock fixture, not a credential store.
package account
