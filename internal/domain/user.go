// Package domain contains the core business entities for the Tienda order ledger.
// These are plain Go structs populated from query results, one per persisted entity.
package domain

import "strings"

// User represents a registered customer.
// Users are created on registration and never modified afterwards.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Name is the display name given at registration.
	Name string `json:"name"`

	// Email is the unique, lower-cased email address used for login.
	Email string `json:"email"`

	// CredentialRecord is the encoded password record (algorithm$iterations$salt$hash).
	// This should never be exposed or logged.
	CredentialRecord string `json:"-"`
}

// NewUser creates a new User with a normalized email.
func NewUser(name, email, credentialRecord string) *User {
	return &User{
		Name:             strings.TrimSpace(name),
		Email:            NormalizeEmail(email),
		CredentialRecord: credentialRecord,
	}
}

// NormalizeEmail trims and lower-cases an email so lookups and the unique
// constraint both operate on the same form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
