// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents an account identified by its email address.
//
// The login flow is passwordless: the user requests a one-time code by email
// and the bcrypt hash of that code is stored in SecretHash until the next
// code overwrites it. A row is created the first time an email requests a
// code, with IsActive=false; IsActive flips to true only when the user
// completes sign-up. Verification for an inactive user never issues tokens —
// it routes to sign-up instead.
//
// WHY CodeCreatedAt *time.Time (not time.Time)?
// A freshly created row has never been issued a code, and the expiry check
// needs to distinguish "never issued" from any real timestamp. A nil pointer
// maps cleanly to SQL NULL; the zero time.Time would round-trip through the
// driver as a real (very old) timestamp.
type User struct {
	ID            string     `json:"id"        db:"id"`
	Email         string     `json:"email"     db:"email"` // unique identity, stored as given
	FirstName     string     `json:"firstName" db:"first_name"`
	LastName      string     `json:"lastName"  db:"last_name"`
	IsActive      bool       `json:"isActive"  db:"is_active"`
	SecretHash    string     `json:"-"         db:"secret_hash"` // bcrypt of the current code (or password)
	CodeCreatedAt *time.Time `json:"-"         db:"code_created_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}
