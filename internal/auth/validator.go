package auth

import (
	"strings"
	"unicode"
)

// specialChars is the fixed set a password must draw at least one
// character from.
const specialChars = `!@#$%^&*(),.?":{}|<>`

// ValidationKind identifies which complexity rule a candidate failed.
type ValidationKind string

const (
	KindTooShort    ValidationKind = "password_too_short"
	KindNoUppercase ValidationKind = "password_no_upper"
	KindNoLowercase ValidationKind = "password_no_lower"
	KindNoSpecial   ValidationKind = "password_no_special"
)

// ValidationError reports the first complexity rule a candidate failed.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidatePassword checks a candidate secret against the complexity rules,
// in order, returning the first failure as a *ValidationError or nil if all
// rules pass:
//
//  1. at least 8 characters
//  2. at least one uppercase letter
//  3. at least one lowercase letter
//  4. at least one character from !@#$%^&*(),.?":{}|<>
//
// Digits are NOT required. Pure function, no side effects.
func ValidatePassword(candidate string) error {
	if len([]rune(candidate)) < 8 {
		return &ValidationError{
			Kind:    KindTooShort,
			Message: "Password must be at least 8 characters.",
		}
	}
	if !strings.ContainsFunc(candidate, unicode.IsUpper) {
		return &ValidationError{
			Kind:    KindNoUppercase,
			Message: "Password must contain at least one uppercase letter",
		}
	}
	if !strings.ContainsFunc(candidate, unicode.IsLower) {
		return &ValidationError{
			Kind:    KindNoLowercase,
			Message: "Password must contain at least one lowercase letter",
		}
	}
	if !strings.ContainsAny(candidate, specialChars) {
		return &ValidationError{
			Kind:    KindNoSpecial,
			Message: "Password must contain at least one special character",
		}
	}
	return nil
}
