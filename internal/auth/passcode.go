// Package auth — one-time code generation and hashing.
//
// WHY BCRYPT FOR AN 8-DIGIT CODE?
// The code is stored exactly like a password: a one-way hash in the user row.
// The 10^8 code space is small, so a fast hash (SHA-256) of a leaked database
// would be brute-forced instantly; bcrypt's work factor makes that expensive.
// The same service also hashes the optional sign-up password, so one storage
// format covers both secrets.
package auth

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of digits in a login code.
const CodeLength = 8

// defaultCost is the bcrypt work factor.
//
// COST TUNING RULE OF THUMB:
// Set cost so that hashing takes ~200–300ms on your production hardware.
// Too low → easy to crack. Too high → every request-code call is sluggish
// and the server spends its time on bcrypt during traffic spikes.
const defaultCost = 12

// GenerateCode returns a fresh 8-digit login code.
//
// Each digit is drawn independently and uniformly from 0–9 (leading zeros
// included), giving a 10^8 space. This is deliberately not a
// crypto/rand-grade secret: the code is single-use, expires in minutes, and
// is only ever compared against a bcrypt hash.
func GenerateCode() string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}

// PasscodeService provides bcrypt hashing and verification for login codes
// and sign-up passwords.
//
// It's a struct (not free functions) so that the cost can be injected in
// tests — using a lower cost (e.g. 4) makes tests run much faster without
// compromising the logic being tested.
type PasscodeService struct {
	cost int
}

// NewPasscodeService creates a PasscodeService with the default cost (12).
func NewPasscodeService() *PasscodeService {
	return &PasscodeService{cost: defaultCost}
}

// NewPasscodeServiceForTest creates a PasscodeService with a custom cost.
// Use bcrypt's minimum (4) in tests to avoid the ~250ms overhead of cost 12
// per hashing operation. Do NOT use in production.
func NewPasscodeServiceForTest(cost int) *PasscodeService {
	return &PasscodeService{cost: cost}
}

// Hash hashes the given secret (code or password) with bcrypt.
//
// The output is a self-contained string including salt and cost — store it
// directly; Verify knows how to decode it.
//
// Returns an error if the secret is too long (>72 bytes — a bcrypt limit).
func (p *PasscodeService) Hash(secret string) (string, error) {
	if len(secret) > 72 {
		// bcrypt silently truncates inputs longer than 72 bytes.
		// Reject them explicitly so callers aren't surprised.
		return "", fmt.Errorf("auth: secret must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing secret: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a candidate secret matches a stored bcrypt hash.
//
// Returns nil on match. bcrypt.CompareHashAndPassword is constant-time
// internally, so response timing doesn't reveal how close a guess was.
func (p *PasscodeService) Verify(hash, candidate string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: secret mismatch")
		}
		return fmt.Errorf("auth: comparing secret hash: %w", err)
	}
	return nil
}
