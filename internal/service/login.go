// Package service — the login flow business logic.
//
// LoginService is the decision layer for the passwordless flow. It sits
// between the HTTP handlers and the repository/auth/mailer collaborators:
//
//	handlers (HTTP) → LoginService (flow rules) → UserRepository (DB)
//	                ↘ TokenService (JWT)  ↘ Mailer (code dispatch)
//
// The three operations map one-to-one onto the API endpoints:
//
//   - RequestCode: generate a one-time code, store its hash on the (possibly
//     new, inactive) user row, email the code
//   - VerifyCode: evaluate expiry then match, branch active → tokens vs
//     inactive → sign-up signal
//   - CompleteSignUp: activate a verified row, set profile fields, issue
//     tokens
//
// Each request is evaluated independently from the current user row — there
// is no persisted flow state beyond secret_hash and code_created_at.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/sakif/passcode-login/internal/apperror"
	"github.com/sakif/passcode-login/internal/auth"
	"github.com/sakif/passcode-login/internal/mailer"
	"github.com/sakif/passcode-login/internal/model"
	"github.com/sakif/passcode-login/internal/repository"
)

// DefaultCodeTTL is how long an issued code stays valid.
// Strictly past the boundary the code is expired.
const DefaultCodeTTL = 2 * time.Minute

// User-facing messages. Verification deliberately reuses msgInvalidCode for
// both "unknown email" and "wrong code" so the response doesn't reveal
// whether the email exists. (RequestCode still creates rows silently, so
// existence leaks there; kept as-is, documented behavior.)
const (
	msgCodeSent      = "A code has been sent to your email."
	msgInvalidCode   = "Invalid email or code."
	msgCodeExpired   = "The code has expired. Please request a new code."
	msgLoginOK       = "Login successful, redirecting to home"
	msgNewUser       = "New user, redirecting to signup."
	msgNoSuchUser    = "User does not exist."
	msgAlreadyActive = "User is already active."
)

// VerifyOutcome is the terminal result of one verification attempt.
type VerifyOutcome int

const (
	// VerifiedExistingUser: code matched an active account; tokens issued.
	VerifiedExistingUser VerifyOutcome = iota
	// VerifiedNewUser: code matched an inactive account; sign-up required,
	// no tokens.
	VerifiedNewUser
)

// LoginService handles the passwordless authentication flow.
type LoginService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passcodes *auth.PasscodeService
	mail      mailer.Mailer
	logger    *slog.Logger

	codeTTL time.Duration
	// newCode and now are injection points for tests; production uses
	// auth.GenerateCode and time.Now.
	newCode func() string
	now     func() time.Time
}

// NewLoginService creates a LoginService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewLoginService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passcodes *auth.PasscodeService,
	mail mailer.Mailer,
	logger *slog.Logger,
) *LoginService {
	return &LoginService{
		users:     users,
		tokens:    tokens,
		passcodes: passcodes,
		mail:      mail,
		logger:    logger,
		codeTTL:   DefaultCodeTTL,
		newCode:   auth.GenerateCode,
		now:       time.Now,
	}
}

// CodeRequestResult is returned by RequestCode.
type CodeRequestResult struct {
	Message string
}

// RequestCode implements the first flow step: a user submits their email
// and receives a one-time 8-digit code.
//
// Steps, in order:
//  1. Validate the email format (no side effects on failure).
//  2. Generate the code.
//  3. Get-or-create the user row; a created row starts inactive.
//  4. Overwrite secret_hash with bcrypt(code) and stamp code_created_at —
//     issuing a new code always invalidates the prior one.
//  5. Email the code. A dispatch error propagates as ErrDispatch; it is
//     never swallowed. The row update is not rolled back on dispatch
//     failure, so a follow-up request simply issues a fresh code.
func (s *LoginService) RequestCode(ctx context.Context, email string) (*CodeRequestResult, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, fmt.Errorf("service/login: %w", err)
	}

	code := s.newCode()

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// existing row, re-issue
	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{Email: email, IsActive: false}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/login: creating user %s: %w", email, err)
		}
	default:
		return nil, fmt.Errorf("service/login: fetching user %s: %w", email, err)
	}

	hash, err := s.passcodes.Hash(code)
	if err != nil {
		return nil, fmt.Errorf("service/login: hashing code: %w", err)
	}
	issuedAt := s.now()
	user.SecretHash = hash
	user.CodeCreatedAt = &issuedAt

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/login: storing code for %s: %w", email, err)
	}

	body := fmt.Sprintf("Your login code is %s", code)
	if err := s.mail.Send(ctx, email, "Your Login Code", body); err != nil {
		s.logger.Error("login code dispatch failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/login: %w", apperror.DispatchFailed(err))
	}

	s.logger.Info("login code issued", slog.String("userID", user.ID))

	return &CodeRequestResult{Message: msgCodeSent}, nil
}

// VerifyResult is returned by VerifyCode.
// Tokens is non-nil only for VerifiedExistingUser.
type VerifyResult struct {
	Outcome VerifyOutcome
	Message string
	User    *model.User
	Tokens  *auth.TokenPair
}

// VerifyCode implements the second flow step. The checks run in a fixed
// order:
//
//  1. Unknown email → generic invalid error (no enumeration leak here).
//  2. Expiry: strictly later than code_created_at + TTL → expired. A row
//     that never had a code issued counts as expired too — the only useful
//     response is "request a new code". Expiry is checked before the match
//     so the user gets the more specific error.
//  3. bcrypt mismatch → the same generic invalid error as step 1.
//  4. Active account → issue a fresh access+refresh pair.
//  5. Inactive account → signal that sign-up must be completed; no tokens.
func (s *LoginService) VerifyCode(ctx context.Context, email, code string) (*VerifyResult, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/login: %w",
				apperror.ValidationFailed("", msgInvalidCode))
		}
		return nil, fmt.Errorf("service/login: fetching user %s: %w", email, err)
	}

	if user.CodeCreatedAt == nil || s.now().After(user.CodeCreatedAt.Add(s.codeTTL)) {
		return nil, fmt.Errorf("service/login: %w", apperror.Expired(msgCodeExpired))
	}

	if err := s.passcodes.Verify(user.SecretHash, code); err != nil {
		return nil, fmt.Errorf("service/login: %w",
			apperror.ValidationFailed("", msgInvalidCode))
	}

	if !user.IsActive {
		s.logger.Info("code verified for new user", slog.String("userID", user.ID))
		return &VerifyResult{
			Outcome: VerifiedNewUser,
			Message: msgNewUser,
			User:    user,
		}, nil
	}

	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/login: issuing tokens for %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &VerifyResult{
		Outcome: VerifiedExistingUser,
		Message: msgLoginOK,
		User:    user,
		Tokens:  pair,
	}, nil
}

// SignUpInput carries the sign-up completion fields. Nil pointers mean
// "field not provided" — the stored value is kept, matching partial-update
// semantics.
type SignUpInput struct {
	Email     string
	FirstName *string
	LastName  *string
	// Password is optional. When present it must pass the complexity rules
	// and replaces the stored secret hash, so the account has a real
	// password after activation instead of the last login code.
	Password *string
}

// SignUpResult is returned by CompleteSignUp.
type SignUpResult struct {
	Message string
	User    *model.User
	Tokens  *auth.TokenPair
}

// CompleteSignUp implements the third flow step: activate an inactive,
// code-verified account.
//
// The code is NOT re-checked here — the caller routes users to sign-up only
// after VerifyCode reported VerifiedNewUser. The service re-fetches by email
// and enforces only existence and inactivity.
func (s *LoginService) CompleteSignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	email := strings.TrimSpace(in.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/login: %w",
				apperror.ValidationFailed("email", msgNoSuchUser))
		}
		return nil, fmt.Errorf("service/login: fetching user %s: %w", email, err)
	}

	if user.IsActive {
		return nil, fmt.Errorf("service/login: %w", apperror.AlreadyActive(msgAlreadyActive))
	}

	// Partial update: only the provided fields overwrite stored values.
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Password != nil {
		if err := auth.ValidatePassword(*in.Password); err != nil {
			return nil, fmt.Errorf("service/login: %w",
				apperror.ValidationFailed("password", err.Error()))
		}
		hash, err := s.passcodes.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("service/login: hashing password: %w", err)
		}
		user.SecretHash = hash
	}

	user.IsActive = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/login: activating user %s: %w", user.ID, err)
	}

	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/login: issuing tokens for %s: %w", user.ID, err)
	}

	s.logger.Info("sign-up completed", slog.String("userID", user.ID))

	return &SignUpResult{
		Message: msgLoginOK,
		User:    user,
		Tokens:  pair,
	}, nil
}

// ActiveUser loads the user behind an authenticated request and confirms the
// account is active. Used by the /api/active-user probe after the middleware
// has validated the access token.
func (s *LoginService) ActiveUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/login: %w",
				apperror.Forbidden("No account matches this token."))
		}
		return nil, fmt.Errorf("service/login: fetching user %s: %w", userID, err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("service/login: %w",
			apperror.Forbidden("User is not active."))
	}
	return user, nil
}

// validateEmail rejects anything that isn't a bare, parseable address with
// a dotted domain. Display names ("A <a@b.c>") are not addresses here.
func validateEmail(email string) error {
	invalid := apperror.ValidationFailed("email", "Enter a valid email address.")

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid
	}
	at := strings.LastIndex(email, "@")
	if at < 0 || !strings.Contains(email[at+1:], ".") {
		return invalid
	}
	return nil
}
