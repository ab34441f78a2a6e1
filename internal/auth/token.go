// Package auth provides JWT token issuance, one-time code hashing, and the
// password complexity rules for the passwordless login flow.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User POSTs their email to /api/request-code → an 8-digit code is emailed
// 2. User POSTs email+code to /api/verify-code
// 3. If the account is active, the server issues an access+refresh JWT pair
// 4. If not, the user completes /api/sign-up, which activates the account
//    and issues the pair
// 5. On subsequent API calls, middleware validates the access token and sets
//    the userID in the request context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store session
// data. All the information needed (userID, expiry, token type) is inside the
// signed token. The signature ensures nobody can tamper with it without the
// secret key.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "passcode-login"

	// accessTTL is short on purpose: an access token leaking from a log or
	// a proxy is only useful for a few minutes.
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour

	typeAccess  = "access"
	typeRefresh = "refresh"
)

// TokenPair is an access+refresh token set issued after a successful login
// or sign-up completion.
type TokenPair struct {
	Access  string
	Refresh string
}

// TokenService signs and verifies the JWT pairs.
//
// It holds the HMAC secret key used to sign and verify tokens. The same
// secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims (Issuer, Subject,
// ExpiresAt, IssuedAt) and adds a token type so a refresh token can never be
// replayed as an access credential.
type claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// GeneratePair creates and signs a fresh access+refresh token pair for the
// given userID. The "sub" claim carries the internal user ID.
func (s *TokenService) GeneratePair(userID string) (*TokenPair, error) {
	access, err := s.generate(userID, typeAccess, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generate(userID, typeRefresh, refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) generate(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing %s token: %w", tokenType, err)
	}

	return signed, nil
}

// ValidateAccess parses and verifies an access token string.
// Returns the userID (the "sub" claim) if the token is valid.
//
// VALIDATION CHECKS (performed by the jwt library plus our type check):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired
//   - Issuer matches (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//   - Token type is "access" (a refresh token is rejected here)
func (s *TokenService) ValidateAccess(tokenStr string) (string, error) {
	return s.validate(tokenStr, typeAccess)
}

// ValidateRefresh verifies a refresh token and returns its userID.
// Access tokens are rejected, mirroring ValidateAccess.
func (s *TokenService) ValidateRefresh(tokenStr string) (string, error) {
	return s.validate(tokenStr, typeRefresh)
}

func (s *TokenService) validate(tokenStr, wantType string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.TokenType != wantType {
		return "", fmt.Errorf("auth: token type %q, want %q", c.TokenType, wantType)
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
