package auth

import (
	"strings"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService with a fixed, known secret so
// tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestGeneratePair_ReturnsBothTokens(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.GeneratePair("user-123")
	if err != nil {
		t.Fatalf("GeneratePair() error = %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("GeneratePair() returned empty token: access=%q refresh=%q", pair.Access, pair.Refresh)
	}
	if pair.Access == pair.Refresh {
		t.Error("GeneratePair() access and refresh tokens are identical")
	}

	// JWTs have 3 dot-separated parts: header.payload.signature
	for _, tok := range []string{pair.Access, pair.Refresh} {
		if strings.Count(tok, ".") != 2 {
			t.Errorf("token %q doesn't look like a JWT", tok)
		}
	}
}

func TestValidateAccess_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.GeneratePair("user-abc")
	if err != nil {
		t.Fatalf("GeneratePair() error = %v", err)
	}

	userID, err := ts.ValidateAccess(pair.Access)
	if err != nil {
		t.Fatalf("ValidateAccess() error = %v", err)
	}
	if userID != "user-abc" {
		t.Errorf("ValidateAccess() userID = %q, want %q", userID, "user-abc")
	}
}

func TestValidateAccess_RejectsRefreshToken(t *testing.T) {
	ts := newTestTokenService(t)

	pair, _ := ts.GeneratePair("user-abc")

	if _, err := ts.ValidateAccess(pair.Refresh); err == nil {
		t.Error("ValidateAccess() accepted a refresh token")
	}
	if _, err := ts.ValidateRefresh(pair.Access); err == nil {
		t.Error("ValidateRefresh() accepted an access token")
	}
}

func TestValidateRefresh_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	pair, _ := ts.GeneratePair("user-xyz")

	userID, err := ts.ValidateRefresh(pair.Refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh() error = %v", err)
	}
	if userID != "user-xyz" {
		t.Errorf("ValidateRefresh() userID = %q, want %q", userID, "user-xyz")
	}
}

func TestValidateAccess_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	// generate directly with a negative TTL to produce an already-expired token
	tok, err := ts.generate("user-abc", typeAccess, -time.Minute)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}

	if _, err := ts.ValidateAccess(tok); err == nil {
		t.Error("ValidateAccess() accepted an expired token")
	}
}

func TestValidateAccess_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)
	other, _ := NewTokenService("another-secret-16-chars-long!!!")

	pair, _ := other.GeneratePair("user-abc")

	if _, err := ts.ValidateAccess(pair.Access); err == nil {
		t.Error("ValidateAccess() accepted a token signed with a different secret")
	}

	if _, err := ts.ValidateAccess("not.a.jwt"); err == nil {
		t.Error("ValidateAccess() accepted garbage input")
	}
}
