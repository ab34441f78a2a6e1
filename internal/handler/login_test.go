package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/passcode-login/internal/apperror"
	"github.com/sakif/passcode-login/internal/auth"
	"github.com/sakif/passcode-login/internal/handler"
	"github.com/sakif/passcode-login/internal/model"
	"github.com/sakif/passcode-login/internal/service"
)

// memoryRepo is a minimal in-memory UserRepository for handler tests.
type memoryRepo struct {
	users map[string]*model.User // by email
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]*model.User)}
}

func (m *memoryRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = "id-" + user.Email
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[user.Email] = user
	return nil
}

func (m *memoryRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	copied := *u
	return &copied, nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (m *memoryRepo) Update(ctx context.Context, user *model.User) error {
	stored, ok := m.users[user.Email]
	if !ok {
		return apperror.NotFound("user", user.ID)
	}
	*stored = *user
	return nil
}

// captureMailer records outgoing mail instead of sending it.
type captureMailer struct {
	bodies []string
}

func (c *captureMailer) Send(ctx context.Context, to, subject, body string) error {
	c.bodies = append(c.bodies, body)
	return nil
}

// testPasscodes uses bcrypt's minimum cost so each request doesn't burn
// ~250ms on hashing.
var testPasscodes = auth.NewPasscodeServiceForTest(4)

func newTestHandler(t *testing.T, repo *memoryRepo, mail *captureMailer) *handler.LoginHandler {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := service.NewLoginService(repo, tokens, testPasscodes, mail, logger)
	return handler.NewLoginHandler(svc, "http://testserver", logger)
}

// seedVerifiedUser stores a user whose current code is "12345678", issued now.
func seedVerifiedUser(t *testing.T, repo *memoryRepo, email string, active bool) {
	t.Helper()
	hash, err := testPasscodes.Hash("12345678")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	now := time.Now()
	repo.users[email] = &model.User{
		ID:            "id-" + email,
		Email:         email,
		IsActive:      active,
		SecretHash:    hash,
		CodeCreatedAt: &now,
	}
}

func postJSON(h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestHandleRequestCode(t *testing.T) {
	t.Run("valid email", func(t *testing.T) {
		repo := newMemoryRepo()
		mail := &captureMailer{}
		h := newTestHandler(t, repo, mail)

		rr := postJSON(h.HandleRequestCode, "/api/request-code", `{"email":"testuser@example.com"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var res map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "A code has been sent to your email.", res["message"])
		assert.Equal(t, "http://testserver/verify-code/", res["verify_url"])

		user, ok := repo.users["testuser@example.com"]
		if assert.True(t, ok, "user row should have been created") {
			assert.False(t, user.IsActive)
			assert.NotEmpty(t, user.SecretHash)
			assert.NotNil(t, user.CodeCreatedAt)
		}
		assert.Len(t, mail.bodies, 1)
	})

	t.Run("invalid email", func(t *testing.T) {
		repo := newMemoryRepo()
		h := newTestHandler(t, repo, &captureMailer{})

		rr := postJSON(h.HandleRequestCode, "/api/request-code", `{"email":"invalid-email"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "email", res["field"])
		assert.Empty(t, repo.users)
	})

	t.Run("malformed body", func(t *testing.T) {
		h := newTestHandler(t, newMemoryRepo(), &captureMailer{})

		rr := postJSON(h.HandleRequestCode, "/api/request-code", `{"email":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleVerifyCode(t *testing.T) {
	t.Run("active user gets token pair", func(t *testing.T) {
		repo := newMemoryRepo()
		h := newTestHandler(t, repo, &captureMailer{})
		seedVerifiedUser(t, repo, "testuser@example.com", true)

		rr := postJSON(h.HandleVerifyCode, "/api/verify-code",
			`{"email":"testuser@example.com","code":"12345678"}`)

		assert.Equal(t, http.StatusFound, rr.Code)

		var res map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "Login successful, redirecting to home", res["message"])
		assert.NotEmpty(t, res["access_token"])
		assert.NotEmpty(t, res["refresh_token"])
		assert.Equal(t, "http://testserver/home/", res["verify_url"])
	})

	t.Run("inactive user is sent to sign-up", func(t *testing.T) {
		repo := newMemoryRepo()
		h := newTestHandler(t, repo, &captureMailer{})
		seedVerifiedUser(t, repo, "testuser@example.com", false)

		rr := postJSON(h.HandleVerifyCode, "/api/verify-code",
			`{"email":"testuser@example.com","code":"12345678"}`)

		assert.Equal(t, http.StatusOK, rr.Code)

		var res map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "New user, redirecting to signup.", res["message"])
		assert.Equal(t, "http://testserver/sign-up/", res["verify_url"])
		assert.Empty(t, res["access_token"])
	})

	t.Run("wrong code", func(t *testing.T) {
		repo := newMemoryRepo()
		h := newTestHandler(t, repo, &captureMailer{})
		seedVerifiedUser(t, repo, "testuser@example.com", true)

		rr := postJSON(h.HandleVerifyCode, "/api/verify-code",
			`{"email":"testuser@example.com","code":"87654321"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "Invalid email or code.", res["error"])
	})

	t.Run("unknown email gets the same message", func(t *testing.T) {
		h := newTestHandler(t, newMemoryRepo(), &captureMailer{})

		rr := postJSON(h.HandleVerifyCode, "/api/verify-code",
			`{"email":"wrongemail@example.com","code":"12345678"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "Invalid email or code.", res["error"])
	})

	t.Run("expired code", func(t *testing.T) {
		repo := newMemoryRepo()
		h := newTestHandler(t, repo, &captureMailer{})
		seedVerifiedUser(t, repo, "testuser@example.com", true)
		stale := time.Now().Add(-3 * time.Minute)
		repo.users["testuser@example.com"].CodeCreatedAt = &stale

		rr := postJSON(h.HandleVerifyCode, "/api/verify-code",
			`{"email":"testuser@example.com","code":"12345678"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "The code has expired. Please request a new code.", res["error"])
	})
}

func TestHandleSignUp(t *testing.T) {
	t.Run("already active", func(t *testing.T) {
		repo := newMemoryRepo()
		h := newTestHandler(t, repo, &captureMailer{})
		seedVerifiedUser(t, repo, "testuser@example.com", true)

		rr := postJSON(h.HandleSignUp, "/api/sign-up", `{"email":"testuser@example.com"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error": "User is already active."}`, rr.Body.String())
	})

	t.Run("unknown user", func(t *testing.T) {
		h := newTestHandler(t, newMemoryRepo(), &captureMailer{})

		rr := postJSON(h.HandleSignUp, "/api/sign-up", `{"email":"nonexistent@example.com"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "User does not exist.", res["error"])
	})

	t.Run("successful sign-up", func(t *testing.T) {
		repo := newMemoryRepo()
		h := newTestHandler(t, repo, &captureMailer{})
		seedVerifiedUser(t, repo, "testuser@example.com", false)

		rr := postJSON(h.HandleSignUp, "/api/sign-up",
			`{"email":"testuser@example.com","first_name":"Test","last_name":"User"}`)

		assert.Equal(t, http.StatusOK, rr.Code)

		var res map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "Login successful, redirecting to home", res["message"])
		assert.NotEmpty(t, res["access_token"])
		assert.NotEmpty(t, res["refresh_token"])

		user := repo.users["testuser@example.com"]
		assert.True(t, user.IsActive)
		assert.Equal(t, "Test", user.FirstName)
		assert.Equal(t, "User", user.LastName)
	})
}
