package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/passcode-login/internal/auth"
	"github.com/sakif/passcode-login/internal/service"
)

// LoginHandler exposes the passwordless flow over HTTP.
//
// ENDPOINTS:
//   - HandleRequestCode  → POST /api/request-code   {email}
//   - HandleVerifyCode   → POST /api/verify-code    {email, code}
//   - HandleSignUp       → POST /api/sign-up        {email, first_name?, last_name?, password?}
//   - HandleActiveUser   → GET  /api/active-user    (behind auth middleware)
//
// The handler owns only HTTP concerns: decode the body, call the service,
// pick the status code, build the next-step URL hint. All decision logic
// lives in service.LoginService.
type LoginHandler struct {
	login   *service.LoginService
	baseURL string // optional absolute base for *_url hints; falls back to the request host
	logger  *slog.Logger
}

// NewLoginHandler creates a LoginHandler. baseURL may be empty, in which
// case hint URLs are derived from each request's Host header.
func NewLoginHandler(login *service.LoginService, baseURL string, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		login:   login,
		baseURL: baseURL,
		logger:  logger,
	}
}

type requestCodeRequest struct {
	Email string `json:"email"`
}

type requestCodeResponse struct {
	Message   string `json:"message"`
	VerifyURL string `json:"verify_url"`
}

// HandleRequestCode handles POST /api/request-code.
//
// 201 on success — a user row may have been created as a side effect, so
// Created is the honest status. The response carries the URL of the next
// step rather than making the client hardcode it.
func (h *LoginHandler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.login.RequestCode(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, requestCodeResponse{
		Message:   result.Message,
		VerifyURL: h.absoluteURL(r, "/verify-code/"),
	})
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type tokenResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	VerifyURL    string `json:"verify_url"`
}

type signupRequiredResponse struct {
	Message   string `json:"message"`
	VerifyURL string `json:"verify_url"`
}

// HandleVerifyCode handles POST /api/verify-code.
//
// TWO SUCCESS SHAPES:
// An active account gets a 302 whose body carries the token pair and a hint
// to the home page (the 302 has no Location header — clients follow the
// verify_url field, a quirk kept from day one). An inactive account gets a
// plain 200 telling the client to take the user to sign-up.
func (h *LoginHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.login.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Outcome == service.VerifiedNewUser {
		writeJSON(w, http.StatusOK, signupRequiredResponse{
			Message:   result.Message,
			VerifyURL: h.absoluteURL(r, "/sign-up/"),
		})
		return
	}

	writeJSON(w, http.StatusFound, tokenResponse{
		Message:      result.Message,
		AccessToken:  result.Tokens.Access,
		RefreshToken: result.Tokens.Refresh,
		VerifyURL:    h.absoluteURL(r, "/home/"),
	})
}

type signUpRequest struct {
	Email     string  `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`
}

// HandleSignUp handles POST /api/sign-up.
//
// Pointer fields distinguish "absent" from "empty": an omitted first_name
// keeps the stored value, an explicit "" clears it. The email must belong
// to an existing, still-inactive row — routing here before verify-code is a
// caller mistake the service rejects.
func (h *LoginHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.login.CompleteSignUp(r.Context(), service.SignUpInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Message:      result.Message,
		AccessToken:  result.Tokens.Access,
		RefreshToken: result.Tokens.Refresh,
		VerifyURL:    h.absoluteURL(r, "/home/"),
	})
}

// HandleActiveUser handles GET /api/active-user.
//
// Auth: required (RequireAuth middleware validated the access token and put
// the userID in the context). The service additionally checks the account
// still exists and is active — a token can outlive either. Repeated calls
// for the same user always produce the same body shape.
func (h *LoginHandler) HandleActiveUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't depend on wiring.
		writeJSON(w, http.StatusForbidden, messageResponse{
			Message: "Authentication credentials were not provided or are invalid.",
		})
		return
	}

	user, err := h.login.ActiveUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("User %s is active.", user.Email),
	})
}

// decode reads a JSON body into dst, writing a 400 and returning false on
// malformed input.
func (h *LoginHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.logger.Debug("malformed request body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Malformed JSON body."})
		return false
	}
	return true
}

// absoluteURL builds the next-step hint URL the way the original flow did:
// from a configured base when present, otherwise from the incoming request.
func (h *LoginHandler) absoluteURL(r *http.Request, path string) string {
	if h.baseURL != "" {
		return h.baseURL + path
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, r.Host, path)
}
