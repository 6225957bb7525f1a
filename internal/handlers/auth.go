package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/msb-blog/apiserver/internal/auth"
	"github.com/msb-blog/apiserver/internal/services"
)

const badCredentialsMessage = "Bad email/password."

// AuthHandler provides the session login endpoint.
type AuthHandler struct {
	userService *services.UserService
	sessions    *auth.Sessions
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, sessions *auth.Sessions) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
	}
}

// AuthRouter registers the login route on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, sessions *auth.Sessions) {
	handler := NewAuthHandler(userService, sessions)

	r.Post("/v1/users/login", handler.Login)
}

// RequireSession gates protected operations. A missing or invalid
// session cookie is rejected before the request body has any effect,
// and a valid one injects the identity into the request context.
func RequireSession(sessions *auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := sessions.FromRequest(r)
			if err != nil {
				writeErrors(w, http.StatusUnauthorized, "Must be logged in.")
				return
			}
			ctx := context.WithValue(r.Context(), contextIdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and establishes a session cookie. Unknown
// email and wrong password produce the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, ok, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}
	if !ok {
		writeErrors(w, http.StatusBadRequest, badCredentialsMessage)
		return
	}

	token, err := h.sessions.Issue(identity)
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, h.sessions.Cookie(token))
	writeJSON(w, http.StatusOK, identity)
}
