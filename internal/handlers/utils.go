package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/msb-blog/apiserver/types"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

// ErrorsResponse is the JSON error envelope every failure is converted
// to at the route boundary.
type ErrorsResponse struct {
	Errors []string `json:"errors"`
}

func identityFromContext(ctx context.Context) (types.Identity, error) {
	identity, ok := ctx.Value(contextIdentityKey).(types.Identity)
	if !ok {
		return types.Identity{}, errors.New("missing identity")
	}
	return identity, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeErrors(w http.ResponseWriter, status int, messages ...string) {
	writeJSON(w, status, ErrorsResponse{Errors: messages})
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AllowAllOrigins stamps the permissive CORS header on every response.
// It replaces the per-view header decorator of earlier incarnations
// with one explicit middleware link.
func AllowAllOrigins(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}
