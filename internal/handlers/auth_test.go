package handlers_test

import (
	"net/http"
	"testing"

	"github.com/msb-blog/apiserver/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/v1/users/login", map[string]any{
		"email":    "a@b.com",
		"password": "secret",
	}, false)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decodeBody(t, w)
	assert.Equal(t, "a@b.com", view["email"])
	assert.Equal(t, "abz", view["handle"])
	assert.NotContains(t, view, "password")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	identity, err := env.sessions.Parse(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", identity.Email)
}

func TestLoginBadPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/v1/users/login", map[string]any{
		"email":    "a@b.com",
		"password": "wrong",
	}, false)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"Bad email/password."}, decodeBody(t, w)["errors"])
	assert.Empty(t, w.Result().Cookies())
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/v1/users/login", map[string]any{
		"email":    "nobody@b.com",
		"password": "secret",
	}, false)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"Bad email/password."}, decodeBody(t, w)["errors"])
}

func TestLoginMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/v1/users/login", "not an object", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
