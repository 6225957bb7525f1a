package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/msb-blog/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	sessions := NewSessions("test-secret")
	identity := types.Identity{Email: "a@b.com", Handle: "abz"}

	token, err := sessions.Issue(identity)
	require.NoError(t, err)

	parsed, err := sessions.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, identity, parsed)
}

func TestSessionRejectsTamperedToken(t *testing.T) {
	sessions := NewSessions("test-secret")

	token, err := sessions.Issue(types.Identity{Email: "a@b.com", Handle: "abz"})
	require.NoError(t, err)

	_, err = sessions.Parse(token + "x")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionRejectsForeignSecret(t *testing.T) {
	token, err := NewSessions("one-secret").Issue(types.Identity{Email: "a@b.com", Handle: "abz"})
	require.NoError(t, err)

	_, err = NewSessions("other-secret").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestFromRequest(t *testing.T) {
	sessions := NewSessions("test-secret")
	identity := types.Identity{Email: "a@b.com", Handle: "abz"}

	token, err := sessions.Issue(identity)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessions.Cookie(token))

	parsed, err := sessions.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, identity, parsed)
}

func TestFromRequestWithoutCookie(t *testing.T) {
	sessions := NewSessions("test-secret")

	_, err := sessions.FromRequest(httptest.NewRequest("GET", "/", nil))
	assert.ErrorIs(t, err, ErrInvalidSession)
}
