package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msb-blog/apiserver/types"
)

// CookieName is the session cookie set on successful login.
const CookieName = "msb_session"

const defaultSessionTTL = 24 * time.Hour

// ErrInvalidSession is returned when a session token is absent, expired
// or fails signature verification.
var ErrInvalidSession = errors.New("invalid session")

type sessionClaims struct {
	Handle string `json:"handle"`
	jwt.RegisteredClaims
}

// Sessions issues and validates the signed session tokens. Trust is
// derived purely from signature validity; there is no server-side
// session table.
type Sessions struct {
	secret []byte
	ttl    time.Duration
}

// NewSessions constructs a session codec signing with the given secret.
func NewSessions(secret string) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		ttl:    defaultSessionTTL,
	}
}

// Issue signs a token carrying the identity payload.
func (s *Sessions) Issue(id types.Identity) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Handle: id.Handle,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates a token and recovers the identity it carries.
func (s *Sessions) Parse(tokenString string) (types.Identity, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return types.Identity{}, ErrInvalidSession
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return types.Identity{}, ErrInvalidSession
	}
	return types.Identity{Email: claims.Subject, Handle: claims.Handle}, nil
}

// Cookie wraps a signed token in the session cookie.
func (s *Sessions) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest extracts and validates the session cookie of a request.
func (s *Sessions) FromRequest(r *http.Request) (types.Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return types.Identity{}, ErrInvalidSession
	}
	return s.Parse(cookie.Value)
}
