package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
)

// DefaultSessionContextKey is where auth middleware stores the parsed JWT.
const DefaultSessionContextKey = "session"

// SessionObject holds the attributes of an authenticated session.
type SessionObject struct {
	UserID   string         `json:"user_id,omitempty"`
	Audience []string       `json:"audience,omitempty"`
	Issuer   string         `json:"issuer,omitempty"`
	IssuedAt *time.Time     `json:"issued_at,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// GetRouterSession extracts the session stored in the request locals by an
// upstream JWT middleware.
func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	cookie := c.Locals(key)
	if cookie == nil {
		return nil, ErrUnableToFindSession
	}

	token, ok := cookie.(*jwt.Token)
	if token == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToMapClaims
	}

	return sessionFromClaims(claims)
}

// IsAnonymousRequest reports whether the request carries no usable session.
// Self registration is only open to anonymous callers.
func IsAnonymousRequest(c router.Context, key string) bool {
	session, err := GetRouterSession(c, key)
	if err != nil {
		return true
	}
	return session.UserID == ""
}

func sessionFromClaims(claims jwt.MapClaims) (*SessionObject, error) {
	session := &SessionObject{}

	if sub, err := claims.GetSubject(); err == nil {
		session.UserID = sub
	}

	if iss, err := claims.GetIssuer(); err == nil {
		session.Issuer = iss
	}

	if aud, err := claims.GetAudience(); err == nil {
		session.Audience = aud
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		session.IssuedAt = &iat.Time
	}

	if data, ok := claims["data"].(map[string]any); ok {
		session.Data = data
	}

	return session, nil
}
