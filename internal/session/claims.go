package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when an operation needs an active session.
var ErrNoSession = errors.New("not logged in")

// Identity is what the client can read from its own credential. The
// signature is not checked: the backend is the only authority, and these
// fields are for display only.
type Identity struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Identity decodes the current credential. Credentials that are not JWTs
// yield an empty Identity.
func (c *Controller) Identity() (Identity, error) {
	token := c.store.Get()
	if token == "" {
		return Identity{}, ErrNoSession
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, nil
	}

	var id Identity
	id.Subject, _ = claims.GetSubject()
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	if id.Subject == "" {
		// The tracker backend signs {id, email}.
		if uid, ok := claims["id"].(string); ok {
			id.Subject = uid
		}
	}
	return id, nil
}
