package requester

import (
	"net/http"

	"github.com/brizzai/codetrack/internal/credential"
	"golang.org/x/oauth2"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// BearerAuth attaches the current credential from the store, if any.
type BearerAuth struct {
	store credential.Store
}

func NewBearerAuth(store credential.Store) *BearerAuth {
	return &BearerAuth{store: store}
}

// ApplyAuth sets "Authorization: Bearer <credential>". An empty store leaves the
// request anonymous, which is a valid state rather than an error.
func (a *BearerAuth) ApplyAuth(req *http.Request) error {
	token := a.store.Get()
	if token == "" {
		req.Header.Del("Authorization")
		return nil
	}
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	return nil
}
