package session

import (
	"net/url"
)

// TokenParam is the query parameter an SSO redirect delivers the credential in.
const TokenParam = "token"

// ConsumeRedirect extracts the credential from u and returns a copy of u
// without it, so the credential does not linger in history or logs. A nil u
// yields an empty token and a nil URL.
func ConsumeRedirect(u *url.URL) (string, *url.URL) {
	if u == nil {
		return "", nil
	}
	cleaned := *u
	query := cleaned.Query()
	token := query.Get(TokenParam)
	if !query.Has(TokenParam) {
		return "", &cleaned
	}
	query.Del(TokenParam)
	cleaned.RawQuery = query.Encode()
	return token, &cleaned
}
