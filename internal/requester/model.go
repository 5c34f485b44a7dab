package requester

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brizzai/codetrack/internal/apispec"
)

// Attempt records whether a call has already been replayed after a refresh.
type Attempt int

const (
	// Fresh calls may trigger one refresh-and-replay cycle.
	Fresh Attempt = iota
	// RetriedOnce calls surface an authorization failure unchanged.
	RetriedOnce
)

func (a Attempt) String() string {
	switch a {
	case Fresh:
		return "fresh"
	case RetriedOnce:
		return "retried_once"
	default:
		return fmt.Sprintf("attempt(%d)", int(a))
	}
}

// Call is a single backend operation. It is passed by value so the replay
// state travels with the call instead of living on a shared request object.
type Call struct {
	Route      apispec.Route
	PathParams map[string]string
	Body       any

	attempt Attempt
}

// Attempt reports the call's replay state.
func (c Call) Attempt() Attempt {
	return c.attempt
}

func (c Call) retried() Call {
	c.attempt = RetriedOnce
	return c
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals a JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
