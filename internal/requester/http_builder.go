package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	headerRequestID   = "X-Request-ID"
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	headerUserAgent   = "User-Agent"
	contentTypeJSON   = "application/json"
)

// HTTPRequestBuilder turns a Call into an *http.Request against the backend.
type HTTPRequestBuilder struct {
	baseURL   string
	userAgent string
}

func NewHTTPRequestBuilder(baseURL, userAgent string) *HTTPRequestBuilder {
	return &HTTPRequestBuilder{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
	}
}

// BuildRequest builds a request for the call. Authentication is applied by the
// requester so that a replay always picks up the latest credential.
func (b *HTTPRequestBuilder) BuildRequest(ctx context.Context, call Call) (*http.Request, error) {
	if call.Route.Method == "" || call.Route.Path == "" {
		return nil, fmt.Errorf("route for %q is incomplete", call.Route.OperationID)
	}

	path, err := b.buildPath(call.Route.Path, call.PathParams)
	if err != nil {
		return nil, err
	}

	body, err := b.createRequestBody(call.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, call.Route.Method, b.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set(headerAccept, contentTypeJSON)
	httpReq.Header.Set(headerRequestID, uuid.NewString())
	if b.userAgent != "" {
		httpReq.Header.Set(headerUserAgent, b.userAgent)
	}
	if call.Body != nil {
		httpReq.Header.Set(headerContentType, contentTypeJSON)
	}

	return httpReq, nil
}

// buildPath substitutes {name} placeholders with escaped values.
func (b *HTTPRequestBuilder) buildPath(path string, params map[string]string) (string, error) {
	for key, value := range params {
		placeholder := "{" + key + "}"
		if !strings.Contains(path, placeholder) {
			return "", fmt.Errorf("path %s has no parameter %q", path, key)
		}
		path = strings.ReplaceAll(path, placeholder, url.PathEscape(value))
	}
	if strings.Contains(path, "{") {
		return "", fmt.Errorf("path %s has unresolved parameters", path)
	}
	return path, nil
}

func (b *HTTPRequestBuilder) createRequestBody(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(jsonData), nil
}
