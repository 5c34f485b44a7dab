package requester

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/brizzai/codetrack/internal/apispec"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRequestBuilder_BuildRequest(t *testing.T) {
	tests := []struct {
		name         string
		call         Call
		wantErr      bool
		checkRequest func(t *testing.T, req *http.Request)
	}{
		{
			name: "GET without body",
			call: Call{Route: apispec.Route{OperationID: "listPlatforms", Method: http.MethodGet, Path: "/platforms"}},
			checkRequest: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "http://api.example.com/api/platforms", req.URL.String())
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Empty(t, req.Header.Get("Content-Type"))
				assert.Equal(t, "application/json", req.Header.Get("Accept"))
				assert.Equal(t, "codetrack/test", req.Header.Get("User-Agent"))
				_, err := uuid.Parse(req.Header.Get("X-Request-ID"))
				assert.NoError(t, err)
				assert.Nil(t, req.Body)
			},
		},
		{
			name: "POST with JSON body",
			call: Call{
				Route: apispec.Route{OperationID: "startVerification", Method: http.MethodPost, Path: "/platforms/verify/start"},
				Body:  map[string]string{"platform": "github", "username": "alice"},
			},
			checkRequest: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
				body, err := io.ReadAll(req.Body)
				require.NoError(t, err)
				assert.JSONEq(t, `{"platform":"github","username":"alice"}`, string(body))
			},
		},
		{
			name: "path parameter is escaped",
			call: Call{
				Route:      apispec.Route{OperationID: "refreshPlatform", Method: http.MethodPut, Path: "/platforms/{platform}/refresh"},
				PathParams: map[string]string{"platform": "a/b c"},
			},
			checkRequest: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "/api/platforms/a%2Fb%20c/refresh", req.URL.EscapedPath())
			},
		},
		{
			name: "unresolved path parameter",
			call: Call{
				Route: apispec.Route{OperationID: "disconnectPlatform", Method: http.MethodDelete, Path: "/platforms/{platform}"},
			},
			wantErr: true,
		},
		{
			name: "unknown path parameter",
			call: Call{
				Route:      apispec.Route{OperationID: "listPlatforms", Method: http.MethodGet, Path: "/platforms"},
				PathParams: map[string]string{"platform": "github"},
			},
			wantErr: true,
		},
		{
			name:    "incomplete route",
			call:    Call{Route: apispec.Route{OperationID: "ghost"}},
			wantErr: true,
		},
	}

	builder := NewHTTPRequestBuilder("http://api.example.com/api/", "codetrack/test")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := builder.BuildRequest(context.Background(), tt.call)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.checkRequest(t, req)
		})
	}
}

func TestBearerAuth_ApplyAuth(t *testing.T) {
	store := &stubStore{}
	auth := NewBearerAuth(store)

	req, err := http.NewRequest(http.MethodGet, "http://api.example.com", nil)
	require.NoError(t, err)
	require.NoError(t, auth.ApplyAuth(req))
	assert.Empty(t, req.Header.Get("Authorization"))

	store.token = "T1"
	require.NoError(t, auth.ApplyAuth(req))
	assert.Equal(t, "Bearer T1", req.Header.Get("Authorization"))

	// A replayed request must carry the credential current at send time.
	store.token = "T2"
	require.NoError(t, auth.ApplyAuth(req))
	assert.Equal(t, "Bearer T2", req.Header.Get("Authorization"))

	store.token = ""
	require.NoError(t, auth.ApplyAuth(req))
	assert.Empty(t, req.Header.Get("Authorization"))
}

type stubStore struct{ token string }

func (s *stubStore) Get() string      { return s.token }
func (s *stubStore) Set(token string) { s.token = token }
func (s *stubStore) Clear()           { s.token = "" }
