package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brizzai/codetrack/internal/api"
	"github.com/brizzai/codetrack/internal/config"
	"github.com/brizzai/codetrack/internal/platform"
	"github.com/brizzai/codetrack/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	return &config.Config{
		Backend: config.BackendConfig{
			BaseURL:   baseURL,
			Timeout:   5 * time.Second,
			UserAgent: "codetrack-test",
		},
		Session: config.SessionConfig{
			CookieFile: filepath.Join(t.TempDir(), "cookies.json"),
		},
		Breaker: config.BreakerConfig{
			MaxRequests:  1,
			Timeout:      time.Minute,
			FailureRatio: 0.5,
			MinRequests:  5,
		},
		Server: config.ServerConfig{Mode: config.ServerModeSTDIO, Name: "codetrack", Version: "test"},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_Graph(t *testing.T) {
	a, err := New(testConfig(t, "http://localhost:1/api"))
	require.NoError(t, err)

	assert.NotNil(t, a.Session)
	assert.NotNil(t, a.Workflow)
	assert.NotNil(t, a.Registry)
	assert.NotNil(t, a.Requester)
	assert.NotNil(t, a.Server)
	assert.Equal(t, session.Initializing, a.Session.State())
}

func TestNew_InvalidAPISpec(t *testing.T) {
	cfg := testConfig(t, "http://localhost:1/api")
	cfg.Backend.APISpecFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(cfg)
	assert.Error(t, err)
}

// A refused refresh ends the session and forgets every platform link.
func TestNew_ExpiredSessionClearsLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "T1"})
	})
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "refresh token expired"})
	})
	mux.HandleFunc("GET /api/platforms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "jwt expired"})
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	a, err := New(testConfig(t, backend.URL+"/api"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Session.Login(ctx, "alice@example.com", "correct horse"))
	a.Registry.Set(platform.GitHub, platform.Verified{Username: "alice"})

	_, err = a.Workflow.Load(ctx)
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	assert.Equal(t, session.Anonymous, a.Session.State())
	assert.Equal(t, platform.StatusUnlinked, a.Registry.Get(platform.GitHub).Status())
}

func TestNew_LogoutClearsLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	a, err := New(testConfig(t, backend.URL+"/api"))
	require.NoError(t, err)

	a.Session.Adopt("T1")
	a.Registry.Set(platform.LeetCode, platform.Pending{Username: "alice", Code: "AB12CD"})

	a.Session.Logout(context.Background())
	assert.Equal(t, session.Anonymous, a.Session.State())
	assert.Equal(t, platform.StatusUnlinked, a.Registry.Get(platform.LeetCode).Status())
}

// A credential renewed by the requester makes the session authenticated again.
func TestNew_RefreshRenewsSession(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		if refreshes.Add(1) == 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "no refresh token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "T2"})
	})
	mux.HandleFunc("GET /api/platforms", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "jwt expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"platforms": map[string]any{}})
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	a, err := New(testConfig(t, backend.URL+"/api"))
	require.NoError(t, err)

	ctx := context.Background()
	state, _ := a.Session.Init(ctx, nil)
	require.Equal(t, session.Anonymous, state)
	require.False(t, a.Session.Active())

	_, err = a.Workflow.Load(ctx)
	require.NoError(t, err)

	assert.True(t, a.Session.Active())
	assert.Equal(t, session.Authenticated, a.Session.State())
}
