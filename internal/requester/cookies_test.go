package requester

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentJar(t *testing.T) {
	backend, err := url.Parse("http://127.0.0.1:3000/api")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cookies.json")

	jar, err := NewPersistentJar(path, backend)
	require.NoError(t, err)

	loginURL, _ := url.Parse("http://127.0.0.1:3000/api/auth/login")
	jar.SetCookies(loginURL, []*http.Cookie{{Name: "refreshToken", Value: "R1", Path: "/api/auth"}})

	other, _ := url.Parse("http://tracker.example.com/")
	jar.SetCookies(other, []*http.Cookie{{Name: "foreign", Value: "x"}})

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := NewPersistentJar(path, backend)
	require.NoError(t, err)
	refreshURL, _ := url.Parse("http://127.0.0.1:3000/api/auth/refresh-token")
	cookies := reloaded.Cookies(refreshURL)
	require.Len(t, cookies, 1)
	assert.Equal(t, "refreshToken", cookies[0].Name)
	assert.Equal(t, "R1", cookies[0].Value)

	// Logout expires the cookie, which drops it from disk too.
	reloaded.SetCookies(loginURL, []*http.Cookie{{Name: "refreshToken", Value: "", Path: "/api/auth", MaxAge: -1}})
	again, err := NewPersistentJar(path, backend)
	require.NoError(t, err)
	assert.Empty(t, again.Cookies(refreshURL))
}

func TestPersistentJar_InMemory(t *testing.T) {
	backend, _ := url.Parse("http://127.0.0.1:3000")
	jar, err := NewPersistentJar("", backend)
	require.NoError(t, err)

	jar.SetCookies(backend, []*http.Cookie{{Name: "refreshToken", Value: "R1"}})
	assert.Len(t, jar.Cookies(backend), 1)
}

func TestPersistentJar_CorruptFileIgnored(t *testing.T) {
	backend, _ := url.Parse("http://127.0.0.1:3000")
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	jar, err := NewPersistentJar(path, backend)
	require.NoError(t, err)
	assert.Empty(t, jar.Cookies(backend))
}
