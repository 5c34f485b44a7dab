package requester

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/brizzai/codetrack/internal/logger"
	"go.uber.org/zap"
)

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PersistentJar keeps the backend's cookies (the long-lived refresh marker)
// across CLI runs. Only cookies set by the backend host are saved.
type PersistentJar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	path    string
	backend *url.URL
	saved   map[string]string
}

// NewPersistentJar loads previously saved cookies for backend from path.
// An empty path gives an in-memory jar.
func NewPersistentJar(path string, backend *url.URL) (*PersistentJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	j := &PersistentJar{
		jar:     jar,
		path:    path,
		backend: &url.URL{Scheme: backend.Scheme, Host: backend.Host, Path: "/"},
		saved:   make(map[string]string),
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	if u.Host != j.backend.Host {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(j.saved, c.Name)
			continue
		}
		j.saved[c.Name] = c.Value
	}
	if err := j.save(); err != nil {
		logger.Warn("Failed to persist session cookies", zap.String("path", j.path), zap.Error(err))
	}
}

func (j *PersistentJar) load() error {
	if j.path == "" {
		return nil
	}
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cookie file: %w", err)
	}

	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		logger.Warn("Ignoring unreadable cookie file", zap.String("path", j.path), zap.Error(err))
		return nil
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		j.saved[c.Name] = c.Value
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	j.jar.SetCookies(j.backend, cookies)
	return nil
}

// save must be called with mu held.
func (j *PersistentJar) save() error {
	if j.path == "" {
		return nil
	}
	out := make([]savedCookie, 0, len(j.saved))
	for name, value := range j.saved {
		out = append(out, savedCookie{Name: name, Value: value})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })

	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0o600)
}
