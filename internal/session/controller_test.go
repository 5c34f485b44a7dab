package session

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brizzai/codetrack/internal/api"
	"github.com/brizzai/codetrack/internal/credential"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	loginToken string
	loginErr   error
	logoutErr  error
	calls      []string
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (string, error) {
	f.calls = append(f.calls, "login "+email)
	return f.loginToken, f.loginErr
}

func (f *fakeAuth) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	return f.logoutErr
}

func (f *fakeAuth) Signup(_ context.Context, email, _ string) (string, error) {
	f.calls = append(f.calls, "signup "+email)
	return "OTP sent", nil
}

func (f *fakeAuth) VerifyOTP(_ context.Context, email, otp string) (string, error) {
	f.calls = append(f.calls, "verify "+email+" "+otp)
	return "verified", nil
}

func (f *fakeAuth) ResendOTP(_ context.Context, email string) (string, error) {
	f.calls = append(f.calls, "resend "+email)
	return "resent", nil
}

// fakeRefresher behaves like the requester: on success it stores the token.
type fakeRefresher struct {
	store credential.Store
	token string
	err   error
	calls atomic.Int32
}

func (f *fakeRefresher) Refresh(context.Context) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	f.store.Set(f.token)
	return f.token, nil
}

func newTestController(auth *fakeAuth, refreshToken string, refreshErr error) (*Controller, *credential.MemoryStore, *fakeRefresher) {
	store := credential.NewMemoryStore()
	refresher := &fakeRefresher{store: store, token: refreshToken, err: refreshErr}
	return NewController(auth, refresher, store), store, refresher
}

func TestInit(t *testing.T) {
	tests := []struct {
		name         string
		location     string
		refreshToken string
		refreshErr   error
		wantState    State
		wantStored   string
		wantLocation string
		wantRefresh  int32
	}{
		{
			name:         "redirect credential is adopted and stripped",
			location:     "http://localhost:5173/dashboard?token=SSO1&tab=github",
			wantState:    Authenticated,
			wantStored:   "SSO1",
			wantLocation: "http://localhost:5173/dashboard?tab=github",
		},
		{
			name:         "silent refresh succeeds",
			location:     "http://localhost:5173/dashboard",
			refreshToken: "T1",
			wantState:    Authenticated,
			wantStored:   "T1",
			wantLocation: "http://localhost:5173/dashboard",
			wantRefresh:  1,
		},
		{
			name:         "silent refresh fails",
			location:     "http://localhost:5173/",
			refreshErr:   errors.New("credential refresh failed: status 401"),
			wantState:    Anonymous,
			wantLocation: "http://localhost:5173/",
			wantRefresh:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store, refresher := newTestController(&fakeAuth{}, tt.refreshToken, tt.refreshErr)
			loc, err := url.Parse(tt.location)
			require.NoError(t, err)

			assert.Equal(t, Initializing, c.State())
			state, cleaned := c.Init(context.Background(), loc)

			assert.Equal(t, tt.wantState, state)
			assert.Equal(t, tt.wantStored, store.Get())
			assert.Equal(t, tt.wantLocation, cleaned.String())
			assert.Equal(t, tt.wantRefresh, refresher.calls.Load())
		})
	}
}

func TestInit_RunsOnce(t *testing.T) {
	c, _, refresher := newTestController(&fakeAuth{}, "", errors.New("no cookie"))

	state, _ := c.Init(context.Background(), nil)
	assert.Equal(t, Anonymous, state)

	loc, _ := url.Parse("http://localhost/?token=late")
	state, cleaned := c.Init(context.Background(), loc)
	assert.Equal(t, Anonymous, state)
	assert.Empty(t, cleaned.RawQuery, "the token is stripped even when ignored")
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestLogin(t *testing.T) {
	auth := &fakeAuth{loginToken: "T1"}
	c, store, _ := newTestController(auth, "", errors.New("no cookie"))

	var seen []State
	c.Subscribe(func(s State) { seen = append(seen, s) })

	require.NoError(t, c.Login(context.Background(), "alice@example.com", "secret123"))
	assert.Equal(t, "T1", store.Get())
	assert.Equal(t, Authenticated, c.State())
	assert.Equal(t, []State{Authenticated}, seen)

	// Init after login has nothing left to do.
	state, _ := c.Init(context.Background(), nil)
	assert.Equal(t, Authenticated, state)
}

func TestLogin_Rejected(t *testing.T) {
	tests := []struct {
		name      string
		auth      *fakeAuth
		email     string
		password  string
		wantCalls int
	}{
		{name: "malformed email", auth: &fakeAuth{}, email: "alice", password: "x"},
		{name: "empty password", auth: &fakeAuth{}, email: "alice@example.com"},
		{
			name:      "backend rejects",
			auth:      &fakeAuth{loginErr: &api.Error{Kind: api.KindUnauthorized, StatusCode: 401, Message: "Invalid credentials"}},
			email:     "alice@example.com",
			password:  "wrong-password",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store, _ := newTestController(tt.auth, "", nil)
			err := c.Login(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			if tt.wantCalls == 0 {
				assert.True(t, api.IsValidation(err))
			} else {
				assert.True(t, api.IsUnauthorized(err))
			}
			assert.Len(t, tt.auth.calls, tt.wantCalls)
			assert.Empty(t, store.Get())
		})
	}
}

func TestLogout_BestEffort(t *testing.T) {
	auth := &fakeAuth{loginToken: "T1", logoutErr: &api.Error{Kind: api.KindTransport, Message: "backend unreachable"}}
	c, store, _ := newTestController(auth, "", nil)
	require.NoError(t, c.Login(context.Background(), "alice@example.com", "secret123"))

	hookRuns := 0
	c.OnLogout(func() { hookRuns++ })

	c.Logout(context.Background())
	assert.Empty(t, store.Get())
	assert.Equal(t, Anonymous, c.State())
	assert.Equal(t, 1, hookRuns)
	assert.Equal(t, []string{"login alice@example.com", "logout"}, auth.calls)
}

func TestExpire(t *testing.T) {
	c, store, _ := newTestController(&fakeAuth{}, "", nil)

	hookRuns := 0
	c.OnLogout(func() { hookRuns++ })

	c.Expire()
	assert.Equal(t, 0, hookRuns, "nothing to expire before a session exists")

	c.Adopt("T1")
	c.Expire()
	assert.Empty(t, store.Get())
	assert.Equal(t, Anonymous, c.State())
	assert.Equal(t, 1, hookRuns)
}

func TestActive_FollowsCredential(t *testing.T) {
	c, store, _ := newTestController(&fakeAuth{}, "", errors.New("no refresh cookie"))

	state, _ := c.Init(context.Background(), nil)
	require.Equal(t, Anonymous, state)
	assert.False(t, c.Active())

	// The requester renews the credential without going through the controller.
	store.Set("T2")
	assert.True(t, c.Active())

	c.Renewed()
	assert.Equal(t, Authenticated, c.State())

	store.Clear()
	assert.False(t, c.Active())
}

func TestRenewed_IgnoresEmptyStore(t *testing.T) {
	c, _, _ := newTestController(&fakeAuth{}, "", errors.New("no refresh cookie"))
	c.Init(context.Background(), nil)

	c.Renewed()
	assert.Equal(t, Anonymous, c.State())
}

func TestAdopt_IgnoresEmpty(t *testing.T) {
	c, store, _ := newTestController(&fakeAuth{}, "", nil)
	c.Adopt("")
	assert.Empty(t, store.Get())
	assert.Equal(t, Initializing, c.State())
}

func TestSignupFlow(t *testing.T) {
	tests := []struct {
		name    string
		run     func(c *Controller) error
		wantErr string
	}{
		{
			name: "signup",
			run: func(c *Controller) error {
				_, err := c.Signup(context.Background(), "alice@example.com", "secret123")
				return err
			},
		},
		{
			name: "signup short password",
			run: func(c *Controller) error {
				_, err := c.Signup(context.Background(), "alice@example.com", "short")
				return err
			},
			wantErr: "password must be at least 8 characters",
		},
		{
			name: "verify code",
			run: func(c *Controller) error {
				_, err := c.VerifySignupCode(context.Background(), "alice@example.com", "123456")
				return err
			},
		},
		{
			name: "verify malformed code",
			run: func(c *Controller) error {
				_, err := c.VerifySignupCode(context.Background(), "alice@example.com", "12ab")
				return err
			},
			wantErr: "code must be a 6-digit number",
		},
		{
			name: "resend",
			run: func(c *Controller) error {
				_, err := c.ResendSignupCode(context.Background(), "alice@example.com")
				return err
			},
		},
		{
			name: "resend bad email",
			run: func(c *Controller) error {
				_, err := c.ResendSignupCode(context.Background(), "not-an-email")
				return err
			},
			wantErr: "email must be a valid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{}
			c, _, _ := newTestController(auth, "", nil)
			err := tt.run(c)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Len(t, auth.calls, 1)
				return
			}
			require.Error(t, err)
			assert.True(t, api.IsValidation(err))
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Empty(t, auth.calls)
		})
	}
}

func TestIdentity(t *testing.T) {
	c, _, _ := newTestController(&fakeAuth{}, "", nil)

	_, err := c.Identity()
	assert.ErrorIs(t, err, ErrNoSession)

	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    "64f0c2",
		"email": "alice@example.com",
		"exp":   exp.Unix(),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	c.Adopt(token)
	id, err := c.Identity()
	require.NoError(t, err)
	assert.Equal(t, "64f0c2", id.Subject)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.True(t, exp.Equal(id.ExpiresAt))

	c.Adopt("opaque-credential")
	id, err = c.Identity()
	require.NoError(t, err)
	assert.Equal(t, Identity{}, id)
}
