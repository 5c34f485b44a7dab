// Package session owns the client's authentication lifecycle: startup
// detection, login, credential adoption from an SSO redirect, signup and
// logout. The credential itself lives in the credential store.
package session

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/brizzai/codetrack/internal/api"
	"github.com/brizzai/codetrack/internal/credential"
	"github.com/brizzai/codetrack/internal/logger"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// State of the session as seen by the client.
type State int

const (
	Initializing State = iota
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Authenticator is the subset of the backend client used for auth calls.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context) error
	Signup(ctx context.Context, email, password string) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (string, error)
	ResendOTP(ctx context.Context, email string) (string, error)
}

// Refresher renews the credential from the long-lived refresh cookie.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

type Controller struct {
	auth      Authenticator
	refresher Refresher
	store     credential.Store
	validate  *validator.Validate

	initOnce sync.Once

	mu          sync.RWMutex
	state       State
	subscribers []func(State)
	logoutHooks []func()
}

func NewController(auth Authenticator, refresher Refresher, store credential.Store) *Controller {
	return &Controller{
		auth:      auth,
		refresher: refresher,
		store:     store,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		state:     Initializing,
	}
}

// Init settles the startup state. A credential delivered in the location's
// "token" parameter is adopted and the returned location no longer carries
// it; otherwise a silent refresh is attempted. Only the first call does any
// work; later calls report the settled state.
func (c *Controller) Init(ctx context.Context, location *url.URL) (State, *url.URL) {
	token, cleaned := ConsumeRedirect(location)

	c.initOnce.Do(func() {
		if token != "" {
			logger.Debug("Adopting credential from redirect", logger.Credential("credential", token))
			c.store.Set(token)
			c.setState(Authenticated)
			return
		}

		fresh, err := c.refresher.Refresh(ctx)
		if err != nil || fresh == "" {
			logger.Debug("No resumable session", zap.Error(err))
			c.store.Clear()
			c.setState(Anonymous)
			return
		}
		c.setState(Authenticated)
	})

	return c.State(), cleaned
}

// Login authenticates with email and password.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	if err := c.check(loginInput{Email: email, Password: password}); err != nil {
		return err
	}
	token, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	c.Adopt(token)
	logger.Info("Logged in", zap.String("email", email))
	return nil
}

// Adopt installs a credential obtained out of band, e.g. from an SSO
// redirect. An empty credential is ignored.
func (c *Controller) Adopt(token string) {
	if token == "" {
		return
	}
	c.initOnce.Do(func() {})
	c.store.Set(token)
	c.setState(Authenticated)
}

// Logout tells the backend, then clears the local session whatever the
// backend answered.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.auth.Logout(ctx); err != nil {
		logger.Warn("Backend logout failed, clearing local session anyway", zap.Error(err))
	}
	c.end()
}

// Renewed records that the requester obtained a new credential on its own.
func (c *Controller) Renewed() {
	if c.store.Get() == "" {
		return
	}
	c.setState(Authenticated)
}

// Expire ends the session after the backend refused to renew it.
func (c *Controller) Expire() {
	if c.State() != Authenticated {
		return
	}
	logger.Info("Session expired")
	c.end()
}

func (c *Controller) end() {
	c.initOnce.Do(func() {})
	c.store.Clear()

	c.mu.RLock()
	hooks := append([]func(){}, c.logoutHooks...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
	c.setState(Anonymous)
}

// Signup registers an account; the backend then emails a passcode.
func (c *Controller) Signup(ctx context.Context, email, password string) (string, error) {
	if err := c.check(signupInput{Email: email, Password: password}); err != nil {
		return "", err
	}
	msg, err := c.auth.Signup(ctx, email, password)
	if err != nil {
		return "", fmt.Errorf("signup failed: %w", err)
	}
	return msg, nil
}

// VerifySignupCode confirms the emailed six-digit passcode.
func (c *Controller) VerifySignupCode(ctx context.Context, email, code string) (string, error) {
	if err := c.check(otpInput{Email: email, Code: code}); err != nil {
		return "", err
	}
	msg, err := c.auth.VerifyOTP(ctx, email, code)
	if err != nil {
		return "", fmt.Errorf("verification failed: %w", err)
	}
	return msg, nil
}

func (c *Controller) ResendSignupCode(ctx context.Context, email string) (string, error) {
	if err := c.check(emailInput{Email: email}); err != nil {
		return "", err
	}
	msg, err := c.auth.ResendOTP(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to resend code: %w", err)
	}
	return msg, nil
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Active reports whether calls can be made on behalf of a user, which is
// exactly when the credential store holds a credential. It also covers
// credentials renewed by the requester behind the controller's back.
func (c *Controller) Active() bool {
	return c.store.Get() != ""
}

// OnLogout registers fn to run whenever the session ends.
func (c *Controller) OnLogout(fn func()) {
	c.mu.Lock()
	c.logoutHooks = append(c.logoutHooks, fn)
	c.mu.Unlock()
}

// Subscribe registers fn to be told about every state change.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.mu.Unlock()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	subs := append([]func(State){}, c.subscribers...)
	c.mu.Unlock()

	if !changed {
		return
	}
	logger.Debug("Session state changed", zap.Stringer("state", s))
	for _, fn := range subs {
		fn(s)
	}
}

func (c *Controller) check(input any) error {
	if err := c.validate.Struct(input); err != nil {
		return api.NewValidationError("%s", describe(err))
	}
	return nil
}
