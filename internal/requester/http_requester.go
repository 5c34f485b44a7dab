package requester

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/brizzai/codetrack/internal/apispec"
	"github.com/brizzai/codetrack/internal/config"
	"github.com/brizzai/codetrack/internal/credential"
	"github.com/brizzai/codetrack/internal/logger"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrRefreshFailed means the refresh endpoint did not issue a new credential.
var ErrRefreshFailed = errors.New("credential refresh failed")

// Doer executes backend calls.
type Doer interface {
	Do(ctx context.Context, call Call) (*Response, error)
}

// HTTPRequester sends calls to the backend, attaching the current credential,
// and recovers from an authorization failure with exactly one
// refresh-and-replay cycle.
type HTTPRequester struct {
	client  *http.Client
	builder *HTTPRequestBuilder
	authMgr AuthManager
	store   credential.Store
	breaker *gobreaker.CircuitBreaker[*Response]
	refresh apispec.Route
	timeout time.Duration

	// Concurrent authorization failures share one in-flight refresh.
	refreshGroup singleflight.Group

	mu          sync.Mutex
	onExpired   []func()
	onRefreshed []func()
}

type HTTPRequesterParams struct {
	fx.In

	Config      *config.Config
	Routes      *apispec.Routes
	Store       credential.Store
	AuthManager AuthManager
}

// NewHTTPRequester creates a requester for the configured backend.
func NewHTTPRequester(params HTTPRequesterParams) (*HTTPRequester, error) {
	backendCfg := params.Config.Backend
	base, err := url.Parse(backendCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	jar, err := NewPersistentJar(params.Config.Session.CookieFile, base)
	if err != nil {
		return nil, err
	}
	refresh, err := params.Routes.Lookup(apispec.OpRefreshToken)
	if err != nil {
		return nil, err
	}

	return &HTTPRequester{
		client: &http.Client{
			Timeout: backendCfg.Timeout,
			Jar:     jar,
		},
		builder: NewHTTPRequestBuilder(backendCfg.BaseURL, backendCfg.UserAgent),
		authMgr: params.AuthManager,
		store:   params.Store,
		breaker: newBreaker("backend", params.Config.Breaker),
		refresh: refresh,
		timeout: backendCfg.Timeout,
	}, nil
}

// OnSessionExpired registers fn to run after a failed refresh has cleared the
// credential store.
func (r *HTTPRequester) OnSessionExpired(fn func()) {
	r.mu.Lock()
	r.onExpired = append(r.onExpired, fn)
	r.mu.Unlock()
}

// OnRefreshed registers fn to run after a refresh has stored a new credential.
func (r *HTTPRequester) OnRefreshed(fn func()) {
	r.mu.Lock()
	r.onRefreshed = append(r.onRefreshed, fn)
	r.mu.Unlock()
}

// Do sends the call. Responses other than 401 are returned as-is, whatever
// their status. A 401 on an authenticated, fresh call triggers one refresh; on
// success the call is replayed with the new credential, on failure the store is
// cleared and the original 401 response is returned. A 401 for a credential
// that has since been replaced is replayed with the current one instead.
// If ctx ends while the refresh is running, the credential is left alone and
// ctx's error is returned.
func (r *HTTPRequester) Do(ctx context.Context, call Call) (*Response, error) {
	resp, sent, err := r.send(ctx, call)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if !r.recoverable(call) {
		return resp, nil
	}

	call = call.retried()
	if current := r.store.Get(); current != "" && current != sent {
		logger.Debug("Credential replaced while the call was in flight, replaying",
			zap.String("operation", call.Route.OperationID))
		return r.Do(ctx, call)
	}

	if _, err := r.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Session expired, clearing credential",
			zap.String("operation", call.Route.OperationID),
			zap.Error(err))
		r.expire(sent)
		return resp, nil
	}

	logger.Debug("Replaying call after refresh", zap.String("operation", call.Route.OperationID))
	return r.Do(ctx, call)
}

func (r *HTTPRequester) recoverable(call Call) bool {
	if call.Route.OperationID == r.refresh.OperationID {
		return false
	}
	if call.attempt == RetriedOnce {
		return false
	}
	return call.Route.Authenticated
}

// Refresh exchanges the refresh cookie for a new credential and stores it.
// Concurrent callers share a single request and observe the same outcome. The
// shared request is bounded by the backend timeout, not by any caller's ctx;
// a caller whose ctx ends stops waiting and gets ctx's error.
func (r *HTTPRequester) Refresh(ctx context.Context) (string, error) {
	ch := r.refreshGroup.DoChan("refresh", func() (any, error) {
		rctx, cancel := r.detached(ctx)
		defer cancel()

		resp, _, err := r.send(rctx, Call{Route: r.refresh})
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		}
		if !resp.OK() {
			return "", fmt.Errorf("%w: status %d", ErrRefreshFailed, resp.StatusCode)
		}
		var body struct {
			AccessToken string `json:"accessToken"`
		}
		if err := resp.Decode(&body); err != nil {
			return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		}
		if body.AccessToken == "" {
			return "", fmt.Errorf("%w: response carried no credential", ErrRefreshFailed)
		}
		r.store.Set(body.AccessToken)
		logger.Debug("Credential refreshed", logger.Credential("credential", body.AccessToken))
		r.refreshed()
		return body.AccessToken, nil
	})

	select {
	case <-ctx.Done():
		logger.Debug("Stopped waiting for credential refresh", zap.Error(ctx.Err()))
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			logger.Debug("Joined in-flight credential refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// detached returns a context that outlives ctx's cancellation but keeps its
// values, bounded by the backend timeout.
func (r *HTTPRequester) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if r.timeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, r.timeout)
}

// expire clears the store and runs the session-expired hooks, unless the
// credential the failed call was sent with has already been replaced or
// cleared by another caller.
func (r *HTTPRequester) expire(sent string) {
	r.mu.Lock()
	if r.store.Get() != sent {
		r.mu.Unlock()
		return
	}
	r.store.Clear()
	hooks := append([]func(){}, r.onExpired...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

func (r *HTTPRequester) refreshed() {
	r.mu.Lock()
	hooks := append([]func(){}, r.onRefreshed...)
	r.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// send performs one HTTP exchange through the circuit breaker. It also
// returns the credential the request carried.
func (r *HTTPRequester) send(ctx context.Context, call Call) (*Response, string, error) {
	httpReq, err := r.builder.BuildRequest(ctx, call)
	if err != nil {
		return nil, "", err
	}
	if err := r.authMgr.ApplyAuth(httpReq); err != nil {
		return nil, "", fmt.Errorf("failed to apply authentication: %w", err)
	}
	sent := bearer(httpReq)

	logger.Debug("Backend request",
		zap.String("operation", call.Route.OperationID),
		zap.String("method", httpReq.Method),
		zap.String("url", httpReq.URL.String()),
		zap.Stringer("attempt", call.attempt),
		zap.String("request_id", httpReq.Header.Get(headerRequestID)),
	)

	resp, err := unwrapBreakerResult(r.breaker.Execute(func() (*Response, error) {
		return r.execute(httpReq)
	}))
	return resp, sent, err
}

func bearer(req *http.Request) string {
	token, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}

// execute performs the actual HTTP request execution
func (r *HTTPRequester) execute(httpReq *http.Request) (*Response, error) {
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return out, errServerStatus
	}
	return out, nil
}
