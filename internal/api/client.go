// Package api is the typed client for the tracker backend.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/brizzai/codetrack/internal/apispec"
	"github.com/brizzai/codetrack/internal/logger"
	"github.com/brizzai/codetrack/internal/requester"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Client struct {
	doer   requester.Doer
	routes *apispec.Routes
}

func NewClient(doer requester.Doer, routes *apispec.Routes) *Client {
	return &Client{doer: doer, routes: routes}
}

// Login exchanges email and password for an access credential. The backend
// also sets the long-lived refresh cookie.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out credentialResponse
	if err := c.call(ctx, apispec.OpLogin, nil, credentialsRequest{Email: email, Password: password}, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &Error{Kind: KindServer, Message: "login response carried no credential"}
	}
	return out.AccessToken, nil
}

// Signup registers an account; the backend emails a one-time passcode.
func (c *Client) Signup(ctx context.Context, email, password string) (string, error) {
	var out messageResponse
	err := c.call(ctx, apispec.OpSignup, nil, credentialsRequest{Email: email, Password: password}, &out)
	return out.Message, err
}

// VerifyOTP confirms the email address with the emailed passcode.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	var out messageResponse
	err := c.call(ctx, apispec.OpVerifyOTP, nil, otpRequest{Email: email, OTP: otp}, &out)
	return out.Message, err
}

func (c *Client) ResendOTP(ctx context.Context, email string) (string, error) {
	var out messageResponse
	err := c.call(ctx, apispec.OpResendOTP, nil, emailRequest{Email: email}, &out)
	return out.Message, err
}

// Logout ends the server-side session and expires the refresh cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, apispec.OpLogout, nil, nil, nil)
}

func (c *Client) ListPlatforms(ctx context.Context) (Links, error) {
	var out linksResponse
	if err := c.call(ctx, apispec.OpListPlatforms, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Platforms, nil
}

// StartVerification asks the backend for a one-time code to place on the
// user's public profile.
func (c *Client) StartVerification(ctx context.Context, platform, username string) (string, error) {
	var out challengeResponse
	body := startVerificationRequest{Platform: platform, Username: username}
	if err := c.call(ctx, apispec.OpStartVerification, nil, body, &out); err != nil {
		return "", err
	}
	if out.VerificationCode == "" {
		return "", &Error{Kind: KindServer, Message: "verification response carried no code"}
	}
	return out.VerificationCode, nil
}

// CompleteVerification asks the backend to re-fetch the profile and look for
// the code. It returns the full link mapping on success.
func (c *Client) CompleteVerification(ctx context.Context, platform string) (Links, error) {
	var out linksResponse
	if err := c.call(ctx, apispec.OpCompleteVerification, nil, platformRequest{Platform: platform}, &out); err != nil {
		return nil, err
	}
	return out.Platforms, nil
}

func (c *Client) RefreshPlatform(ctx context.Context, platform string) (Links, error) {
	var out linksResponse
	if err := c.call(ctx, apispec.OpRefreshPlatform, map[string]string{"platform": platform}, nil, &out); err != nil {
		return nil, err
	}
	return out.Platforms, nil
}

func (c *Client) DisconnectPlatform(ctx context.Context, platform string) (Links, error) {
	var out linksResponse
	if err := c.call(ctx, apispec.OpDisconnectPlatform, map[string]string{"platform": platform}, nil, &out); err != nil {
		return nil, err
	}
	return out.Platforms, nil
}

func (c *Client) call(ctx context.Context, operationID string, params map[string]string, body, out any) error {
	route, err := c.routes.Lookup(operationID)
	if err != nil {
		return err
	}

	resp, err := c.doer.Do(ctx, requester.Call{Route: route, PathParams: params, Body: body})
	if err != nil {
		if errors.Is(err, requester.ErrUnavailable) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return transportError(err)
		}
		return fmt.Errorf("%s: %w", operationID, err)
	}

	if !resp.OK() {
		apiErr := parseError(resp.StatusCode, resp.Body)
		logger.Debug("Backend call failed",
			zap.String("operation", operationID),
			zap.Int("status", resp.StatusCode),
			zap.Stringer("kind", apiErr.Kind),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if out != nil {
		if err := resp.Decode(out); err != nil {
			return &Error{Kind: KindServer, StatusCode: resp.StatusCode, Message: "malformed backend response", Err: err}
		}
	}
	return nil
}

// Module provides the backend client.
var Module = fx.Module("api",
	fx.Provide(NewClient),
)
