package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/brizzai/codetrack/internal/apispec"
	"github.com/brizzai/codetrack/internal/requester"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoer struct {
	calls  []requester.Call
	status int
	body   string
	err    error
}

func (f *fakeDoer) Do(_ context.Context, call requester.Call) (*requester.Response, error) {
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	return &requester.Response{StatusCode: f.status, Body: []byte(f.body)}, nil
}

func newTestClient(t *testing.T, doer *fakeDoer) *Client {
	t.Helper()
	routes, err := apispec.Load(context.Background(), "")
	require.NoError(t, err)
	return NewClient(doer, routes)
}

func bodyJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestClient_Login(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"accessToken":"T1"}`}
	c := newTestClient(t, doer)

	token, err := c.Login(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "T1", token)

	require.Len(t, doer.calls, 1)
	assert.Equal(t, apispec.OpLogin, doer.calls[0].Route.OperationID)
	assert.JSONEq(t, `{"email":"alice@example.com","password":"secret123"}`, bodyJSON(t, doer.calls[0].Body))
}

func TestClient_LoginWithoutCredential(t *testing.T) {
	c := newTestClient(t, &fakeDoer{status: http.StatusOK, body: `{}`})
	_, err := c.Login(context.Background(), "alice@example.com", "secret123")
	assert.True(t, IsServer(err))
}

func TestClient_PlatformCalls(t *testing.T) {
	links := `{"platforms":{"github":{"username":"alice","verified":true,"data":{"public_repos":12,"followers":3}}}}`
	want := Links{"github": {Username: "alice", Verified: true, Data: map[string]any{"public_repos": float64(12), "followers": float64(3)}}}

	tests := []struct {
		name       string
		invoke     func(c *Client) (Links, error)
		operation  string
		pathParams map[string]string
		body       string
	}{
		{
			name:      "list",
			invoke:    func(c *Client) (Links, error) { return c.ListPlatforms(context.Background()) },
			operation: apispec.OpListPlatforms,
		},
		{
			name:      "complete",
			invoke:    func(c *Client) (Links, error) { return c.CompleteVerification(context.Background(), "github") },
			operation: apispec.OpCompleteVerification,
			body:      `{"platform":"github"}`,
		},
		{
			name:       "refresh",
			invoke:     func(c *Client) (Links, error) { return c.RefreshPlatform(context.Background(), "github") },
			operation:  apispec.OpRefreshPlatform,
			pathParams: map[string]string{"platform": "github"},
		},
		{
			name:       "disconnect",
			invoke:     func(c *Client) (Links, error) { return c.DisconnectPlatform(context.Background(), "github") },
			operation:  apispec.OpDisconnectPlatform,
			pathParams: map[string]string{"platform": "github"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &fakeDoer{status: http.StatusOK, body: links}
			got, err := tt.invoke(newTestClient(t, doer))
			require.NoError(t, err)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("links mismatch (-want +got):\n%s", diff)
			}
			require.Len(t, doer.calls, 1)
			assert.Equal(t, tt.operation, doer.calls[0].Route.OperationID)
			assert.Equal(t, tt.pathParams, doer.calls[0].PathParams)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, bodyJSON(t, doer.calls[0].Body))
			} else {
				assert.Nil(t, doer.calls[0].Body)
			}
		})
	}
}

func TestClient_StartVerification(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"verificationCode":"AB12CD"}`}
	code, err := newTestClient(t, doer).StartVerification(context.Background(), "github", "alice")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", code)
	assert.JSONEq(t, `{"platform":"github","username":"alice"}`, bodyJSON(t, doer.calls[0].Body))
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doer     *fakeDoer
		wantKind Kind
		wantMsg  string
	}{
		{
			name:     "unauthorized",
			doer:     &fakeDoer{status: http.StatusUnauthorized, body: `{"message":"jwt expired"}`},
			wantKind: KindUnauthorized,
			wantMsg:  "jwt expired",
		},
		{
			name:     "not satisfied",
			doer:     &fakeDoer{status: http.StatusNotFound, body: `{"message":"Verification code not found in profile"}`},
			wantKind: KindWorkflow,
			wantMsg:  "Verification code not found in profile",
		},
		{
			name:     "bad request",
			doer:     &fakeDoer{status: http.StatusBadRequest, body: `{"error":"invalid_request","error_description":"platform is required"}`},
			wantKind: KindValidation,
			wantMsg:  "platform is required",
		},
		{
			name:     "rate limited",
			doer:     &fakeDoer{status: http.StatusTooManyRequests, body: "slow down"},
			wantKind: KindValidation,
			wantMsg:  "slow down",
		},
		{
			name:     "server error with empty body",
			doer:     &fakeDoer{status: http.StatusBadGateway},
			wantKind: KindServer,
			wantMsg:  "Bad Gateway",
		},
		{
			name:     "unreachable",
			doer:     &fakeDoer{err: fmt.Errorf("%w: connection refused", requester.ErrUnavailable)},
			wantKind: KindTransport,
		},
		{
			name:     "malformed body",
			doer:     &fakeDoer{status: http.StatusOK, body: `{"platforms":[`},
			wantKind: KindServer,
			wantMsg:  "malformed backend response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(t, tt.doer).ListPlatforms(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}

func TestClient_LogoutAndSignup(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"message":"OTP sent to email"}`}
	c := newTestClient(t, doer)

	msg, err := c.Signup(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "OTP sent to email", msg)

	_, err = c.VerifyOTP(context.Background(), "alice@example.com", "123456")
	require.NoError(t, err)
	_, err = c.ResendOTP(context.Background(), "alice@example.com")
	require.NoError(t, err)

	doer.body = ""
	require.NoError(t, c.Logout(context.Background()))

	ops := make([]string, 0, len(doer.calls))
	for _, call := range doer.calls {
		ops = append(ops, call.Route.OperationID)
	}
	assert.Equal(t, []string{apispec.OpSignup, apispec.OpVerifyOTP, apispec.OpResendOTP, apispec.OpLogout}, ops)
	assert.JSONEq(t, `{"email":"alice@example.com","otp":"123456"}`, bodyJSON(t, doer.calls[1].Body))
}
