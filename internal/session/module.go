package session

import (
	"github.com/brizzai/codetrack/internal/api"
	"github.com/brizzai/codetrack/internal/requester"
	"go.uber.org/fx"
)

// Module provides the session controller backed by the API client and the
// requester's refresh flow.
var Module = fx.Module("session",
	fx.Provide(
		fx.Annotate(
			func(c *api.Client) *api.Client { return c },
			fx.As(new(Authenticator)),
		),
		fx.Annotate(
			func(r *requester.HTTPRequester) *requester.HTTPRequester { return r },
			fx.As(new(Refresher)),
		),
		NewController,
	),
)
