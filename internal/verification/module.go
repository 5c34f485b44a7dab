package verification

import (
	"github.com/brizzai/codetrack/internal/api"
	"go.uber.org/fx"
)

// Module provides the verification workflow backed by the API client.
var Module = fx.Module("verification",
	fx.Provide(
		fx.Annotate(
			func(c *api.Client) *api.Client { return c },
			fx.As(new(Backend)),
		),
		NewWorkflow,
	),
)
