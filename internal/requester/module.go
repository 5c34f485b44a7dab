package requester

import (
	"go.uber.org/fx"
)

// Module provides the authenticated backend requester.
var Module = fx.Module("requester",
	fx.Provide(
		fx.Annotate(
			NewHTTPRequester,
			fx.As(fx.Self()),
			fx.As(new(Doer)),
		),
		fx.Annotate(
			NewBearerAuth,
			fx.As(new(AuthManager)),
		),
	),
)
