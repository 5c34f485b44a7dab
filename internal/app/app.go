// Package app assembles the client from its fx modules.
package app

import (
	"github.com/brizzai/codetrack/internal/api"
	"github.com/brizzai/codetrack/internal/apispec"
	"github.com/brizzai/codetrack/internal/config"
	"github.com/brizzai/codetrack/internal/credential"
	"github.com/brizzai/codetrack/internal/logger"
	"github.com/brizzai/codetrack/internal/platform"
	"github.com/brizzai/codetrack/internal/requester"
	"github.com/brizzai/codetrack/internal/server"
	"github.com/brizzai/codetrack/internal/session"
	"github.com/brizzai/codetrack/internal/verification"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

// App is the assembled client. Commands drive it directly; nothing is
// started in the background.
type App struct {
	Config    *config.Config
	Session   *session.Controller
	Workflow  *verification.Workflow
	Registry  *platform.Registry
	Requester *requester.HTTPRequester
	Server    *server.Server
}

type components struct {
	fx.In

	Config    *config.Config
	Session   *session.Controller
	Workflow  *verification.Workflow
	Registry  *platform.Registry
	Requester *requester.HTTPRequester
	Server    *server.Server
}

// Options is the full dependency graph for cfg.
func Options(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: logger.GetLogger()}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		credential.Module,
		apispec.Module,
		requester.Module,
		api.Module,
		platform.Module,
		verification.Module,
		session.Module,
		server.Module,
		fx.Invoke(connect),
	)
}

// connect ties session end to the registry and the requester's refresh
// outcomes to the session.
func connect(c *session.Controller, r *requester.HTTPRequester, reg *platform.Registry) {
	c.OnLogout(reg.Clear)
	r.OnSessionExpired(c.Expire)
	r.OnRefreshed(c.Renewed)
}

// New builds the application for cfg.
func New(cfg *config.Config) (*App, error) {
	var a App
	fxApp := fx.New(
		Options(cfg),
		fx.Invoke(func(c components) {
			a = App{
				Config:    c.Config,
				Session:   c.Session,
				Workflow:  c.Workflow,
				Registry:  c.Registry,
				Requester: c.Requester,
				Server:    c.Server,
			}
		}),
	)
	if err := fxApp.Err(); err != nil {
		return nil, err
	}
	return &a, nil
}
