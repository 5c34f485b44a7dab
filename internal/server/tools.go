package server

import (
	"context"
	"fmt"
	"time"

	"github.com/brizzai/codetrack/internal/models"
	"github.com/brizzai/codetrack/internal/platform"
	"github.com/brizzai/codetrack/internal/server/tool"
	"github.com/brizzai/codetrack/internal/verification"
	"github.com/mark3labs/mcp-go/mcp"
)

type platformTool struct {
	tool mcp.Tool
	run  tool.Func
}

// challengeResult is what start_verification returns: the code and where it
// must be placed.
type challengeResult struct {
	Platform         string `json:"platform"`
	Username         string `json:"username"`
	VerificationCode string `json:"verificationCode"`
	Instructions     string `json:"instructions"`
}

func platformArg() mcp.ToolOption {
	return mcp.WithString("platform",
		mcp.Required(),
		mcp.Description("Platform identifier"),
		mcp.Enum(platformNames()...),
	)
}

func platformNames() []string {
	names := make([]string, 0, len(platform.All()))
	for _, p := range platform.All() {
		names = append(names, p.String())
	}
	return names
}

func (s *Server) tools() []platformTool {
	return []platformTool{
		{
			tool: mcp.NewTool("list_platforms",
				mcp.WithDescription("List the supported coding platforms with their link status, usernames and statistics."),
			),
			run: s.listPlatforms,
		},
		{
			tool: mcp.NewTool("get_summary",
				mcp.WithDescription("Aggregate statistics over all verified platforms."),
			),
			run: s.getSummary,
		},
		{
			tool: mcp.NewTool("start_verification",
				mcp.WithDescription("Start linking a platform account. Returns a one-time code the user must put on their public profile before calling complete_verification."),
				platformArg(),
				mcp.WithString("username", mcp.Required(), mcp.Description("Account name on the platform")),
			),
			run: s.startVerification,
		},
		{
			tool: mcp.NewTool("complete_verification",
				mcp.WithDescription("Ask the backend to check the profile for the verification code. The platform stays pending if the code is not found."),
				platformArg(),
			),
			run: s.completeVerification,
		},
		{
			tool: mcp.NewTool("cancel_verification",
				mcp.WithDescription("Abandon a pending verification."),
				platformArg(),
			),
			run: s.cancelVerification,
		},
		{
			tool: mcp.NewTool("refresh_platform",
				mcp.WithDescription("Re-fetch the statistics of a verified platform."),
				platformArg(),
			),
			run: s.refreshPlatform,
		},
		{
			tool: mcp.NewTool("disconnect_platform",
				mcp.WithDescription("Remove a platform link. Only runs when confirm is true; ask the user first."),
				platformArg(),
				mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Set to true once the user agreed to disconnect")),
			),
			run: s.disconnectPlatform,
		},
	}
}

func parsePlatform(args tool.Args) (platform.Platform, error) {
	name, err := args.String("platform")
	if err != nil {
		return "", err
	}
	return platform.Parse(name)
}

func entries(snap platform.Snapshot) []models.PlatformEntry {
	return models.NewExport(snap, "", time.Now()).Platforms
}

func entryFor(snap platform.Snapshot, p platform.Platform) models.PlatformEntry {
	for _, e := range entries(snap) {
		if e.Platform == p.String() {
			return e
		}
	}
	return models.PlatformEntry{Platform: p.String(), Name: p.DisplayName()}
}

func (s *Server) listPlatforms(ctx context.Context, _ tool.Args) (any, error) {
	snap, err := s.tracker.Load(ctx)
	if err != nil {
		return nil, err
	}
	return entries(snap), nil
}

func (s *Server) getSummary(ctx context.Context, _ tool.Args) (any, error) {
	snap, err := s.tracker.Load(ctx)
	if err != nil {
		return nil, err
	}
	return platform.Summarize(snap), nil
}

func (s *Server) startVerification(ctx context.Context, args tool.Args) (any, error) {
	p, err := parsePlatform(args)
	if err != nil {
		return nil, err
	}
	username, err := args.String("username")
	if err != nil {
		return nil, err
	}
	ch, err := s.tracker.Start(ctx, p, username)
	if err != nil {
		return nil, err
	}
	return challengeResult{
		Platform:         ch.Platform.String(),
		Username:         ch.Username,
		VerificationCode: ch.Code,
		Instructions:     ch.Hint(),
	}, nil
}

func (s *Server) completeVerification(ctx context.Context, args tool.Args) (any, error) {
	p, err := parsePlatform(args)
	if err != nil {
		return nil, err
	}
	snap, err := s.tracker.Complete(ctx, p)
	if err != nil {
		return nil, err
	}
	return entryFor(snap, p), nil
}

func (s *Server) cancelVerification(_ context.Context, args tool.Args) (any, error) {
	p, err := parsePlatform(args)
	if err != nil {
		return nil, err
	}
	if err := s.tracker.Cancel(p); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Verification for %s cancelled.", p.DisplayName()), nil
}

func (s *Server) refreshPlatform(ctx context.Context, args tool.Args) (any, error) {
	p, err := parsePlatform(args)
	if err != nil {
		return nil, err
	}
	snap, err := s.tracker.Refresh(ctx, p)
	if err != nil {
		return nil, err
	}
	return entryFor(snap, p), nil
}

func (s *Server) disconnectPlatform(ctx context.Context, args tool.Args) (any, error) {
	p, err := parsePlatform(args)
	if err != nil {
		return nil, err
	}
	confirmed := args.Bool("confirm")
	_, err = s.tracker.Disconnect(ctx, p, verification.ConfirmFunc(func(context.Context, string) (bool, error) {
		return confirmed, nil
	}))
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("Disconnected %s.", p.DisplayName()), nil
}
