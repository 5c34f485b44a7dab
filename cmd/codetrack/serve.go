package main

import (
	"github.com/brizzai/codetrack/internal/config"
	"github.com/brizzai/codetrack/internal/tui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard",
	RunE:  runDashboard,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve your platform links as MCP tools",
	Long: `Start an MCP server exposing the platform tools of the signed-in account.
The transport is chosen with --mode (stdio, sse or http).`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(dashboardCmd, mcpCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := signedIn(cmd)
	if err != nil {
		return err
	}
	account := ""
	if id, err := a.Session.Identity(); err == nil {
		account = id.Email
	}
	return tui.Run(cmd.Context(), a.Workflow, account)
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := signedIn(cmd)
	if err != nil {
		return err
	}
	if _, err := a.Workflow.Load(cmd.Context()); err != nil {
		return err
	}
	if a.Config.Server.Mode != config.ServerModeSTDIO {
		pterm.Info.Printfln("Serving MCP over %s on %s:%d", a.Config.Server.Mode, a.Config.Server.Host, a.Config.Server.Port)
	}
	return a.Server.Start(cmd.Context())
}
