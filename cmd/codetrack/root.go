package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/brizzai/codetrack/internal/app"
	"github.com/brizzai/codetrack/internal/config"
	"github.com/brizzai/codetrack/internal/logger"
	"github.com/brizzai/codetrack/internal/session"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var errNotSignedIn = errors.New("not signed in, run `codetrack login` first")

// token is a credential handed over from an SSO redirect.
var token string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "codetrack",
	Short: "Track your competitive programming progress",
	Long: `codetrack links your Codeforces, GitHub, LeetCode and CodeChef accounts
and shows the statistics your tracker account has collected for them.

Platforms are linked by proving ownership: codetrack asks the backend for a
one-time code, you put it on your public profile, and the backend checks it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		pterm.Error.Println(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Credential delivered by an SSO redirect")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
}

// setup loads the configuration and builds the client.
func setup(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return app.New(cfg)
}

// signedIn builds the client and resumes the session, either from --token or
// through a silent refresh.
func signedIn(cmd *cobra.Command) (*app.App, error) {
	a, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	var location *url.URL
	if token != "" {
		location = &url.URL{RawQuery: url.Values{session.TokenParam: {token}}.Encode()}
	}
	if state, _ := a.Session.Init(cmd.Context(), location); state != session.Authenticated {
		return nil, errNotSignedIn
	}
	return a, nil
}
