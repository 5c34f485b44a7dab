package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brizzai/codetrack/internal/api"
	"github.com/brizzai/codetrack/internal/models"
	"github.com/brizzai/codetrack/internal/platform"
	"github.com/brizzai/codetrack/internal/verification"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List linked platforms and aggregate statistics",
	RunE:  runPlatforms,
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link, refresh and disconnect platform accounts",
	Long: `Platform link management.

Examples:
  codetrack link start github alice
  codetrack link refresh leetcode
  codetrack link disconnect codechef --yes`,
}

var linkStartCmd = &cobra.Command{
	Use:   "start <platform> <username>",
	Short: "Verify ownership of a platform account",
	Long: `Request a verification code for the account, then check the profile for
it. The code has to be placed on the public profile first; the check can be
repeated until it passes. Declining abandons the verification.

Supported platforms: codeforces, github, leetcode, codechef.`,
	Args: cobra.ExactArgs(2),
	RunE: runLinkStart,
}

var linkRefreshCmd = &cobra.Command{
	Use:   "refresh <platform>",
	Short: "Re-fetch the statistics of a verified platform",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkRefresh,
}

var linkDisconnectCmd = &cobra.Command{
	Use:   "disconnect <platform>",
	Short: "Remove a platform link",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkDisconnect,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a report of linked platforms and statistics",
	Long: `Write the platform links and aggregates to a file. The format follows the
extension: .yaml, .yml or .json. Verification codes are never exported.`,
	RunE: runExport,
}

func init() {
	linkDisconnectCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	exportCmd.Flags().StringP("output", "o", "codetrack-report.yaml", "output file name")

	linkCmd.AddCommand(linkStartCmd, linkRefreshCmd, linkDisconnectCmd)
	rootCmd.AddCommand(platformsCmd, linkCmd, exportCmd)
}

func runPlatforms(cmd *cobra.Command, args []string) error {
	a, err := signedIn(cmd)
	if err != nil {
		return err
	}
	snap, err := a.Workflow.Load(cmd.Context())
	if err != nil {
		return err
	}

	if err := renderPlatforms(snap); err != nil {
		return err
	}
	return renderSummary(platform.Summarize(snap))
}

func renderPlatforms(snap platform.Snapshot) error {
	data := pterm.TableData{{"Platform", "Status", "Username", "Stats"}}
	for _, p := range platform.All() {
		st := snap.Get(p)
		data = append(data, []string{p.DisplayName(), statusText(st), platform.Username(st), statsText(st)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func statusText(st platform.LinkState) string {
	switch st.Status() {
	case platform.StatusVerified:
		return pterm.Green("verified")
	case platform.StatusPending:
		return pterm.Yellow("pending")
	default:
		return pterm.Gray("not linked")
	}
}

func statsText(st platform.LinkState) string {
	v, ok := st.(platform.Verified)
	if !ok {
		return ""
	}
	stats := v.Stats.Visible()
	parts := make([]string, 0, len(stats))
	for _, s := range stats {
		parts = append(parts, fmt.Sprintf("%s: %s", s.Label, s.Value))
	}
	return strings.Join(parts, ", ")
}

func renderSummary(sum platform.Summary) error {
	pterm.DefaultSection.Println("Summary")
	data := pterm.TableData{
		{"Problems solved", formatFloat(sum.ProblemsSolved)},
		{"Contests", formatFloat(sum.Contests)},
		{"Verified platforms", fmt.Sprint(sum.Verified)},
		{"Not linked", fmt.Sprint(sum.Unlinked)},
	}
	if gh := sum.GitHub; gh != nil {
		data = append(data,
			[]string{"GitHub repositories", formatFloat(gh.PublicRepos)},
			[]string{"GitHub stars", formatFloat(gh.TotalStars)},
			[]string{"GitHub followers", formatFloat(gh.Followers)},
		)
	}
	return pterm.DefaultTable.WithData(data).Render()
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}

func runLinkStart(cmd *cobra.Command, args []string) error {
	p, err := platform.Parse(args[0])
	if err != nil {
		return err
	}
	a, err := signedIn(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.Workflow.Load(ctx); err != nil {
		return err
	}

	ch, err := a.Workflow.Start(ctx, p, args[1])
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Verification code for %s (%s): %s", p.DisplayName(), ch.Username, pterm.Bold.Sprint(ch.Code))
	pterm.Info.Println(ch.Hint())

	for {
		check, err := pterm.DefaultInteractiveConfirm.
			WithDefaultValue(true).
			Show("Is the code on your profile? Check now")
		if err != nil {
			return err
		}
		if !check {
			if err := a.Workflow.Cancel(p); err != nil {
				return err
			}
			pterm.Warning.Printfln("Verification of %s abandoned", p.DisplayName())
			return nil
		}

		snap, err := completeWithSpinner(ctx, a.Workflow, p)
		if err == nil {
			return renderPlatforms(snap)
		}
		if !api.IsWorkflow(err) && !api.IsValidation(err) {
			return err
		}
		// The platform stays pending with the same code; let the user retry.
	}
}

func completeWithSpinner(ctx context.Context, w *verification.Workflow, p platform.Platform) (platform.Snapshot, error) {
	spinner, err := pterm.DefaultSpinner.Start("Checking your " + p.DisplayName() + " profile")
	if err != nil {
		return nil, err
	}
	snap, err := w.Complete(ctx, p)
	if err != nil {
		spinner.Warning(err.Error())
		return nil, err
	}
	spinner.Success(p.DisplayName() + " verified successfully!")
	return snap, nil
}

func runLinkRefresh(cmd *cobra.Command, args []string) error {
	p, err := platform.Parse(args[0])
	if err != nil {
		return err
	}
	a, err := signedIn(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.Workflow.Load(ctx); err != nil {
		return err
	}
	snap, err := a.Workflow.Refresh(ctx, p)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Refreshed %s", p.DisplayName())
	return renderPlatforms(snap)
}

// terminalConfirmer asks on the terminal unless the user already agreed.
func terminalConfirmer(yes bool) verification.Confirmer {
	if yes {
		return verification.Confirmed
	}
	return verification.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		return pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(prompt)
	})
}

func runLinkDisconnect(cmd *cobra.Command, args []string) error {
	p, err := platform.Parse(args[0])
	if err != nil {
		return err
	}
	a, err := signedIn(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.Workflow.Load(ctx); err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if _, err := a.Workflow.Disconnect(ctx, p, terminalConfirmer(yes)); err != nil {
		if errors.Is(err, verification.ErrNotConfirmed) {
			pterm.Info.Println("Aborted")
			return nil
		}
		return err
	}
	pterm.Success.Printfln("Disconnected %s", p.DisplayName())
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if _, err := models.FormatFromPath(output); err != nil {
		return err
	}
	a, err := signedIn(cmd)
	if err != nil {
		return err
	}
	snap, err := a.Workflow.Load(cmd.Context())
	if err != nil {
		return err
	}

	account := ""
	if id, err := a.Session.Identity(); err == nil {
		account = id.Email
	}
	if err := models.WriteFile(output, models.NewExport(snap, account, time.Now())); err != nil {
		return err
	}
	pterm.Success.Printfln("Report written to %s", output)
	return nil
}
