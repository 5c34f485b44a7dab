package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/brizzai/codetrack/internal/app"
	"github.com/brizzai/codetrack/internal/session"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// ssoTimeout bounds how long login --sso waits for the browser.
const ssoTimeout = 5 * time.Minute

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your tracker account",
	Long: `Sign in with email and password, or with --sso through the browser.

Only the backend's refresh cookie is kept on disk; later commands resume the
session from it.

Examples:
  codetrack login --email alice@example.com
  codetrack login --sso`,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a tracker account",
	Long: `Register a new account. The backend emails a 6-digit passcode which
activates the account:

  codetrack verify-otp --email alice@example.com 123456`,
	RunE: runSignup,
}

var verifyOTPCmd = &cobra.Command{
	Use:   "verify-otp <code>",
	Short: "Activate an account with the emailed passcode",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyOTP,
}

var resendOTPCmd = &cobra.Command{
	Use:   "resend-otp",
	Short: "Send the signup passcode again",
	RunE:  runResendOTP,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password (prompted when omitted)")
	loginCmd.Flags().Bool("sso", false, "sign in through the browser")

	signupCmd.Flags().String("email", "", "account email")
	signupCmd.Flags().String("password", "", "account password (prompted when omitted)")

	verifyOTPCmd.Flags().String("email", "", "account email")
	resendOTPCmd.Flags().String("email", "", "account email")

	rootCmd.AddCommand(loginCmd, signupCmd, verifyOTPCmd, resendOTPCmd, logoutCmd, whoamiCmd)
}

// prompt returns the flag value, asking for it interactively when empty.
func prompt(cmd *cobra.Command, flag, label string, secret bool) (string, error) {
	v, _ := cmd.Flags().GetString(flag)
	if v != "" {
		return v, nil
	}
	input := pterm.DefaultInteractiveTextInput
	if secret {
		input = *input.WithMask("*")
	}
	v, err := input.Show(label)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}

	if sso, _ := cmd.Flags().GetBool("sso"); sso {
		return loginSSO(cmd.Context(), a)
	}

	email, err := prompt(cmd, "email", "Email", false)
	if err != nil {
		return err
	}
	password, err := prompt(cmd, "password", "Password", true)
	if err != nil {
		return err
	}
	if err := a.Session.Login(cmd.Context(), email, password); err != nil {
		return err
	}
	pterm.Success.Printfln("Signed in as %s", email)
	return nil
}

func loginSSO(ctx context.Context, a *app.App) error {
	callback, err := session.NewCallbackServer(a.Config.SSO.ListenAddr, a.Session)
	if err != nil {
		return err
	}

	start, err := url.Parse(strings.TrimRight(a.Config.Backend.BaseURL, "/") + a.Config.SSO.StartPath)
	if err != nil {
		return fmt.Errorf("invalid sso start url: %w", err)
	}
	q := start.Query()
	q.Set("redirect", callback.CallbackURL())
	start.RawQuery = q.Encode()

	pterm.Info.Println("Open this address in your browser to sign in:")
	pterm.Println(pterm.LightCyan(start.String()))

	ctx, cancel := context.WithTimeout(ctx, ssoTimeout)
	defer cancel()

	spinner, err := pterm.DefaultSpinner.Start("Waiting for the browser")
	if err != nil {
		return err
	}
	if err := callback.Wait(ctx); err != nil {
		spinner.Fail("Sign-in did not complete")
		return err
	}
	spinner.Success("Signed in")
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	email, err := prompt(cmd, "email", "Email", false)
	if err != nil {
		return err
	}
	password, err := prompt(cmd, "password", "Password", true)
	if err != nil {
		return err
	}
	msg, err := a.Session.Signup(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	pterm.Success.Println(msg)
	pterm.Info.Printfln("Activate the account with: codetrack verify-otp --email %s <code>", email)
	return nil
}

func runVerifyOTP(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	email, err := prompt(cmd, "email", "Email", false)
	if err != nil {
		return err
	}
	msg, err := a.Session.VerifySignupCode(cmd.Context(), email, args[0])
	if err != nil {
		return err
	}
	pterm.Success.Println(msg)
	return nil
}

func runResendOTP(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	email, err := prompt(cmd, "email", "Email", false)
	if err != nil {
		return err
	}
	msg, err := a.Session.ResendSignupCode(cmd.Context(), email)
	if err != nil {
		return err
	}
	pterm.Success.Println(msg)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	// Resume first so the backend can revoke the refresh cookie.
	a.Session.Init(cmd.Context(), nil)
	a.Session.Logout(cmd.Context())
	pterm.Success.Println("Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := signedIn(cmd)
	if err != nil {
		return err
	}
	id, err := a.Session.Identity()
	if err != nil {
		return err
	}

	data := pterm.TableData{}
	if id.Email != "" {
		data = append(data, []string{"Email", id.Email})
	}
	if id.Subject != "" {
		data = append(data, []string{"Account", id.Subject})
	}
	if !id.ExpiresAt.IsZero() {
		data = append(data, []string{"Session expires", id.ExpiresAt.Local().Format(time.RFC1123)})
	}
	if len(data) == 0 {
		pterm.Info.Println("Signed in")
		return nil
	}
	return pterm.DefaultTable.WithData(data).Render()
}
