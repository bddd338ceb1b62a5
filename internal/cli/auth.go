package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/todo-client/internal/model"
	"github.com/idilsaglam/todo-client/internal/session"
	"github.com/idilsaglam/todo-client/internal/ui"
)

func newAuthCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Log in, sign up and inspect the session",
	}
	cmd.AddCommand(
		newLoginCommand(e),
		newSignupCommand(e),
		newLogoutCommand(e),
		newStatusCommand(e),
		newWhoamiCommand(e),
	)
	return cmd
}

// ask returns value, or prompts for it when empty.
func (e *env) ask(value, label string) (string, error) {
	if v := strings.TrimSpace(value); v != "" {
		return v, nil
	}
	v, err := e.prompt.line(label)
	return strings.TrimSpace(v), err
}

func newLoginCommand(e *env) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				creds model.Credentials
				err   error
			)
			if creds.Email, err = e.ask(email, "Email"); err != nil {
				return err
			}
			if creds.Password, err = e.prompt.password("Password"); err != nil {
				return err
			}
			if err := creds.ValidateLogin(); err != nil {
				return err
			}
			token, err := e.client.Login(cmd.Context(), creds.Email, creds.Password)
			if err != nil {
				return err
			}
			if err := e.session.Save(token); err != nil {
				return err
			}
			e.log.WithField("email", creds.Email).Info("logged in")
			ui.OK(cmd.OutOrStdout(), "logged in as "+creds.Email)
			if e.session.FromEnv() {
				ui.Hint(cmd.OutOrStdout(), session.EnvToken+" is set and takes precedence over the saved token")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

func newSignupCommand(e *env) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				creds model.Credentials
				err   error
			)
			if creds.Name, err = e.ask(name, "Name"); err != nil {
				return err
			}
			if creds.Email, err = e.ask(email, "Email"); err != nil {
				return err
			}
			if creds.Password, err = e.prompt.password("Password"); err != nil {
				return err
			}
			if err := creds.ValidateSignup(); err != nil {
				return err
			}
			res, err := e.client.Signup(cmd.Context(), creds)
			if err != nil {
				return err
			}
			msg := res.Detail
			if msg == "" {
				msg = "signed up"
			}
			ui.OK(cmd.OutOrStdout(), msg)
			ui.Hint(cmd.OutOrStdout(), "Now run `todo auth login --email "+creds.Email+"`")
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name (prompted when empty)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.session.Clear(); err != nil {
				return err
			}
			e.log.Info("logged out")
			ui.OK(cmd.OutOrStdout(), "logged out")
			if e.session.FromEnv() {
				ui.Hint(cmd.OutOrStdout(), session.EnvToken+" is still set; unset it to fully log out")
			}
			return nil
		},
	}
}

func newStatusCommand(e *env) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a session token is stored",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := e.session.Token()
			if err != nil {
				return err
			}
			if ti == nil {
				return errLoggedOut
			}
			now := e.opt.Now()
			if ti.Expired(now) {
				return fmt.Errorf("token expired at %s: %w", ti.ExpiresAt.In(now.Location()).Format(time.DateTime), errLoggedOut)
			}

			t := ui.Current()
			lines := []string{
				t.Title.Render("Logged in to " + e.cfg.APIURL),
				"",
				fmt.Sprintf("%-8s %s", t.Muted.Render("source"), ti.Source),
			}
			if !ti.CreatedAt.IsZero() {
				lines = append(lines, fmt.Sprintf("%-8s %s", t.Muted.Render("saved"), ti.CreatedAt.In(now.Location()).Format(time.DateTime)))
			}
			if ti.ExpiresAt != nil {
				lines = append(lines, fmt.Sprintf("%-8s %s", t.Muted.Render("expires"), ti.ExpiresAt.In(now.Location()).Format(time.DateTime)))
			}
			if check {
				todos, err := e.client.ListTodos(cmd.Context())
				if err != nil {
					return err
				}
				lines = append(lines, "", t.Success.Render(fmt.Sprintf("%s token accepted (%d todos)", t.SymOK, len(todos))))
			}
			ui.Panel(cmd.OutOrStdout(), lines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "verify the token against the server")
	return cmd
}

func newWhoamiCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the identity carried by the session token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireSession(); err != nil {
				return err
			}
			ti, err := e.session.Token()
			if err != nil {
				return err
			}
			claims, err := session.ParseClaims(ti.Token)
			if errors.Is(err, session.ErrOpaque) {
				ui.Hint(cmd.OutOrStdout(), "the token is opaque; no identity to show")
				return nil
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user id: %d\n", claims.UserID)
			if claims.Subject != "" {
				fmt.Fprintf(out, "subject: %s\n", claims.Subject)
			}
			loc := e.opt.Now().Location()
			if claims.IssuedAt != nil {
				fmt.Fprintf(out, "issued:  %s\n", claims.IssuedAt.In(loc).Format(time.DateTime))
			}
			if claims.ExpiresAt != nil {
				fmt.Fprintf(out, "expires: %s\n", claims.ExpiresAt.In(loc).Format(time.DateTime))
			}
			return nil
		},
	}
}
