package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/dompetku/walletgate/internal/app"
	"github.com/dompetku/walletgate/internal/tokensource"
	"github.com/dompetku/walletgate/internal/walletapi"
)

func (r *runner) loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "account email"},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "account password (prompted when omitted)",
				Sources: cli.EnvVars("WALLETGATE_PASSWORD"),
			},
		},
		Action: r.with(r.login),
	}
}

func (r *runner) login(ctx context.Context, cmd *cli.Command, a *app.App) error {
	email, err := r.console.valueOr(cmd.String("email"), "Email: ", false)
	if err != nil {
		return err
	}
	password, err := r.console.valueOr(cmd.String("password"), "Password: ", true)
	if err != nil {
		return err
	}

	client := a.Client()
	if _, err := client.Login(ctx, walletapi.Credentials{Email: email, Password: password}); err != nil {
		return err
	}

	hasPin, err := client.HasPin(ctx)
	if err != nil {
		return err
	}
	profile, err := client.Me(ctx)
	if err != nil {
		return err
	}

	if profile.Wallet == nil {
		r.console.success("Signed in as %s", profile.User.FullName)
		if !hasPin {
			r.console.warn("No wallet yet. Run: walletgate set-pin")
		}
		return nil
	}
	r.console.success("Signed in as %s (%s)", profile.User.FullName, profile.Wallet.Type.Label())
	return nil
}

func (r *runner) signupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "register a new account and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "account email"},
			&cli.StringFlag{Name: "full-name", Usage: "full name"},
			&cli.StringFlag{Name: "phone", Usage: "phone number"},
			&cli.StringFlag{Name: "avatar-url", Usage: "profile picture URL"},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "account password (prompted when omitted)",
				Sources: cli.EnvVars("WALLETGATE_PASSWORD"),
			},
		},
		Action: r.with(r.signup),
	}
}

func (r *runner) signup(ctx context.Context, cmd *cli.Command, a *app.App) error {
	var reg walletapi.Registration
	var err error

	if reg.Email, err = r.console.valueOr(cmd.String("email"), "Email: ", false); err != nil {
		return err
	}
	if reg.FullName, err = r.console.valueOr(cmd.String("full-name"), "Full name: ", false); err != nil {
		return err
	}
	if reg.PhoneNumber, err = r.console.valueOr(cmd.String("phone"), "Phone number: ", false); err != nil {
		return err
	}
	reg.AvatarURL = cmd.String("avatar-url")

	reg.Password = cmd.String("password")
	if reg.Password == "" {
		if reg.Password, err = r.console.secret("Password: "); err != nil {
			return err
		}
		confirm, err := r.console.secret("Confirm password: ")
		if err != nil {
			return err
		}
		if confirm != reg.Password {
			return errors.New("passwords do not match")
		}
	}

	if _, err := a.Client().Signup(ctx, reg); err != nil {
		return err
	}

	r.console.success("Account created for %s", reg.FullName)
	r.console.info("Next: walletgate set-pin")
	return nil
}

func (r *runner) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored session",
		Action: r.with(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			if err := a.Client().Logout(ctx); err != nil {
				return err
			}
			r.console.success("Signed out")
			return nil
		}),
	}
}

func (r *runner) statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "show the stored session",
		Action: r.with(r.status),
	}
}

func (r *runner) status(ctx context.Context, cmd *cli.Command, a *app.App) error {
	token, info, err := tokensource.NewStoreSource(a.Credentials()).Describe(ctx)
	if errors.Is(err, tokensource.ErrNoAccessToken) {
		r.console.warn("Not signed in")
		return nil
	}
	if err != nil {
		return err
	}

	rows := [][]string{
		{"refresh token", present(token.RefreshToken != "")},
	}
	if info != nil {
		rows = append(rows, []string{"subject", info.Subject})
		if !info.IssuedAt.IsZero() {
			rows = append(rows, []string{"issued", info.IssuedAt.Local().Format(time.DateTime)})
		}
	}

	switch {
	case token.Expiry.IsZero():
		rows = append(rows, []string{"access token", "opaque, expiry unknown"})
	case token.Valid():
		rows = append(rows, []string{"access token", color.GreenString("valid until %s", token.Expiry.Local().Format(time.DateTime))})
	default:
		rows = append(rows, []string{"access token", color.YellowString("expired %s, renewed on next request", token.Expiry.Local().Format(time.DateTime))})
	}

	r.console.title("Session")
	return r.console.table([]string{"field", "value"}, rows)
}

func present(ok bool) string {
	if ok {
		return color.GreenString("stored")
	}
	return color.RedString("missing")
}

// requirePin asks for the transaction PIN unless given, and verifies it with
// the backend before any money moves.
func (r *runner) requirePin(ctx context.Context, cmd *cli.Command, client *walletapi.Client) error {
	pin, err := r.console.valueOr(cmd.String("pin"), "PIN: ", true)
	if err != nil {
		return err
	}
	if err := client.VerifyPin(ctx, pin); err != nil {
		return fmt.Errorf("transaction not confirmed: %w", err)
	}
	return nil
}

func pinFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "pin",
		Usage:   "6-digit transaction PIN (prompted when omitted)",
		Sources: cli.EnvVars("WALLETGATE_PIN"),
	}
}
