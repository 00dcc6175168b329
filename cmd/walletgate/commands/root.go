package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/dompetku/walletgate/internal/app"
	"github.com/dompetku/walletgate/internal/envelope"
	"github.com/dompetku/walletgate/internal/gateway"
	"github.com/dompetku/walletgate/internal/observability"
	"github.com/dompetku/walletgate/internal/walletapi"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return newRootCommand(os.Stdin, os.Stdout, os.Stderr, os.Environ).Run(ctx, args)
}

// PrintError writes err for a human, pointing at the fix for an ended session.
func PrintError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprintf(w, "Error: %s\n", err)

	var apiErr *envelope.Error
	var verr *walletapi.ValidationError
	switch {
	case errors.Is(err, gateway.ErrNoRefreshToken),
		errors.Is(err, gateway.ErrRefreshRejected),
		errors.Is(err, gateway.ErrMalformedRefresh):
		color.New(color.FgCyan).Fprintln(w, "  Your session has ended. Run: walletgate login")
	case errors.As(err, &verr):
		for _, field := range slices.Sorted(maps.Keys(verr.Fields)) {
			color.New(color.FgCyan).Fprintf(w, "  %s: %s\n", field, verr.Fields[field])
		}
	case errors.As(err, &apiErr) && apiErr.Code >= 500:
		color.New(color.FgCyan).Fprintln(w, "  The wallet service is unavailable, try again later.")
	}
}

// environ is swapped in tests.
type environ func() []string

func newRootCommand(in io.Reader, out, errOut io.Writer, env environ) *cli.Command {
	con := newConsole(in, out, errOut)
	r := &runner{console: con, environ: env}

	return &cli.Command{
		Name:      "walletgate",
		Usage:     "Wallet client with automatic session renewal",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "wallet backend base URL",
				Value: app.DefaultConfigAPIBaseURL,
			},
			&cli.StringFlag{
				Name:  "auth--storage",
				Usage: "credential storage (file|keyring|env|redis|memory)",
				Value: string(app.DefaultConfigAuthStorage),
			},
			&cli.StringFlag{
				Name:  "auth--dir",
				Usage: "directory for file credential storage",
			},
		},
		Commands: []*cli.Command{
			r.loginCommand(),
			r.signupCommand(),
			r.logoutCommand(),
			r.statusCommand(),
			r.balanceCommand(),
			r.historyCommand(),
			r.setPinCommand(),
			r.topUpCommand(),
			r.transferCommand(),
			r.donateCommand(),
			r.requestCommand(),
			r.serveCommand(),
		},
	}
}

// runner builds the application for each command invocation.
type runner struct {
	console *console
	environ environ
}

// appAction is a command body run against a configured App.
type appAction func(ctx context.Context, cmd *cli.Command, a *app.App) error

// with loads configuration, sets up logging and the App, runs fn and releases
// everything afterwards.
func (r *runner) with(fn appAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd.String("config"), cmd, r.environ)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Set up observability before creating app
		shutdownLogs, err := observability.Instrument(ctx, cfg.LogLevel, string(cfg.LogFormat))
		if err != nil {
			return fmt.Errorf("failed to set up observability layer: %w", err)
		}
		defer func() { _ = shutdownLogs(context.WithoutCancel(ctx)) }()

		application, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to create app: %w", err)
		}
		defer func() {
			if err := application.Close(); err != nil {
				slog.WarnContext(ctx, "failed to close credential store", "error", err)
			}
		}()

		return fn(ctx, cmd, application)
	}
}
