package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/dompetku/walletgate/internal/app"
	"github.com/dompetku/walletgate/internal/envelope"
	"github.com/dompetku/walletgate/internal/gateway"
)

func (r *runner) requestCommand() *cli.Command {
	return &cli.Command{
		Name:      "request",
		Usage:     "send a raw request through the authenticated gateway",
		ArgsUsage: "METHOD PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON request body"},
			&cli.BoolFlag{Name: "skip-auth", Usage: "send without the session token"},
		},
		Action: r.with(r.request),
	}
}

func (r *runner) request(ctx context.Context, cmd *cli.Command, a *app.App) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("usage: walletgate request METHOD PATH")
	}
	method := strings.ToUpper(cmd.Args().Get(0))
	path := cmd.Args().Get(1)

	var body any
	if data := cmd.String("data"); data != "" {
		if !json.Valid([]byte(data)) {
			return fmt.Errorf("--data is not valid JSON")
		}
		body = json.RawMessage(data)
	}

	if cmd.Bool("skip-auth") {
		ctx = gateway.WithSkipAuth(ctx)
	}

	env, err := a.Client().Do(ctx, method, path, body)
	if err != nil && !errors.Is(err, envelope.ErrNotEnvelope) {
		return err
	}

	status := color.GreenString("%d", env.Status)
	if env.Status >= 400 {
		status = color.RedString("%d", env.Status)
	}
	r.console.info("HTTP %s  responseCode %d  %s", status, env.ResponseCode, env.Message)

	if len(env.Data) > 0 {
		var pretty any
		if err := json.Unmarshal(env.Data, &pretty); err == nil {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			r.console.info("%s", out)
		}
	}
	return nil
}
