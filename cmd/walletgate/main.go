// Command walletgate is a command-line wallet client and local authenticated
// forwarder for the wallet backend.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dompetku/walletgate/cmd/walletgate/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := commands.Execute(ctx, os.Args)
	stop()
	if err != nil {
		commands.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
