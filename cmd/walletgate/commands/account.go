package commands

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/dompetku/walletgate/internal/app"
	"github.com/dompetku/walletgate/internal/walletapi"
)

func (r *runner) balanceCommand() *cli.Command {
	return &cli.Command{
		Name:   "balance",
		Usage:  "show the wallet and its balance",
		Action: r.with(r.balance),
	}
}

func (r *runner) balance(ctx context.Context, cmd *cli.Command, a *app.App) error {
	profile, err := a.Client().Me(ctx)
	if err != nil {
		return err
	}

	r.console.title(profile.User.FullName)
	if profile.Wallet == nil {
		r.console.warn("No wallet yet. Run: walletgate set-pin")
		return nil
	}

	w := profile.Wallet
	return r.console.table([]string{"account", "type", "balance"}, [][]string{
		{w.AccountNumber, w.Type.Label(), walletapi.FormatRupiah(w.Balance)},
	})
}

func (r *runner) historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list wallet transactions",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "show at most this many transactions (0 for all)", Value: 20},
		},
		Action: r.with(r.history),
	}
}

func (r *runner) history(ctx context.Context, cmd *cli.Command, a *app.App) error {
	txs, err := a.Client().Transactions(ctx)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		r.console.info("No transactions yet")
		return nil
	}

	if limit := cmd.Int("limit"); limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}

	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		date := tx.TransactionDate
		if ts, err := tx.Time(); err == nil {
			date = ts.Format(time.DateTime)
		}
		amount := walletapi.FormatRupiah(tx.Amount)
		if tx.RecipientWalletID != nil {
			amount = color.RedString("-" + amount)
		} else {
			amount = color.GreenString("+" + amount)
		}
		rows = append(rows, []string{strconv.FormatInt(tx.ID, 10), date, tx.TransactionType, amount, tx.Description})
	}

	return r.console.table([]string{"id", "date", "type", "amount", "description"}, rows)
}

func (r *runner) setPinCommand() *cli.Command {
	return &cli.Command{
		Name:   "set-pin",
		Usage:  "set the transaction PIN and create the wallet",
		Flags:  []cli.Flag{pinFlag()},
		Action: r.with(r.setPin),
	}
}

func (r *runner) setPin(ctx context.Context, cmd *cli.Command, a *app.App) error {
	pin := cmd.String("pin")
	if pin == "" {
		var err error
		if pin, err = r.console.secret("New 6-digit PIN: "); err != nil {
			return err
		}
		confirm, err := r.console.secret("Confirm PIN: ")
		if err != nil {
			return err
		}
		if confirm != pin {
			return errors.New("PINs do not match")
		}
	}

	client := a.Client()
	if err := client.SetPin(ctx, pin); err != nil {
		return err
	}
	r.console.success("PIN set")

	created, err := client.CreateWallet(ctx)
	if err != nil {
		return err
	}
	if created {
		r.console.success("Wallet created")
	} else {
		r.console.info("You already have a wallet")
	}
	return nil
}
