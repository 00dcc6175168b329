package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dompetku/walletgate/internal/app"
	"github.com/dompetku/walletgate/internal/walletapi"
)

// defaultSource is the funding source for top-ups.
const defaultSource = "walled"

func (r *runner) topUpCommand() *cli.Command {
	return &cli.Command{
		Name:  "topup",
		Usage: "add funds to the wallet",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "amount", Usage: "amount in rupiah", Required: true},
			&cli.StringFlag{Name: "source", Usage: "source of funds", Value: defaultSource},
			&cli.StringFlag{Name: "notes", Usage: "note shown on the receipt"},
			pinFlag(),
		},
		Action: r.with(r.topUp),
	}
}

func (r *runner) topUp(ctx context.Context, cmd *cli.Command, a *app.App) error {
	client := a.Client()
	if err := r.requirePin(ctx, cmd, client); err != nil {
		return err
	}

	in := walletapi.TopUp{
		Amount:    cmd.Int64("amount"),
		Source:    cmd.String("source"),
		Notes:     strings.TrimSpace(cmd.String("notes")),
		Reference: walletapi.NewReference(walletapi.KindTopUp, time.Now()),
	}
	tx, err := client.TopUp(ctx, in)
	if err != nil {
		return err
	}

	return r.receipt("Top Up", in.Reference, in.Amount, tx, [][]string{
		{"source of fund", in.Source},
		{"notes", orDash(in.Notes)},
	})
}

func (r *runner) transferCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Usage:     "send funds to another wallet",
		ArgsUsage: "ACCOUNT_NUMBER",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "amount", Usage: "amount in rupiah", Required: true},
			&cli.StringFlag{Name: "description", Usage: "transfer description"},
			pinFlag(),
		},
		Action: r.with(r.transfer),
	}
}

func (r *runner) transfer(ctx context.Context, cmd *cli.Command, a *app.App) error {
	recipient := cmd.Args().First()
	if recipient == "" {
		return fmt.Errorf("missing recipient account number")
	}

	client := a.Client()
	if err := r.requirePin(ctx, cmd, client); err != nil {
		return err
	}

	in := walletapi.Transfer{
		RecipientAccountNumber: recipient,
		Amount:                 cmd.Int64("amount"),
		Description:            strings.TrimSpace(cmd.String("description")),
		Reference:              walletapi.NewReference(walletapi.KindTransfer, time.Now()),
	}
	tx, err := client.Transfer(ctx, in)
	if err != nil {
		return err
	}

	return r.receipt("Transfer", in.Reference, in.Amount, tx, [][]string{
		{"beneficiary", in.RecipientAccountNumber},
		{"notes", orDash(in.Description)},
	})
}

func (r *runner) donateCommand() *cli.Command {
	return &cli.Command{
		Name:  "donate",
		Usage: "donate (sedekah) a preset amount",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "amount", Usage: fmt.Sprintf("one of %v", walletapi.DonationAmounts), Required: true},
			pinFlag(),
		},
		Action: r.with(r.donate),
	}
}

func (r *runner) donate(ctx context.Context, cmd *cli.Command, a *app.App) error {
	amount := cmd.Int64("amount")
	if !slices.Contains(walletapi.DonationAmounts, amount) {
		return fmt.Errorf("donation amount must be one of %v", walletapi.DonationAmounts)
	}

	client := a.Client()
	if err := r.requirePin(ctx, cmd, client); err != nil {
		return err
	}

	tx, err := client.Donate(ctx, amount)
	if err != nil {
		return err
	}

	return r.receipt(walletapi.DonationDescription, "", amount, tx, nil)
}

// receipt prints the outcome of a transaction.
func (r *runner) receipt(kind, reference string, amount int64, tx *walletapi.Transaction, extra [][]string) error {
	r.console.success("Transaction Successful")

	rows := [][]string{{"type", kind}}
	if reference != "" {
		rows = append(rows, []string{"reference", reference})
	}
	if tx != nil && tx.ID != 0 {
		rows = append(rows, []string{"transaction id", fmt.Sprint(tx.ID)})
	}
	rows = append(rows, []string{"amount", walletapi.FormatRupiah(float64(amount))})
	rows = append(rows, extra...)
	rows = append(rows, []string{"time", time.Now().Format(time.DateTime)})

	return r.console.table([]string{"field", "value"}, rows)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
