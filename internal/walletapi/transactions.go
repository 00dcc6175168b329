package walletapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dompetku/walletgate/internal/envelope"
)

// DonationDescription is attached to every donation transfer.
const DonationDescription = "Sedekah"

// DonationAmounts are the preset donation amounts in rupiah.
var DonationAmounts = []int64{1000, 2000, 5000, 10000, 20000, 50000, 100000, 200000}

// ErrNoDonationAccount is returned by Donate when no donation account is configured.
var ErrNoDonationAccount = errors.New("no donation account configured")

// Transaction kinds used in references.
const (
	KindTopUp    = "TOPUP"
	KindTransfer = "TRANSFER"
	KindDonation = "SEDEKAH"
)

var kindCodes = map[string]int{
	KindTopUp:    1,
	KindTransfer: 2,
	KindDonation: 3,
}

// NewReference returns a client-side transaction reference such as
// TX-2-MBQ3K1ZC-9F1A. Unknown kinds get code 0.
func NewReference(kind string, now time.Time) string {
	code := kindCodes[strings.ToUpper(strings.ReplaceAll(kind, " ", ""))]
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("TX-%d-%s-%s", code, stamp, suffix)
}

// Transactions returns the signed-in user's transaction history.
func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/transactions/me", nil, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	if isEmpty(env) {
		return nil, nil
	}
	return envelope.DecodeData[[]Transaction](env)
}

// TopUp adds funds to the wallet. The returned transaction is nil when the
// backend does not echo it.
func (c *Client) TopUp(ctx context.Context, in TopUp) (*Transaction, error) {
	if in.Reference == "" {
		in.Reference = NewReference(KindTopUp, time.Now())
	}
	env, err := c.call(ctx, http.MethodPost, "/api/transactions/topup", &in, http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, fmt.Errorf("top up: %w", err)
	}
	return decodeTransaction(env)
}

// Transfer sends funds to another wallet.
func (c *Client) Transfer(ctx context.Context, in Transfer) (*Transaction, error) {
	if in.Reference == "" {
		in.Reference = NewReference(KindTransfer, time.Now())
	}
	env, err := c.call(ctx, http.MethodPost, "/api/transactions/transfer", &in, http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}
	return decodeTransaction(env)
}

// Donate transfers amount to the configured donation account.
func (c *Client) Donate(ctx context.Context, amount int64) (*Transaction, error) {
	if c.donationAccount == "" {
		return nil, ErrNoDonationAccount
	}
	return c.Transfer(ctx, Transfer{
		RecipientAccountNumber: c.donationAccount,
		Amount:                 amount,
		Description:            DonationDescription,
		Reference:              NewReference(KindDonation, time.Now()),
	})
}

func decodeTransaction(env *envelope.Envelope) (*Transaction, error) {
	if isEmpty(env) {
		return nil, nil
	}
	tx, err := envelope.DecodeData[Transaction](env)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func isEmpty(env *envelope.Envelope) bool {
	return len(env.Data) == 0 || string(env.Data) == "null"
}
