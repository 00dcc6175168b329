package walletapi

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// WalletType is the kind of account a wallet belongs to.
type WalletType string

const (
	WalletPersonal WalletType = "PERSONAL"
	WalletBusiness WalletType = "BUSINESS"
)

// Label returns the human readable account type.
func (t WalletType) Label() string {
	switch t {
	case WalletPersonal:
		return "Personal Account"
	case WalletBusiness:
		return "Business Account"
	default:
		return string(t)
	}
}

// User is the signed-in user's profile.
type User struct {
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// Wallet is the user's wallet.
type Wallet struct {
	ID            int64      `json:"id"`
	Balance       float64    `json:"balance"`
	AccountNumber string     `json:"accountNumber"`
	Type          WalletType `json:"type"`
}

// Profile is the payload of GET /api/users/me. Wallet is nil until the user
// has set a PIN and created a wallet.
type Profile struct {
	User   User    `json:"user"`
	Wallet *Wallet `json:"wallet"`
}

// Transaction is a wallet ledger entry.
type Transaction struct {
	ID                int64   `json:"id"`
	TransactionType   string  `json:"transactionType"`
	Amount            float64 `json:"amount"`
	RecipientWalletID *int64  `json:"recipientWalletId"`
	TransactionDate   string  `json:"transactionDate"`
	Description       string  `json:"description"`
	WalletID          int64   `json:"walletId"`
}

var transactionDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Time parses TransactionDate. Dates without a zone are read as local time.
func (t Transaction) Time() (time.Time, error) {
	for _, layout := range transactionDateLayouts {
		if ts, err := time.ParseInLocation(layout, t.TransactionDate, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized transaction date %q", t.TransactionDate)
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the signup request body.
type Registration struct {
	Email       string `json:"email" validate:"required,email"`
	FullName    string `json:"fullName" validate:"required"`
	Password    string `json:"password" validate:"required,min=8"`
	PhoneNumber string `json:"phoneNumber" validate:"required,numeric"`
	AvatarURL   string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
}

type pinRequest struct {
	PIN string `json:"pin" validate:"required,len=6,numeric"`
}

// TopUp is the top-up request body.
type TopUp struct {
	Amount    int64  `json:"amount" validate:"gt=0"`
	Source    string `json:"source" validate:"required"`
	Notes     string `json:"notes,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Transfer is the transfer request body.
type Transfer struct {
	RecipientAccountNumber string `json:"recipientAccountNumber" validate:"required"`
	Amount                 int64  `json:"amount" validate:"gt=0"`
	Description            string `json:"description,omitempty"`
	Reference              string `json:"reference,omitempty"`
}

// ValidationError is returned by Signup when the backend rejects individual fields.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}
