package walletapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dompetku/walletgate/internal/envelope"
)

// Me returns the signed-in user's profile and wallet.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/users/me", nil, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}

	profile, err := envelope.DecodeData[Profile](env)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// HasPin reports whether the user has set a transaction PIN.
func (c *Client) HasPin(ctx context.Context) (bool, error) {
	env, err := c.call(ctx, http.MethodPost, "/api/users/has-pin", nil, http.StatusOK)
	if err != nil {
		return false, fmt.Errorf("checking pin: %w", err)
	}

	// The flag is either the data itself or wrapped in an object
	var flag bool
	if err := json.Unmarshal(env.Data, &flag); err == nil {
		return flag, nil
	}
	var wrapped struct {
		HasPin bool `json:"hasPin"`
	}
	if err := json.Unmarshal(env.Data, &wrapped); err != nil {
		return false, fmt.Errorf("decoding pin status: %w", err)
	}
	return wrapped.HasPin, nil
}

// SetPin sets the 6-digit transaction PIN.
func (c *Client) SetPin(ctx context.Context, pin string) error {
	if _, err := c.call(ctx, http.MethodPost, "/auth/set-pin", &pinRequest{PIN: pin}, http.StatusOK); err != nil {
		return fmt.Errorf("setting pin: %w", err)
	}
	return nil
}

// VerifyPin checks pin against the stored transaction PIN.
func (c *Client) VerifyPin(ctx context.Context, pin string) error {
	if _, err := c.call(ctx, http.MethodPost, "/auth/verify-pin", &pinRequest{PIN: pin}, http.StatusOK); err != nil {
		return fmt.Errorf("verifying pin: %w", err)
	}
	return nil
}

// CreateWallet creates the user's wallet. It reports false when the user
// already has one.
func (c *Client) CreateWallet(ctx context.Context) (bool, error) {
	env, err := c.call(ctx, http.MethodPost, "/api/wallets", nil, http.StatusCreated, http.StatusOK, http.StatusBadRequest)
	if err != nil {
		return false, fmt.Errorf("creating wallet: %w", err)
	}
	return env.ResponseCode != http.StatusBadRequest, nil
}
