package credstore

import (
	"context"
	"errors"
	"fmt"
)

// Keys under which the session pair is stored.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Pair is the access/refresh credential pair issued by the backend.
type Pair struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Credentials stores the session pair in a Store.
type Credentials struct {
	store Store
}

// NewCredentials creates Credentials backed by store.
func NewCredentials(store Store) (*Credentials, error) {
	if store == nil {
		return nil, fmt.Errorf("missing credential store")
	}
	return &Credentials{store: store}, nil
}

// AccessToken returns the stored access token, or "" if none is stored.
func (c *Credentials) AccessToken(ctx context.Context) (string, error) {
	return c.get(ctx, AccessTokenKey)
}

// RefreshToken returns the stored refresh token, or "" if none is stored.
func (c *Credentials) RefreshToken(ctx context.Context) (string, error) {
	return c.get(ctx, RefreshTokenKey)
}

// Load returns both stored tokens. Missing tokens are returned as "".
func (c *Credentials) Load(ctx context.Context) (Pair, error) {
	access, err := c.AccessToken(ctx)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := c.RefreshToken(ctx)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Save overwrites the stored pair. Both tokens must be non-empty.
func (c *Credentials) Save(ctx context.Context, pair Pair) error {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return fmt.Errorf("incomplete credential pair")
	}
	if err := c.store.Set(ctx, AccessTokenKey, pair.AccessToken); err != nil {
		return fmt.Errorf("saving access token: %w", err)
	}
	if err := c.store.Set(ctx, RefreshTokenKey, pair.RefreshToken); err != nil {
		return fmt.Errorf("saving refresh token: %w", err)
	}
	return nil
}

// Clear deletes both tokens. Both deletes are attempted even if the first fails.
func (c *Credentials) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{AccessTokenKey, RefreshTokenKey} {
		if err := c.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("deleting %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Credentials) get(ctx context.Context, key string) (string, error) {
	value, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}
