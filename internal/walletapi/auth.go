package walletapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dompetku/walletgate/internal/credstore"
	"github.com/dompetku/walletgate/internal/envelope"
)

const validationFailedMessage = "Validation failed"

// Login signs in without credentials and stores the issued session pair.
func (c *Client) Login(ctx context.Context, in Credentials) (credstore.Pair, error) {
	env, err := c.call(skipAuth(ctx), http.MethodPost, "/auth/login", in, http.StatusOK)
	if err != nil {
		return credstore.Pair{}, fmt.Errorf("login: %w", err)
	}
	return c.saveSession(ctx, env)
}

// Signup registers a new user and stores the issued session pair. Field-level
// rejections are returned as *ValidationError.
func (c *Client) Signup(ctx context.Context, in Registration) (credstore.Pair, error) {
	env, err := c.call(skipAuth(ctx), http.MethodPost, "/auth/signup", in, http.StatusOK, http.StatusCreated)
	if err != nil {
		if verr := validationError(env); verr != nil {
			return credstore.Pair{}, fmt.Errorf("signup: %w", verr)
		}
		return credstore.Pair{}, fmt.Errorf("signup: %w", err)
	}
	return c.saveSession(ctx, env)
}

// Logout forgets the stored session.
func (c *Client) Logout(ctx context.Context) error {
	return c.creds.Clear(ctx)
}

func (c *Client) saveSession(ctx context.Context, env *envelope.Envelope) (credstore.Pair, error) {
	pair, err := envelope.DecodeData[credstore.Pair](env)
	if err != nil {
		return credstore.Pair{}, err
	}
	if err := c.validate.Struct(pair); err != nil {
		return credstore.Pair{}, fmt.Errorf("incomplete session in response: %w", err)
	}
	if err := c.creds.Save(ctx, pair); err != nil {
		return credstore.Pair{}, err
	}
	return pair, nil
}

// validationError extracts per-field messages from a rejected signup.
func validationError(env *envelope.Envelope) *ValidationError {
	if env == nil || env.Message != validationFailedMessage {
		return nil
	}

	var fields map[string]string
	if err := json.Unmarshal(env.Data, &fields); err != nil {
		return &ValidationError{Message: env.Message}
	}
	return &ValidationError{Message: env.Message, Fields: fields}
}
