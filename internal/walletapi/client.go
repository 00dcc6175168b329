// Package walletapi is a typed client for the wallet backend.
//
// Requests go through the *http.Client it is given; pair it with a
// gateway.Transport so calls carry the session's access token and survive
// token expiry. Semantic failures reported inside a response envelope are
// returned as *envelope.Error, gateway failures propagate unchanged.
package walletapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dompetku/walletgate/internal/credstore"
	"github.com/dompetku/walletgate/internal/envelope"
	"github.com/dompetku/walletgate/internal/gateway"
)

// Option configures a Client.
type Option func(*Client)

// WithDonationAccount sets the account number Donate transfers to.
func WithDonationAccount(account string) Option {
	return func(c *Client) {
		c.donationAccount = account
	}
}

// Client calls the wallet backend.
type Client struct {
	http            *http.Client
	baseURL         *url.URL
	creds           *credstore.Credentials
	validate        *validator.Validate
	donationAccount string
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, httpClient *http.Client, creds *credstore.Credentials, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", baseURL)
	}
	if httpClient == nil {
		return nil, fmt.Errorf("missing http client")
	}
	if creds == nil {
		return nil, fmt.Errorf("missing credentials")
	}

	c := &Client{
		http:     httpClient,
		baseURL:  u,
		creds:    creds,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Do sends a request with an optional JSON body and returns the decoded envelope.
// The envelope's responseCode is not checked. Use gateway.WithSkipAuth on ctx to
// send without credentials.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*envelope.Envelope, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	env, err := envelope.Read(resp)
	if err != nil {
		return env, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return env, nil
}

// call sends the request and checks the envelope against the accepted codes.
func (c *Client) call(ctx context.Context, method, path string, body any, codes ...int) (*envelope.Envelope, error) {
	if body != nil {
		if err := c.validate.Struct(body); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
	}

	env, err := c.Do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if err := env.Expect(codes...); err != nil {
		return env, err
	}
	return env, nil
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		ref = &url.URL{Path: path}
	}

	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String()
}

// skipAuth marks ctx for requests that must not carry the session token.
func skipAuth(ctx context.Context) context.Context {
	return gateway.WithSkipAuth(ctx)
}
