package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"

	"github.com/dompetku/walletgate/internal/credstore"
	"github.com/dompetku/walletgate/internal/envelope"
)

// DefaultRefreshPath is the backend path exchanging a refresh token for a new pair.
const DefaultRefreshPath = "/auth/refresh"

// refreshOKCode is the envelope responseCode of a successful refresh.
const refreshOKCode = http.StatusOK

// Refresher obtains a new access token, persisting the new credential pair.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// RefresherFunc adapts a function to the Refresher interface.
type RefresherFunc func(ctx context.Context) (string, error)

func (f RefresherFunc) Refresh(ctx context.Context) (string, error) {
	return f(ctx)
}

// EndpointRefresher calls the backend refresh endpoint:
//
//	POST /auth/refresh?refreshToken=<token>
//	{"responseCode": 200, "message": "...", "data": {"accessToken": "...", "refreshToken": "..."}}
//
// Its client must not route through a Transport, or an expired refresh call
// would recurse into another refresh.
type EndpointRefresher struct {
	client   *http.Client
	endpoint *url.URL
	creds    *credstore.Credentials
	validate *validator.Validate
}

// Compile-time check to ensure EndpointRefresher implements Refresher
var _ Refresher = (*EndpointRefresher)(nil)

// NewEndpointRefresher creates an EndpointRefresher posting to endpoint with client.
func NewEndpointRefresher(endpoint string, client *http.Client, creds *credstore.Credentials) (*EndpointRefresher, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("refresh endpoint must be absolute: %q", endpoint)
	}
	if client == nil {
		return nil, fmt.Errorf("missing http client")
	}
	if creds == nil {
		return nil, fmt.Errorf("missing credentials")
	}

	return &EndpointRefresher{
		client:   client,
		endpoint: u,
		creds:    creds,
		validate: validator.New(),
	}, nil
}

// Refresh exchanges the stored refresh token for a new pair, saves it and
// returns the new access token.
func (r *EndpointRefresher) Refresh(ctx context.Context) (string, error) {
	refreshToken, err := r.creds.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("reading refresh token: %w", err)
	}
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	u := *r.endpoint
	queryFrag, err := runtime.StyleParamWithLocation("form", true, "refreshToken", runtime.ParamLocationQuery, refreshToken)
	if err != nil {
		return "", fmt.Errorf("encoding refresh token: %w", err)
	}
	query, err := url.ParseQuery(queryFrag)
	if err != nil {
		return "", fmt.Errorf("encoding refresh token: %w", err)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("building refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling refresh endpoint: %w", err)
	}

	env, err := envelope.Read(resp)
	if err != nil {
		return "", fmt.Errorf("%w: status %d: %v", ErrMalformedRefresh, resp.StatusCode, err)
	}
	if env.ResponseCode != refreshOKCode {
		return "", fmt.Errorf("%w: responseCode %d: %s", ErrRefreshRejected, env.ResponseCode, env.Message)
	}

	pair, err := envelope.DecodeData[credstore.Pair](env)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedRefresh, err)
	}
	if err := r.validate.Struct(pair); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedRefresh, err)
	}

	if err := r.creds.Save(ctx, pair); err != nil {
		return "", fmt.Errorf("persisting refreshed credentials: %w", err)
	}

	return pair.AccessToken, nil
}
