package tokensource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/dompetku/walletgate/internal/credstore"
)

// ErrOpaqueToken is returned by Inspect when the token is not a JWT.
var ErrOpaqueToken = errors.New("token is not a JWT")

// ErrNoAccessToken is returned by StoreSource when no session is stored.
var ErrNoAccessToken = errors.New("no access token stored")

// Bearer returns an oauth2 bearer token for the access token.
func Bearer(accessToken string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}
}

// Info describes the registered claims of a JWT access token.
type Info struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that lies before now.
func (i *Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes the registered claims of a JWT without verifying its signature.
func Inspect(token string) (*Info, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	info := &Info{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// StoreSource serves the stored session as an oauth2.TokenSource.
// It never refreshes; refresh is the gateway's job.
type StoreSource struct {
	creds *credstore.Credentials
}

// Compile-time check to ensure StoreSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*StoreSource)(nil)

// NewStoreSource creates a StoreSource over creds.
func NewStoreSource(creds *credstore.Credentials) *StoreSource {
	return &StoreSource{creds: creds}
}

// Token returns the stored pair as an oauth2 token, with Expiry taken from the
// access token's exp claim when it is a JWT.
func (s *StoreSource) Token() (*oauth2.Token, error) {
	// oauth2.TokenSource.Token() has no context parameter (legacy interface limitation)
	tok, _, err := s.Describe(context.Background())
	return tok, err
}

// Describe returns the stored token together with its decoded claims. The
// access token is parsed once; info is nil when it is opaque.
func (s *StoreSource) Describe(ctx context.Context) (*oauth2.Token, *Info, error) {
	pair, err := s.creds.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if pair.AccessToken == "" {
		return nil, nil, ErrNoAccessToken
	}

	tok := Bearer(pair.AccessToken)
	tok.RefreshToken = pair.RefreshToken

	info, err := Inspect(pair.AccessToken)
	if err != nil {
		return tok, nil, nil
	}
	tok.Expiry = info.ExpiresAt
	return tok, info, nil
}
