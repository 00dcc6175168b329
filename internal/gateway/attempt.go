package gateway

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/dompetku/walletgate/internal/tokensource"
)

// attempt is one logical request as the gateway sees it: the authorized
// outbound request plus whether it has already been replayed.
type attempt struct {
	req      *http.Request
	token    string // access token sent, empty when none
	skipAuth bool
	retried  bool
}

// newAttempt makes req replayable, buffering its body if it cannot be rewound.
func newAttempt(req *http.Request, skipAuth bool) (*attempt, error) {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("buffering request body: %w", err)
		}
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		req.Body, _ = req.GetBody()
	}

	return &attempt{req: req, skipAuth: skipAuth}, nil
}

// replay returns a fresh copy of the request authorized with token.
func (a *attempt) replay(token string) (*http.Request, error) {
	out := a.req.Clone(a.req.Context())
	if a.req.GetBody != nil {
		body, err := a.req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		out.Body = body
	}

	tokensource.Bearer(token).SetAuthHeader(out)
	return out, nil
}
