package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dompetku/walletgate/internal/envelope"
)

var (
	// ErrNoRefreshToken is returned when a refresh is needed but no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token found")

	// ErrRefreshRejected is returned when the refresh endpoint does not answer with the ok code.
	ErrRefreshRejected = errors.New("refresh token rejected")

	// ErrMalformedRefresh is returned when the refresh endpoint answers with an unusable payload.
	ErrMalformedRefresh = errors.New("malformed refresh response")
)

// StatusError reports a response the gateway does not hand back to the caller:
// a server error, or the expired status seen again after a replay.
type StatusError struct {
	StatusCode int
	Envelope   *envelope.Envelope
}

func (e *StatusError) Error() string {
	if e.Envelope != nil && e.Envelope.Message != "" && e.Envelope.Message != http.StatusText(e.StatusCode) {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Envelope.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// newStatusError consumes and closes the response body.
func newStatusError(resp *http.Response) *StatusError {
	// A body that is not an envelope still yields a synthesized one
	env, _ := envelope.Read(resp)
	return &StatusError{StatusCode: resp.StatusCode, Envelope: env}
}
