// Package envelope decodes the {responseCode, message, data} wrapper used by
// every wallet backend response.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
)

// maxBodySize bounds how much of a response body is read into memory.
const maxBodySize = 4 << 20

// ErrNotEnvelope is returned when a response body is not a JSON envelope.
var ErrNotEnvelope = errors.New("response is not a JSON envelope")

// Envelope is the backend's response wrapper.
type Envelope struct {
	ResponseCode int             `json:"responseCode"`
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data,omitempty"`

	// Status is the HTTP status the envelope arrived with.
	Status int `json:"-"`
}

// Error is a semantic failure reported inside an envelope.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.Code)
	}
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// Read consumes and closes the response body.
//
// The returned envelope is never nil: when the body is not a JSON envelope it is
// synthesized from the HTTP status, and the error wraps ErrNotEnvelope.
func Read(resp *http.Response) (*Envelope, error) {
	defer func() { _ = resp.Body.Close() }()

	fallback := &Envelope{
		ResponseCode: resp.StatusCode,
		Message:      http.StatusText(resp.StatusCode),
		Status:       resp.StatusCode,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fallback, fmt.Errorf("reading response body: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fallback, fmt.Errorf("%w: %v", ErrNotEnvelope, err)
	}
	env.Status = resp.StatusCode
	return &env, nil
}

// Expect returns nil if the embedded response code is one of codes, and an
// *Error carrying the code and message otherwise.
func (e *Envelope) Expect(codes ...int) error {
	if slices.Contains(codes, e.ResponseCode) {
		return nil
	}
	return &Error{Code: e.ResponseCode, Message: e.Message}
}

// DecodeData unmarshals the envelope's data field into a T.
func DecodeData[T any](e *Envelope) (T, error) {
	var v T
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return v, fmt.Errorf("envelope has no data")
	}
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return v, fmt.Errorf("decoding envelope data: %w", err)
	}
	return v, nil
}
