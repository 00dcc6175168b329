package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dompetku/walletgate/internal/gateway"
)

// Envelope mirrors the backend's response wrapper so callers see one error shape.
type Envelope struct {
	ResponseCode int    `json:"responseCode"`
	Message      string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeEnvelope writes an envelope-shaped error whose responseCode matches status.
func writeEnvelope(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, Envelope{ResponseCode: status, Message: message}, status)
}

// handleUpstreamError maps gateway failures to responses.
func handleUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var statusErr *gateway.StatusError
	switch {
	case errors.As(err, &statusErr):
		message := http.StatusText(statusErr.StatusCode)
		if statusErr.Envelope != nil && statusErr.Envelope.Message != "" {
			message = statusErr.Envelope.Message
		}
		writeEnvelope(ctx, w, statusErr.StatusCode, message)
	case errors.Is(err, gateway.ErrNoRefreshToken),
		errors.Is(err, gateway.ErrRefreshRejected),
		errors.Is(err, gateway.ErrMalformedRefresh):
		slog.WarnContext(ctx, "session ended", "error", err)
		writeEnvelope(ctx, w, http.StatusUnauthorized, "session expired, log in again")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		slog.WarnContext(ctx, "upstream request timed out", "error", err)
		writeEnvelope(ctx, w, http.StatusGatewayTimeout, "upstream request timed out")
	case errors.Is(err, context.Canceled):
		// Client went away, nothing to write
	default:
		slog.ErrorContext(ctx, "upstream request failed", "error", err)
		writeEnvelope(ctx, w, http.StatusBadGateway, "upstream request failed")
	}
}
