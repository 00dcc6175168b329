package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"

	"github.com/dompetku/walletgate/internal/credstore"
	"github.com/dompetku/walletgate/internal/tokensource"
)

// DefaultExpiredStatus is the status the backend uses for an expired access token.
const DefaultExpiredStatus = http.StatusForbidden

// maxDiscard bounds how much of a rejected response is drained for connection reuse.
const maxDiscard = 64 << 10

var traceContext = propagation.TraceContext{}

// Option configures a Transport.
type Option func(*Transport)

// WithBase sets the transport used for outbound requests and replays.
// If not provided, http.DefaultTransport is used.
func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = base
	}
}

// WithExpiredStatus sets the status treated as "credential expired".
func WithExpiredStatus(status int) Option {
	return func(t *Transport) {
		t.expiredStatus = status
	}
}

// WithMetrics records refresh and replay activity.
func WithMetrics(m *Metrics) Option {
	return func(t *Transport) {
		t.metrics = m
	}
}

// Transport authorizes requests with the stored access token and recovers from
// expired credentials. It is safe for concurrent use; one Transport holds one
// refresh episode state, so share it across all clients of the same session.
type Transport struct {
	base          http.RoundTripper
	creds         *credstore.Credentials
	refresher     Refresher
	expiredStatus int
	metrics       *Metrics

	episode episode
}

// Compile-time check that Transport implements http.RoundTripper.
var _ http.RoundTripper = (*Transport)(nil)

// New creates a Transport reading credentials from creds and renewing them with refresher.
func New(creds *credstore.Credentials, refresher Refresher, opts ...Option) (*Transport, error) {
	if creds == nil {
		return nil, fmt.Errorf("missing credentials")
	}
	if refresher == nil {
		return nil, fmt.Errorf("missing refresher")
	}

	t := &Transport{
		base:          http.DefaultTransport,
		creds:         creds,
		refresher:     refresher,
		expiredStatus: DefaultExpiredStatus,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.base == nil {
		return nil, fmt.Errorf("missing base transport")
	}
	if t.expiredStatus < 400 || t.expiredStatus > 499 {
		return nil, fmt.Errorf("expired status must be a client error, got %d", t.expiredStatus)
	}

	return t, nil
}

// RoundTrip implements http.RoundTripper interface.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	logger := slog.Default().With(
		"request_id", uuid.NewString(),
		"method", req.Method,
		"path", req.URL.Path,
	)

	a, err := t.authorize(req, logger)
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}

	resp, err := t.base.RoundTrip(a.req)
	if err != nil {
		logger.DebugContext(ctx, "transport failure", "error", err)
		return nil, err
	}

	return t.handle(a, resp, logger)
}

// authorize builds the outbound request: skip-auth marker stripped, bearer
// token attached unless skipped, trace context propagated.
func (t *Transport) authorize(req *http.Request, logger *slog.Logger) (*attempt, error) {
	ctx := req.Context()
	out := req.Clone(ctx)

	var token string
	skip := stripSkipAuth(ctx, out.Header)
	if skip {
		logger.DebugContext(ctx, "sending without credentials")
	} else {
		var err error
		token, err = t.creds.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading access token: %w", err)
		}
		if token != "" {
			tokensource.Bearer(token).SetAuthHeader(out)
		} else {
			logger.DebugContext(ctx, "no access token stored")
		}
	}

	traceContext.Inject(ctx, propagation.HeaderCarrier(out.Header))

	a, err := newAttempt(out, skip)
	if err != nil {
		return nil, err
	}
	a.token = token
	return a, nil
}

// handle classifies a response: pass through, recover, or fail.
func (t *Transport) handle(a *attempt, resp *http.Response, logger *slog.Logger) (*http.Response, error) {
	switch {
	case resp.StatusCode == t.expiredStatus && !a.skipAuth:
		return t.recover(a, resp, logger)
	case resp.StatusCode < http.StatusInternalServerError:
		// Client errors carry an envelope the caller branches on
		return resp, nil
	default:
		return nil, newStatusError(resp)
	}
}

// recover refreshes credentials (or waits for the running refresh) and replays
// the request once.
func (t *Transport) recover(a *attempt, resp *http.Response, logger *slog.Logger) (*http.Response, error) {
	ctx := a.req.Context()

	if a.retried {
		logger.WarnContext(ctx, "refreshed credential rejected", "status", resp.StatusCode)
		return nil, newStatusError(resp)
	}
	a.retried = true
	discard(resp)

	token, err := t.renewedToken(ctx, a, logger)
	if err != nil {
		return nil, err
	}

	replay, err := a.replay(token)
	if err != nil {
		return nil, err
	}

	resp, err = t.base.RoundTrip(replay)
	switch {
	case err != nil:
		t.metrics.observeReplay(replayFailed)
		logger.DebugContext(ctx, "replay transport failure", "error", err)
		return nil, err
	case resp.StatusCode == t.expiredStatus:
		t.metrics.observeReplay(replayRejected)
	default:
		t.metrics.observeReplay(replayCompleted)
	}

	return t.handle(a, resp, logger)
}

// renewedToken returns the token to replay with. A refresh that finished after
// the request went out has already stored a newer token, which is used as is.
func (t *Transport) renewedToken(ctx context.Context, a *attempt, logger *slog.Logger) (string, error) {
	stored, err := t.creds.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("reading access token: %w", err)
	}
	if stored != "" && stored != a.token {
		logger.DebugContext(ctx, "credentials already renewed, replaying")
		return stored, nil
	}
	return t.awaitToken(ctx, logger)
}

// awaitToken returns a fresh access token, either by leading a refresh episode
// or by waiting for the one in progress.
func (t *Transport) awaitToken(ctx context.Context, logger *slog.Logger) (string, error) {
	wait, leader := t.episode.enter()
	if leader {
		return t.refresh(ctx, logger)
	}

	t.metrics.observeQueued()
	logger.DebugContext(ctx, "refresh in progress, queueing request")

	select {
	case o := <-wait:
		return o.token, o.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh runs the episode's single refresh call and releases the queue.
// Closing the episode is the last step on both paths.
func (t *Transport) refresh(ctx context.Context, logger *slog.Logger) (string, error) {
	// Queued requests depend on this call, so it must outlive the leader's request
	ctx = context.WithoutCancel(ctx)

	logger.InfoContext(ctx, "refreshing credentials")
	start := time.Now()
	token, err := t.refresher.Refresh(ctx)
	t.metrics.observeRefresh(time.Since(start), err)

	if err != nil {
		if clearErr := t.creds.Clear(ctx); clearErr != nil {
			logger.ErrorContext(ctx, "failed to clear credentials", "error", clearErr)
		}
		released := t.episode.drain("", err)
		logger.WarnContext(ctx, "credential refresh failed, session cleared", "error", err, "released", released)
		return "", err
	}

	released := t.episode.drain(token, nil)
	logger.InfoContext(ctx, "credentials refreshed", "released", released)
	return token, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDiscard))
	_ = resp.Body.Close()
}
