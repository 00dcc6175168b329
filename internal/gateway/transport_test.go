package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dompetku/walletgate/internal/credstore"
)

const (
	staleToken = "stale-access"
	freshToken = "fresh-access"
)

func writeEnvelope(w http.ResponseWriter, status, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"responseCode": code,
		"message":      message,
		"data":         data,
	})
}

// walletServer accepts only the fresh token and answers 403 otherwise.
// It echoes the request body so replays can be checked.
func walletServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var freshHits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.Header.Get("Authorization") != "Bearer "+freshToken {
			writeEnvelope(w, http.StatusForbidden, http.StatusForbidden, "token expired", nil)
			return
		}
		freshHits.Add(1)
		writeEnvelope(w, http.StatusOK, http.StatusOK, "ok", map[string]string{
			"path": r.URL.Path,
			"body": string(body),
		})
	}))
	t.Cleanup(srv.Close)

	return srv, &freshHits
}

func newCredentials(t *testing.T, store credstore.Store) *credstore.Credentials {
	t.Helper()
	creds, err := credstore.NewCredentials(store)
	require.NoError(t, err)
	require.NoError(t, creds.Save(context.Background(), credstore.Pair{
		AccessToken:  staleToken,
		RefreshToken: "stale-refresh",
	}))
	return creds
}

// rotatingRefresher saves the fresh pair, optionally blocking until release is closed.
type rotatingRefresher struct {
	creds   *credstore.Credentials
	release chan struct{}
	err     error
	calls   atomic.Int32
	// cancelled records whether Refresh saw a cancelled context.
	cancelled atomic.Bool
}

func (r *rotatingRefresher) Refresh(ctx context.Context) (string, error) {
	r.calls.Add(1)
	if r.release != nil {
		<-r.release
	}
	r.cancelled.Store(ctx.Err() != nil)
	if r.err != nil {
		return "", r.err
	}
	if err := r.creds.Save(ctx, credstore.Pair{AccessToken: freshToken, RefreshToken: "fresh-refresh"}); err != nil {
		return "", err
	}
	return freshToken, nil
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var v map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func waitForQueue(t *testing.T, tr *Transport, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, pending := tr.episode.snapshot()
		return pending == n
	}, 5*time.Second, 5*time.Millisecond, "requests never queued behind the refresh")
}

func TestTransport_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, http.StatusOK, "ok", nil)
	}))
	defer srv.Close()

	creds := newCredentials(t, credstore.NewMemoryStore())
	tr, err := New(creds, &rotatingRefresher{creds: creds})
	require.NoError(t, err)

	resp, err := (&http.Client{Transport: tr}).Get(srv.URL + "/api/users/me")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer "+staleToken, gotAuth)
}

func TestTransport_NoAccessTokenSendsWithoutHeader(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Values("Authorization")
		writeEnvelope(w, http.StatusOK, http.StatusOK, "ok", nil)
	}))
	defer srv.Close()

	creds, err := credstore.NewCredentials(credstore.NewMemoryStore())
	require.NoError(t, err)
	tr, err := New(creds, &rotatingRefresher{creds: creds})
	require.NoError(t, err)

	resp, err := (&http.Client{Transport: tr}).Get(srv.URL + "/api/users/me")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Empty(t, gotAuth)
}

// countingStore counts credential reads.
type countingStore struct {
	credstore.Store
	gets atomic.Int32
}

func (c *countingStore) Get(ctx context.Context, key string) (string, error) {
	c.gets.Add(1)
	return c.Store.Get(ctx, key)
}

func TestTransport_SkipAuth(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(req *http.Request) *http.Request
		wantAuth bool
	}{
		{
			name: "header true",
			prepare: func(req *http.Request) *http.Request {
				req.Header.Set(SkipAuthHeader, "true")
				return req
			},
		},
		{
			name: "raw header key",
			prepare: func(req *http.Request) *http.Request {
				req.Header["skipAuth"] = []string{"TRUE"}
				return req
			},
		},
		{
			name: "context marker",
			prepare: func(req *http.Request) *http.Request {
				return req.WithContext(WithSkipAuth(req.Context()))
			},
		},
		{
			name: "header false is stripped but ignored",
			prepare: func(req *http.Request) *http.Request {
				req.Header.Set(SkipAuthHeader, "false")
				return req
			},
			wantAuth: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotHeader http.Header
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotHeader = r.Header.Clone()
				writeEnvelope(w, http.StatusOK, http.StatusOK, "Login success", nil)
			}))
			defer srv.Close()

			store := &countingStore{Store: credstore.NewMemoryStore()}
			creds := newCredentials(t, store)
			tr, err := New(creds, &rotatingRefresher{creds: creds})
			require.NoError(t, err)
			store.gets.Store(0)

			req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/login", strings.NewReader(`{"email":"a@b.c"}`))
			require.NoError(t, err)
			req = tt.prepare(req)

			resp, err := tr.RoundTrip(req)
			require.NoError(t, err)
			_ = resp.Body.Close()

			for key := range gotHeader {
				assert.NotEqual(t, "skipauth", strings.ToLower(key), "skip-auth marker reached the network")
			}
			if tt.wantAuth {
				assert.Equal(t, "Bearer "+staleToken, gotHeader.Get("Authorization"))
				return
			}
			assert.Empty(t, gotHeader.Values("Authorization"))
			assert.Zero(t, store.gets.Load(), "skip-auth request read the credential store")
		})
	}
}

func TestTransport_SkipAuthDoesNotMutateCallerRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, http.StatusOK, "ok", nil)
	}))
	defer srv.Close()

	creds := newCredentials(t, credstore.NewMemoryStore())
	tr, err := New(creds, &rotatingRefresher{creds: creds})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/users/me", nil)
	require.NoError(t, err)
	req.Header.Set(SkipAuthHeader, "true")

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "true", req.Header.Get(SkipAuthHeader))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestTransport_ClientErrorsPassThrough(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, status, status, "Wrong PIN", nil)
			}))
			defer srv.Close()

			creds := newCredentials(t, credstore.NewMemoryStore())
			refresher := &rotatingRefresher{creds: creds}
			tr, err := New(creds, refresher)
			require.NoError(t, err)

			resp, err := (&http.Client{Transport: tr}).Post(srv.URL+"/auth/verify-pin", "application/json", strings.NewReader(`{"pin":"000000"}`))
			require.NoError(t, err)

			assert.Equal(t, status, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.EqualValues(t, status, body["responseCode"])
			assert.Zero(t, refresher.calls.Load(), "client error triggered a refresh")
		})
	}
}

func TestTransport_SemanticErrorOnSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, http.StatusNotFound, "Wallet not found", nil)
	}))
	defer srv.Close()

	creds := newCredentials(t, credstore.NewMemoryStore())
	refresher := &rotatingRefresher{creds: creds}
	tr, err := New(creds, refresher)
	require.NoError(t, err)

	resp, err := (&http.Client{Transport: tr}).Get(srv.URL + "/api/wallets")
	require.NoError(t, err)

	assert.EqualValues(t, http.StatusNotFound, decodeBody(t, resp)["responseCode"])
	assert.Zero(t, refresher.calls.Load())
}

func TestTransport_ServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, http.StatusInternalServerError, "database unavailable", nil)
	}))
	defer srv.Close()

	creds := newCredentials(t, credstore.NewMemoryStore())
	tr, err := New(creds, &rotatingRefresher{creds: creds})
	require.NoError(t, err)

	_, err = (&http.Client{Transport: tr}).Get(srv.URL + "/api/transactions/me")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "database unavailable", statusErr.Envelope.Message)
}

func TestTransport_TransportFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	creds := newCredentials(t, credstore.NewMemoryStore())
	refresher := &rotatingRefresher{creds: creds}
	tr, err := New(creds, refresher)
	require.NoError(t, err)

	_, err = (&http.Client{Transport: tr}).Get(url + "/api/users/me")
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
	assert.Zero(t, refresher.calls.Load())
}

func TestTransport_RefreshesAndReplays(t *testing.T) {
	srv, freshHits := walletServer(t)

	creds := newCredentials(t, credstore.NewMemoryStore())
	refresher := &rotatingRefresher{creds: creds}
	tr, err := New(creds, refresher)
	require.NoError(t, err)

	resp, err := (&http.Client{Transport: tr}).Post(srv.URL+"/api/transactions/transfer", "application/json", strings.NewReader(`{"amount":50000}`))
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, `{"amount":50000}`, data["body"], "replay must resend the original body")
	assert.EqualValues(t, 1, refresher.calls.Load())
	assert.EqualValues(t, 1, freshHits.Load())

	pair, err := creds.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, credstore.Pair{AccessToken: freshToken, RefreshToken: "fresh-refresh"}, pair)

	state, pending := tr.episode.snapshot()
	assert.Equal(t, stateIdle, state)
	assert.Zero(t, pending)
}

func TestTransport_SingleRefreshForConcurrentFailures(t *testing.T) {
	const n = 8
	srv, freshHits := walletServer(t)

	creds := newCredentials(t, credstore.NewMemoryStore())
	refresher := &rotatingRefresher{creds: creds, release: make(chan struct{})}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	tr, err := New(creds, refresher, WithMetrics(metrics))
	require.NoError(t, err)
	client := &http.Client{Transport: tr}

	var g errgroup.Group
	statuses := make([]int, n)
	for i := range n {
		g.Go(func() error {
			resp, err := client.Get(srv.URL + "/api/users/me")
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()
			statuses[i] = resp.StatusCode
			return nil
		})
	}

	waitForQueue(t, tr, n-1)
	close(refresher.release)
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, refresher.calls.Load(), "exactly one refresh per episode")
	assert.EqualValues(t, n, freshHits.Load(), "every request replayed with the new token")
	for i, status := range statuses {
		assert.Equal(t, http.StatusOK, status, "request %d", i)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.refreshes.WithLabelValues("success")))
	assert.Equal(t, float64(n-1), testutil.ToFloat64(metrics.queued))
	assert.Equal(t, float64(n), testutil.ToFloat64(metrics.replays.WithLabelValues(replayCompleted)))
}

func TestTransport_LateRejectionReusesRenewedToken(t *testing.T) {
	slowArrived := make(chan struct{})
	releaseSlow := make(chan struct{})
	var slowOnce sync.Once

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if r.URL.Path == "/api/transactions/me" && auth == "Bearer "+staleToken {
			// Hold the stale request until another request has renewed the session
			slowOnce.Do(func() { close(slowArrived) })
			<-releaseSlow
		}
		if auth != "Bearer "+freshToken {
			writeEnvelope(w, http.StatusForbidden, http.StatusForbidden, "token expired", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, http.StatusOK, "ok", nil)
	}))
	defer srv.Close()

	creds := newCredentials(t, credstore.NewMemoryStore())
	refresher := &rotatingRefresher{creds: creds}
	tr, err := New(creds, refresher)
	require.NoError(t, err)
	client := &http.Client{Transport: tr}

	slowDone := make(chan int, 1)
	go func() {
		resp, err := client.Get(srv.URL + "/api/transactions/me")
		if err != nil {
			slowDone <- 0
			return
		}
		_ = resp.Body.Close()
		slowDone <- resp.StatusCode
	}()
	<-slowArrived

	resp, err := client.Get(srv.URL + "/api/users/me")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 1, refresher.calls.Load())

	close(releaseSlow)

	assert.Equal(t, http.StatusOK, <-slowDone, "late rejection replays with the stored token")
	assert.EqualValues(t, 1, refresher.calls.Load(), "no second refresh for a token already replaced")
}

func TestTransport_RejectedAfterReplayFailsPermanently(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeEnvelope(w, http.StatusForbidden, http.StatusForbidden, "access denied", nil)
	}))
	defer srv.Close()

	creds := newCredentials(t, credstore.NewMemoryStore())
	refresher := &rotatingRefresher{creds: creds}
	tr, err := New(creds, refresher)
	require.NoError(t, err)

	_, err = (&http.Client{Transport: tr}).Get(srv.URL + "/api/users/me")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.EqualValues(t, 1, refresher.calls.Load(), "no second refresh for a replayed request")
	assert.EqualValues(t, 2, hits.Load(), "original send plus one replay")
}

func TestTransport_RefreshFailureClearsSessionAndRejectsQueue(t *testing.T) {
	const n = 4
	srv, freshHits := walletServer(t)

	creds := newCredentials(t, credstore.NewMemoryStore())
	refreshErr := errors.New("refresh token revoked")
	refresher := &rotatingRefresher{creds: creds, release: make(chan struct{}), err: refreshErr}
	tr, err := New(creds, refresher)
	require.NoError(t, err)
	client := &http.Client{Transport: tr}

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Get(srv.URL + "/api/transactions/me")
			if err == nil {
				_ = resp.Body.Close()
			}
			errs[i] = err
		}()
	}

	waitForQueue(t, tr, n-1)
	close(refresher.release)
	wg.Wait()

	for i, err := range errs {
		assert.ErrorIs(t, err, refreshErr, "request %d", i)
	}
	assert.EqualValues(t, 1, refresher.calls.Load())
	assert.Zero(t, freshHits.Load())

	pair, err := creds.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, credstore.Pair{}, pair, "credentials must be wiped")

	state, pending := tr.episode.snapshot()
	assert.Equal(t, stateIdle, state)
	assert.Zero(t, pending)
}

func TestTransport_RefreshEndpointRejection(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeEnvelope(w, http.StatusOK, http.StatusUnauthorized, "Invalid refresh token", nil)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusForbidden, http.StatusForbidden, "token expired", nil)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := newCredentials(t, credstore.NewMemoryStore())
	refresher, err := NewEndpointRefresher(srv.URL+DefaultRefreshPath, srv.Client(), creds)
	require.NoError(t, err)
	tr, err := New(creds, refresher)
	require.NoError(t, err)

	_, err = (&http.Client{Transport: tr}).Get(srv.URL + "/api/users/me")

	require.ErrorIs(t, err, ErrRefreshRejected)
	assert.EqualValues(t, 1, refreshCalls.Load())
	pair, err := creds.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, credstore.Pair{}, pair)
}

func TestTransport_MissingRefreshTokenFailsWithoutNetworkCall(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusForbidden, http.StatusForbidden, "token expired", nil)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := credstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), credstore.AccessTokenKey, staleToken))
	creds, err := credstore.NewCredentials(store)
	require.NoError(t, err)
	refresher, err := NewEndpointRefresher(srv.URL+DefaultRefreshPath, srv.Client(), creds)
	require.NoError(t, err)
	tr, err := New(creds, refresher)
	require.NoError(t, err)

	_, err = (&http.Client{Transport: tr}).Get(srv.URL + "/api/users/me")

	require.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Zero(t, refreshCalls.Load())
	access, err := creds.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, access)
}

func TestTransport_SkipAuthRequestIsNotRecovered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusForbidden, http.StatusForbidden, "Invalid email or password", nil)
	}))
	defer srv.Close()

	creds := newCredentials(t, credstore.NewMemoryStore())
	refresher := &rotatingRefresher{creds: creds}
	tr, err := New(creds, refresher)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(WithSkipAuth(context.Background()), http.MethodPost, srv.URL+"/auth/login", strings.NewReader(`{}`))
	require.NoError(t, err)

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, refresher.calls.Load())
}

func TestTransport_QueuedRequestHonorsCancellation(t *testing.T) {
	srv, _ := walletServer(t)

	creds := newCredentials(t, credstore.NewMemoryStore())
	refresher := &rotatingRefresher{creds: creds, release: make(chan struct{})}
	tr, err := New(creds, refresher)
	require.NoError(t, err)
	client := &http.Client{Transport: tr}

	leaderDone := make(chan error, 1)
	go func() {
		resp, err := client.Get(srv.URL + "/api/users/me")
		if err == nil {
			_ = resp.Body.Close()
		}
		leaderDone <- err
	}()
	require.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	followerDone := make(chan error, 1)
	go func() {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/transactions/me", nil)
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
		}
		followerDone <- err
	}()
	waitForQueue(t, tr, 1)

	cancel()
	assert.ErrorIs(t, <-followerDone, context.Canceled)

	close(refresher.release)
	assert.NoError(t, <-leaderDone)

	state, pending := tr.episode.snapshot()
	assert.Equal(t, stateIdle, state)
	assert.Zero(t, pending)
}

func TestTransport_RefreshOutlivesLeaderCancellation(t *testing.T) {
	srv, _ := walletServer(t)

	creds := newCredentials(t, credstore.NewMemoryStore())
	refresher := &rotatingRefresher{creds: creds, release: make(chan struct{})}
	tr, err := New(creds, refresher)
	require.NoError(t, err)
	client := &http.Client{Transport: tr}

	ctx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/users/me", nil)
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
		}
		leaderDone <- err
	}()
	require.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	followerDone := make(chan int, 1)
	go func() {
		resp, err := client.Get(srv.URL + "/api/transactions/me")
		if err != nil {
			followerDone <- 0
			return
		}
		_ = resp.Body.Close()
		followerDone <- resp.StatusCode
	}()
	waitForQueue(t, tr, 1)

	cancel()
	close(refresher.release)

	assert.Error(t, <-leaderDone, "leader's own replay is cancelled")
	assert.Equal(t, http.StatusOK, <-followerDone, "queued request still gets the refreshed token")
	assert.False(t, refresher.cancelled.Load(), "refresh ran with the leader's cancelled context")
}

func TestNew_Validation(t *testing.T) {
	creds := newCredentials(t, credstore.NewMemoryStore())
	refresher := &rotatingRefresher{creds: creds}

	_, err := New(nil, refresher)
	assert.Error(t, err)

	_, err = New(creds, nil)
	assert.Error(t, err)

	_, err = New(creds, refresher, WithExpiredStatus(http.StatusInternalServerError))
	assert.Error(t, err)

	tr, err := New(creds, refresher, WithExpiredStatus(http.StatusUnauthorized))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, tr.expiredStatus)
}
