package gateway

import "sync"

type episodeState int

const (
	stateIdle episodeState = iota
	stateRefreshing
)

func (s episodeState) String() string {
	if s == stateRefreshing {
		return "refreshing"
	}
	return "idle"
}

// outcome is what a queued request receives when the episode ends.
type outcome struct {
	token string
	err   error
}

// episode tracks the single in-flight refresh and the requests waiting on it.
// The queue is only non-empty while the state is refreshing.
type episode struct {
	mu      sync.Mutex
	state   episodeState
	pending []chan outcome
}

// enter opens an episode if none is running and reports leader=true. Otherwise
// the caller is queued and receives its outcome on the returned channel.
func (e *episode) enter() (wait <-chan outcome, leader bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateIdle {
		e.state = stateRefreshing
		return nil, true
	}

	// Buffered so drain never blocks on a waiter that gave up
	ch := make(chan outcome, 1)
	e.pending = append(e.pending, ch)
	return ch, false
}

// drain releases every queued request in arrival order with the same outcome
// and closes the episode. Returns the number of released requests.
func (e *episode) drain(token string, err error) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.pending)
	for _, ch := range e.pending {
		ch <- outcome{token: token, err: err}
	}
	e.pending = nil
	e.state = stateIdle
	return n
}

// snapshot returns the current state and queue length.
func (e *episode) snapshot() (episodeState, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, len(e.pending)
}
