package credstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// EnvStore reads initial credentials from environment variables.
// Writes and deletes are kept in process memory, so a refreshed pair is only
// visible to the running process.
type EnvStore struct {
	prefix  string
	environ func(string) (string, bool)
	mem     *MemoryStore

	mu      sync.RWMutex
	deleted map[string]bool
}

// Compile-time check to ensure EnvStore implements Store
var _ Store = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore. Keys map to upper snake case variables with
// the given prefix, e.g. accessToken → WALLETGATE_ACCESS_TOKEN.
func NewEnvStore(prefix string) (*EnvStore, error) {
	if prefix == "" {
		return nil, fmt.Errorf("environment prefix cannot be empty")
	}

	return &EnvStore{
		prefix:  prefix,
		environ: os.LookupEnv,
		mem:     NewMemoryStore(),
		deleted: make(map[string]bool),
	}, nil
}

// VarName returns the environment variable consulted for key.
func (e *EnvStore) VarName(key string) string {
	return e.prefix + strings.ToUpper(camelBoundary.ReplaceAllString(key, "${1}_${2}"))
}

// Get returns the in-memory value if one was written, otherwise the environment value.
func (e *EnvStore) Get(ctx context.Context, key string) (string, error) {
	value, err := e.mem.Get(ctx, key)
	if !errors.Is(err, ErrNotFound) {
		return value, err
	}

	e.mu.RLock()
	deleted := e.deleted[key]
	e.mu.RUnlock()
	if deleted {
		return "", ErrNotFound
	}

	value, ok := e.environ(e.VarName(key))
	if !ok || value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

func (e *EnvStore) Set(ctx context.Context, key, value string) error {
	if err := e.mem.Set(ctx, key, value); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.deleted, key)
	e.mu.Unlock()
	return nil
}

// Delete hides the environment value for the rest of the process lifetime.
func (e *EnvStore) Delete(ctx context.Context, key string) error {
	if err := e.mem.Delete(ctx, key); err != nil {
		return err
	}
	e.mu.Lock()
	e.deleted[key] = true
	e.mu.Unlock()
	return nil
}
