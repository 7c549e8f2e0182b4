package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rbright/vendctl/internal/definition"
)

var (
	// ErrSessionLimit reports a registry that is already at capacity.
	ErrSessionLimit = errors.New("session limit reached")
	// ErrUnknownSession reports a key with no open session.
	ErrUnknownSession = errors.New("unknown session")
)

const (
	DefaultKey         = "default"
	DefaultMaxSessions = 64
)

// Options tunes a Registry. Zero values take the defaults above.
type Options struct {
	DefaultKey  string
	MaxSessions int
	Logger      *slog.Logger
}

// Registry shards sessions by key. Every session shares the definition's
// table and catalog but owns its own machine and history.
type Registry struct {
	def        definition.Definition
	defaultKey string
	max        int
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry for def.
func NewRegistry(def definition.Definition, opts Options) *Registry {
	key := strings.TrimSpace(opts.DefaultKey)
	if key == "" {
		key = DefaultKey
	}
	limit := opts.MaxSessions
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Registry{
		def:        def,
		defaultKey: key,
		max:        limit,
		logger:     logger,
		sessions:   make(map[string]*Session),
	}
}

// Definition returns the definition sessions are built from.
func (r *Registry) Definition() definition.Definition { return r.def }

// DefaultKey returns the key an empty session key maps to.
func (r *Registry) DefaultKey() string { return r.defaultKey }

// Get returns the session for key, creating it on first use.
func (r *Registry) Get(key string) (*Session, error) {
	key = r.normalize(key)

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		return s, nil
	}
	return r.createLocked(key)
}

// Open creates a session under a fresh random key.
func (r *Registry) Open() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(uuid.NewString())
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(key string) (*Session, bool) {
	key = r.normalize(key)

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Remove drops the session for key and reports whether it existed.
func (r *Registry) Remove(key string) bool {
	key = r.normalize(key)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[key]; !ok {
		return false
	}
	delete(r.sessions, key)
	r.logger.Info("session closed", "session", key)
	return true
}

// Keys returns the open session keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.sessions))
	for key := range r.sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) createLocked(key string) (*Session, error) {
	if len(r.sessions) >= r.max {
		return nil, fmt.Errorf("%w: %d open", ErrSessionLimit, len(r.sessions))
	}
	s, err := New(key, r.def, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create session %q: %w", key, err)
	}
	r.sessions[key] = s
	r.logger.Info("session opened", "session", key, "definition", r.def.Name, "state", s.State())
	return s, nil
}

func (r *Registry) normalize(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return r.defaultKey
	}
	return key
}
