package session

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/source"
)

// Registry holds the open sessions of a server process
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
	logger   *slog.Logger
}

// NewRegistry creates an empty registry whose sessions share opts
func NewRegistry(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts.Logger = logger
	return &Registry{
		sessions: make(map[string]*Session),
		opts:     opts,
		logger:   logger,
	}
}

// Create opens a new session over doc
func (r *Registry) Create(doc *source.Document) *Session {
	id := uuid.NewString()
	s := New(id, doc, r.opts)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.Info("session opened", "session", id, "kind", doc.Kind, "origin", doc.Origin)
	return s
}

// Get returns the session with the given id
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, signerrors.Newf(signerrors.ErrorTypeNotFound, "session %s not found", id)
	}
	return s, nil
}

// Close discards a session
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return signerrors.Newf(signerrors.ErrorTypeNotFound, "session %s not found", id)
	}
	delete(r.sessions, id)
	r.logger.Info("session closed", "session", id)
	return nil
}

// List summarizes every open session, oldest first
func (r *Registry) List() []Summary {
	r.mu.RLock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	out := make([]Summary, 0, len(all))
	for _, s := range all {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
