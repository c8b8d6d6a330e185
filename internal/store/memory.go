package store

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/aaronzipp/echo-chamber/internal/game"
	"github.com/aaronzipp/echo-chamber/internal/models"
	"github.com/aaronzipp/echo-chamber/internal/session"
)

// Registry manages the live sessions of this process
type Registry struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
	log      *slog.Logger

	// NewRand seeds each session's randomness; nil means time-seeded
	NewRand func() game.Rand
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		sessions: make(map[string]*session.Session),
		log:      logger,
	}
}

// Create stores a new lobby session under a fresh code. The code is drawn and
// inserted under one write lock, so it is unique among live sessions.
func (r *Registry) Create(hostID string, params models.Params) *session.Session {
	var rng game.Rand
	if r.NewRand != nil {
		rng = r.NewRand()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code := game.GetUniqueRoomCode(func(code string) bool {
		_, exists := r.sessions[code]
		return exists
	})
	s := session.New(code, hostID, params, rng, r.log)
	r.sessions[code] = s

	r.log.Info("created session", "room", code, "host", hostID, "network", params.NetworkType, "rounds", params.TotalRounds)
	return s
}

// Get retrieves a session by code, case-insensitively
func (r *Registry) Get(code string) (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, exists := r.sessions[NormalizeCode(code)]
	return s, exists
}

// Lookup is Get with ErrRoomNotFound for unknown codes
func (r *Registry) Lookup(code string) (*session.Session, error) {
	s, ok := r.Get(code)
	if !ok {
		return nil, session.ErrRoomNotFound
	}
	return s, nil
}

// Delete removes a session and reports whether it was live
func (r *Registry) Delete(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	code = NormalizeCode(code)
	if _, ok := r.sessions[code]; !ok {
		return false
	}
	delete(r.sessions, code)
	r.log.Info("removed session", "room", code)
	return true
}

// Exists checks if a session code is live
func (r *Registry) Exists(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.sessions[NormalizeCode(code)]
	return exists
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// All returns the live sessions ordered by code
func (r *Registry) All() []*session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := slices.Sorted(maps.Keys(r.sessions))
	out := make([]*session.Session, 0, len(codes))
	for _, code := range codes {
		out = append(out, r.sessions[code])
	}
	return out
}

// Codes returns the live session codes, sorted
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.sessions))
}

// SessionsHostedBy returns the sessions id is the facilitator of
func (r *Registry) SessionsHostedBy(id string) []*session.Session {
	return r.filter(func(s *session.Session) bool { return s.IsHost(id) })
}

// SessionsWith returns the sessions id facilitates or takes part in
func (r *Registry) SessionsWith(id string) []*session.Session {
	return r.filter(func(s *session.Session) bool { return s.IsHost(id) || s.HasPlayer(id) })
}

func (r *Registry) filter(keep func(*session.Session) bool) []*session.Session {
	var out []*session.Session
	for _, s := range r.All() {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// Close drops every session; used at process shutdown
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.Info("closing registry", "sessions", len(r.sessions))
	clear(r.sessions)
}

// NormalizeCode trims and upper-cases a user-entered code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
