package game

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/udisondev/blazecoop/internal/session"
)

// Registry owns every in-progress game. It holds the monotonic id
// allocator and the id→game map; everything else receives the game by id
// and looks it up through Get, since games are not externally pollable
// (spec.md §4.F).
type Registry struct {
	mu       sync.RWMutex
	games    map[uint32]*Game
	nextID   atomic.Uint32
	sessions *session.Registry
}

// NewRegistry builds an empty game Registry.
func NewRegistry(sessions *session.Registry) *Registry {
	return &Registry{
		games:    make(map[uint32]*Game),
		sessions: sessions,
	}
}

// NextID allocates the next game id.
func (r *Registry) NextID() uint32 {
	return r.nextID.Add(1)
}

// Create builds a new game under a freshly allocated id and inserts it.
func (r *Registry) Create(setting uint32, attrs map[string]string, capacity int) *Game {
	id := r.NextID()
	g := New(id, setting, attrs, capacity, r.sessions)

	r.mu.Lock()
	r.games[id] = g
	r.mu.Unlock()

	return g
}

// Get returns the game for id, if present.
func (r *Registry) Get(id uint32) (*Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	return g, ok
}

// Remove drops id from the registry. It does not touch the active-game
// pointers of the game's players' sessions, and neither LeaveGame nor the
// RemovePlayer handler clears them after calling it.
func (r *Registry) Remove(id uint32) {
	r.mu.Lock()
	delete(r.games, id)
	r.mu.Unlock()
}

// Scan calls fn for every game in the registry, in unspecified order,
// until fn returns false. Used by matchmaking to find the first joinable
// game matching a rule-set (spec.md §9: scan order is intentionally
// unspecified).
func (r *Registry) Scan(fn func(*Game) bool) {
	r.mu.RLock()
	games := make([]*Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	r.mu.RUnlock()

	for _, g := range games {
		if !fn(g) {
			return
		}
	}
}

// LeaveGame implements session.GameLeaveNotifier: a session whose teardown
// finds it owns an active game removes the player from that game's slots,
// tearing the whole game down if it was the host (spec.md §4.D, §4.F).
func (r *Registry) LeaveGame(ctx context.Context, gameID uint32, userID uint32, sessionID uuid.UUID) {
	g, ok := r.Get(gameID)
	if !ok {
		return
	}

	wasHost, removed := g.RemovePlayer(userID, ReasonPlayerLeft)
	if !removed {
		return
	}
	if wasHost {
		r.Remove(gameID)
	}
}
