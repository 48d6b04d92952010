// Package game owns the mutable state of every in-progress game and fans
// out notifications to its players (spec.md §4.F).
//
// Grounded on internal/game/party/manager.go: an atomic monotonic id
// counter plus a sync.RWMutex-guarded map at the registry level, and one
// exclusive lock per aggregate (there: per-party mutations under the
// manager's lock; here: per-game mutations under the game's own mutex,
// since unlike a party a game's notification fan-out is per-instance
// heavy enough to want its own lock rather than the whole registry's).
package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/blazecoop/internal/session"
)

// PlayerState mirrors spec.md §3's player-in-game lifecycle states.
type PlayerState int

const (
	ActiveConnecting PlayerState = iota
	ActiveConnected
	ActiveMigrating
	Reserved
	Queued
	Disconnected
)

// Player is one occupant of a game slot. It holds a weak link to its
// session: UserID is the lookup key into the session registry, never a
// held *session.Session, so the player and the session can each be torn
// down independently (spec.md §9's weak-back-reference guidance).
type Player struct {
	SessionID  uuid.UUID
	UserID     uint32
	Network    session.NetworkData
	State      PlayerState
	Attributes map[string]string
}

// RemoveReason is why a player left a game's slots (spec.md §4.F).
type RemoveReason int

const (
	ReasonGeneric RemoveReason = iota
	ReasonPlayerLeft
	ReasonGameDestroyed
	ReasonBlackListed
	ReasonMigrationFailed
	ReasonKickedOutOfGame
	ReasonPlayerLeftGameSession
	ReasonDisconnected
)

// JoinableState is the result of evaluating whether a game accepts new
// joiners, optionally against a rule-set.
type JoinableState int

const (
	Joinable JoinableState = iota
	Full
	NotJoinable
	Mismatched
)

// RuleSet is satisfied by matchmaking's derived rule-set. Declared here
// (rather than imported from the matchmaking package) so game has no
// dependency on matchmaking; matchmaking depends on game instead.
type RuleSet interface {
	Matches(attributes map[string]string, playerCount int) bool
}

// SetupContext describes why a player is being added, for the game-setup
// frame's MMSC sub-group.
type SetupContext struct {
	IsMatchmaking bool
	FitScore      uint32
	ResultCode    string // "JoinedExisting" or "CreatedGame"
	StartedAt     time.Time
}
