package game

import (
	"fmt"
	"sync"

	"github.com/udisondev/blazecoop/internal/protocolconst"
	"github.com/udisondev/blazecoop/internal/session"
)

const defaultCapacity = 4

// ErrGameFull is returned by AddPlayer when the game's slots are at
// capacity.
var ErrGameFull = fmt.Errorf("game: at capacity")

// Game is the server-side aggregate for one in-progress match. All
// mutation goes through its exclusive lock; notifications are fanned out
// while the lock is held, but pushing a frame onto a player's session is
// itself non-blocking (it only enqueues onto that session's write queue).
type Game struct {
	mu sync.Mutex

	id       uint32
	state    uint8
	setting  uint32
	attrs    map[string]string
	modifiers []string
	slots    []*Player
	capacity int

	sessions *session.Registry
}

// New constructs an empty game. Capacity defaults to 4 (spec.md §3) when
// capacity <= 0.
func New(id uint32, setting uint32, attrs map[string]string, capacity int, sessions *session.Registry) *Game {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if attrs == nil {
		attrs = make(map[string]string)
	}
	return &Game{
		id:       id,
		setting:  setting,
		attrs:    attrs,
		capacity: capacity,
		sessions: sessions,
	}
}

// ID returns the game's registry-assigned id.
func (g *Game) ID() uint32 { return g.id }

// Attributes returns a copy of the game's current attribute map.
func (g *Game) Attributes() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyAttrs(g.attrs)
}

// PlayerCount returns the number of occupied slots.
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.slots)
}

// IsHost reports whether userID occupies slot 0.
func (g *Game) IsHost(userID uint32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.slots) > 0 && g.slots[0].UserID == userID
}

// AddPlayer appends player to the game's slots, rejecting the call if the
// game is already at capacity. On success it sends the game-setup and
// post-join frames to the new player and broadcasts a player-joined frame
// to the rest of the slots (spec.md §4.F).
func (g *Game) AddPlayer(player *Player, ctx SetupContext) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.slots) >= g.capacity {
		return ErrGameFull
	}

	admins := make([]uint32, 0, len(g.slots)+1)
	for _, p := range g.slots {
		admins = append(admins, p.UserID)
	}
	admins = append(admins, player.UserID)

	var host *Player
	if len(g.slots) > 0 {
		host = g.slots[0]
	} else {
		host = player
	}

	g.slots = append(g.slots, player)

	g.sendTo(player.UserID, protocolconst.NotifyGameSetup, encodeGameSetup(g, host, admins, ctx))
	g.sendTo(player.UserID, protocolconst.NotifyGameSetup, encodePostJoin(g))

	joined := encodePlayerJoined(player)
	for _, p := range g.slots[:len(g.slots)-1] {
		g.sendTo(p.UserID, protocolconst.NotifyPlayerJoining, joined)
	}
	return nil
}

// RemovePlayer locates the slot for userID and removes it. Removing the
// host tears the game down entirely: the caller (the registry) must also
// remove the game from its map; RemovePlayer itself only reports whether
// the removed slot was the host.
func (g *Game) RemovePlayer(userID uint32, reason RemoveReason) (wasHost bool, removed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := -1
	for i, p := range g.slots {
		if p.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, false
	}

	wasHost = idx == 0
	g.slots = append(g.slots[:idx], g.slots[idx+1:]...)

	if wasHost {
		body := encodePlayerRemoved(userID, reason)
		for _, p := range g.slots {
			g.sendTo(p.UserID, protocolconst.NotifyPlayerRemoved, body)
		}
		return true, true
	}

	body := encodePlayerRemoved(userID, reason)
	for _, p := range g.slots {
		g.sendTo(p.UserID, protocolconst.NotifyPlayerRemoved, body)
	}
	return false, true
}

// SetState writes the game's state byte and broadcasts a state-update
// notification.
func (g *Game) SetState(state uint8) {
	g.mu.Lock()
	g.state = state
	body := encodeStateChange(state)
	g.broadcastLocked(protocolconst.NotifyGameStateChange, body)
	g.mu.Unlock()
}

// State returns the game's current state byte.
func (g *Game) State() uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// SetAttributes merges updates into the stored attribute map (new keys
// added, existing overwritten) and broadcasts an attribute-update.
func (g *Game) SetAttributes(updates map[string]string) {
	g.mu.Lock()
	for k, v := range updates {
		g.attrs[k] = v
	}
	body := encodeAttribChange(g.attrs)
	g.broadcastLocked(protocolconst.NotifyGameAttribChange, body)
	g.mu.Unlock()
}

// SetPlayerAttributes merges updates into one player's attribute map and
// broadcasts a per-player attribute update.
func (g *Game) SetPlayerAttributes(userID uint32, updates map[string]string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.slots {
		if p.UserID != userID {
			continue
		}
		if p.Attributes == nil {
			p.Attributes = make(map[string]string)
		}
		for k, v := range updates {
			p.Attributes[k] = v
		}
		body := encodePlayerAttribChange(userID, p.Attributes)
		g.broadcastLocked(protocolconst.NotifyPlayerAttribChange, body)
		return true
	}
	return false
}

// JoinableState reports whether the game currently accepts new joiners,
// optionally filtered by a matchmaking rule-set.
func (g *Game) JoinableState(rules RuleSet) JoinableState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.attrs["coopGameVisibility"] != "1" {
		return NotJoinable
	}
	if len(g.slots) >= g.capacity {
		return Full
	}
	if rules != nil && !rules.Matches(g.attrs, len(g.slots)) {
		return Mismatched
	}
	return Joinable
}

// NotifyGameReplay broadcasts the replay-start notification.
func (g *Game) NotifyGameReplay() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcastLocked(protocolconst.NotifyGameReplay, nil)
}

func (g *Game) broadcastLocked(command uint16, body []byte) {
	for _, p := range g.slots {
		g.sendTo(p.UserID, command, body)
	}
}

func (g *Game) sendTo(userID uint32, command uint16, body []byte) {
	if g.sessions == nil {
		return
	}
	sess, ok := g.sessions.Lookup(userID)
	if !ok {
		return
	}
	sess.Notify(uint16(protocolconst.ComponentGameManager), command, body)
}

func copyAttrs(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
