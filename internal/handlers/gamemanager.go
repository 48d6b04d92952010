package handlers

import (
	"context"
	"fmt"

	"github.com/udisondev/blazecoop/internal/game"
	"github.com/udisondev/blazecoop/internal/router"
	"github.com/udisondev/blazecoop/internal/tdf"
)

// defaultGameCapacity mirrors game.Game's own default, used whenever a
// CreateGame request omits CAP.
const defaultGameCapacity = 4

func readAttrMap(dec *tdf.Decoder, tag string) (map[string]string, error) {
	n, err := dec.Map(tag, tdf.TypeString, tdf.TypeString)
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]string, n)
	for i := 0; i < n; i++ {
		k, err := dec.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := dec.ReadString()
		if err != nil {
			return nil, err
		}
		attrs[k] = v
	}
	return attrs, nil
}

// CreateGame allocates a new public game hosted by the requesting player
// and processes the matchmaking queue against it (spec.md §4.F, §4.G step
// "process the queue").
func (d Deps) CreateGame(ctx context.Context, sess router.Session, body []byte) ([]byte, error) {
	live, err := liveSession(sess)
	if err != nil {
		return nil, err
	}
	userID, err := requireUser(ctx, sess)
	if err != nil {
		return nil, err
	}

	dec := tdf.NewDecoder(body)
	attrs, err := readAttrMap(dec, "ATTR")
	if err != nil {
		return nil, &router.DecodingError{Err: err}
	}
	capacity := defaultGameCapacity
	if cap8, err := dec.VarIntU8("CAP "); err == nil && cap8 > 0 {
		capacity = int(cap8)
	}

	host := &game.Player{SessionID: live.ID(), UserID: userID, Network: live.NetworkData()}
	g, err := d.Match.CreatePublicGame(host, live, attrs, capacity)
	if err != nil {
		return nil, wrapSystem(fmt.Errorf("creating game: %w", err))
	}

	enc := tdf.NewEncoder(8)
	enc.WriteU32("GID ", g.ID())
	return enc.Bytes(), nil
}

// StartMatchmake runs quick-match for the requester against the existing
// game pool, falling back to the queue when no joinable game matches
// (spec.md §4.G, §8 scenarios 3/4).
func (d Deps) StartMatchmake(ctx context.Context, sess router.Session, body []byte) ([]byte, error) {
	live, err := liveSession(sess)
	if err != nil {
		return nil, err
	}
	userID, err := requireUser(ctx, sess)
	if err != nil {
		return nil, err
	}

	dec := tdf.NewDecoder(body)
	attrs, err := readAttrMap(dec, "ATTR")
	if err != nil {
		return nil, &router.DecodingError{Err: err}
	}

	requester := &game.Player{SessionID: live.ID(), UserID: userID, Network: live.NetworkData()}
	g, matched, err := d.Match.QuickMatch(requester, live, attrs)
	if err != nil {
		return nil, wrapSystem(fmt.Errorf("quick match: %w", err))
	}

	enc := tdf.NewEncoder(8)
	enc.WriteBool("MTCH", matched)
	if matched {
		enc.WriteU32("GID ", g.ID())
	}
	return enc.Bytes(), nil
}

// CancelMatchmake drops the requester's queue entry, if any, and clears the
// session's active-game pointer (spec.md §4.G).
func (d Deps) CancelMatchmake(ctx context.Context, sess router.Session, body []byte) ([]byte, error) {
	userID, err := requireUser(ctx, sess)
	if err != nil {
		return nil, err
	}
	d.Match.Cancel(userID)
	if live, err := liveSession(sess); err == nil {
		live.ClearActiveGame()
	}
	return nil, nil
}

// RemovePlayer removes a player from a game's slots, tearing the game down
// if the removed player was the host (spec.md §4.F).
func (d Deps) RemovePlayer(ctx context.Context, sess router.Session, body []byte) ([]byte, error) {
	if _, err := requireUser(ctx, sess); err != nil {
		return nil, err
	}

	dec := tdf.NewDecoder(body)
	gameID, err := dec.VarIntU32("GID ")
	if err != nil {
		return nil, &router.DecodingError{Err: err}
	}
	targetID, err := dec.VarIntU32("PID ")
	if err != nil {
		return nil, &router.DecodingError{Err: err}
	}
	reason, _ := dec.VarIntU8("RSN ")

	g, ok := d.Games.Get(gameID)
	if !ok {
		return nil, nil
	}
	wasHost, removed := g.RemovePlayer(targetID, game.RemoveReason(reason))
	if removed && wasHost {
		d.Games.Remove(gameID)
	}
	return nil, nil
}

// SetAttributes merges attribute updates into a game and re-scans the
// matchmaking queue against it, since an attribute change can make a
// previously unjoinable game joinable (spec.md §4.G's refresh rule).
func (d Deps) SetAttributes(ctx context.Context, sess router.Session, body []byte) ([]byte, error) {
	if _, err := requireUser(ctx, sess); err != nil {
		return nil, err
	}

	dec := tdf.NewDecoder(body)
	gameID, err := dec.VarIntU32("GID ")
	if err != nil {
		return nil, &router.DecodingError{Err: err}
	}
	updates, err := readAttrMap(dec, "ATTR")
	if err != nil {
		return nil, &router.DecodingError{Err: err}
	}

	g, ok := d.Games.Get(gameID)
	if !ok {
		return nil, wrapSystem(fmt.Errorf("set attributes: game %d not found", gameID))
	}
	g.SetAttributes(updates)
	d.Match.RescanQueue(g)
	return nil, nil
}
