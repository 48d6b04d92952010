package matchmaking

import (
	"sync"
	"time"

	"github.com/udisondev/blazecoop/internal/game"
	"github.com/udisondev/blazecoop/internal/session"
)

// DefaultFitScore is used for every quick-match join; spec.md §4.G leaves
// fit-score computation out of scope and calls for a fixed configured
// value instead.
const DefaultFitScore = 100

type queuedPlayer struct {
	userID uint32
	rules  RuleSet
	sess   *session.Session
}

// Service implements quick-match, public-game creation, and queue
// maintenance against a shared game registry (spec.md §4.G). The queue is
// a single mutex-guarded slice; unlike the session and game registries it
// holds live *session.Session pointers directly, since spec.md's
// weak-reference guidance (§9) targets session<->game cross-links, not
// the matchmaking queue.
type Service struct {
	games *game.Registry

	mu    sync.Mutex
	queue []queuedPlayer
}

// NewService builds a matchmaking Service bound to games.
func NewService(games *game.Registry) *Service {
	return &Service{games: games}
}

// QuickMatch scans for the first joinable game matching attrs. If one is
// found, requester joins it immediately. Otherwise requester is enqueued
// to be matched against a future CreatePublicGame or attribute update.
func (s *Service) QuickMatch(requester *game.Player, sess *session.Session, attrs map[string]string) (matched *game.Game, found bool, err error) {
	rules := Derive(attrs)

	var target *game.Game
	s.games.Scan(func(g *game.Game) bool {
		if g.JoinableState(rules) == game.Joinable {
			target = g
			return false
		}
		return true
	})

	if target == nil {
		s.enqueue(requester.UserID, rules, sess)
		return nil, false, nil
	}

	if err := target.AddPlayer(requester, game.SetupContext{
		IsMatchmaking: true,
		FitScore:      DefaultFitScore,
		ResultCode:    "JoinedExisting",
		StartedAt:     time.Now(),
	}); err != nil {
		return nil, false, err
	}
	sess.SetActiveGame(target.ID())
	return target, true, nil
}

// CreatePublicGame allocates a new game, seats host at slot 0, then scans
// the queue for any waiting player whose rule-set matches the new game
// and seats them too (spec.md §4.G's "process the queue" step).
func (s *Service) CreatePublicGame(host *game.Player, sess *session.Session, attrs map[string]string, capacity int) (*game.Game, error) {
	g := s.games.Create(0, attrs, capacity)

	if err := g.AddPlayer(host, game.SetupContext{ResultCode: "CreatedGame", StartedAt: time.Now()}); err != nil {
		return nil, err
	}
	sess.SetActiveGame(g.ID())

	s.matchQueueAgainst(g)
	return g, nil
}

// Cancel removes userID's queue entry, if any. It is a no-op if userID is
// not queued. Callers are responsible for clearing the session's
// active-game pointer themselves (spec.md §4.G).
func (s *Service) Cancel(userID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.queue {
		if q.userID == userID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

// RescanQueue re-evaluates the queue against g's current attributes,
// seating anyone who now matches. Called after set_attributes makes a
// previously unjoinable game joinable (spec.md §4.G's attribute-update
// refresh rule).
func (s *Service) RescanQueue(g *game.Game) {
	if g.JoinableState(nil) != game.Joinable {
		return
	}
	s.matchQueueAgainst(g)
}

func (s *Service) matchQueueAgainst(g *game.Game) {
	for {
		q, ok := s.dequeueMatching(g)
		if !ok {
			return
		}
		if g.JoinableState(q.rules) != game.Joinable {
			// Capacity filled up or attributes no longer match; put it
			// back and stop.
			s.enqueue(q.userID, q.rules, q.sess)
			return
		}
		player := &game.Player{UserID: q.userID}
		if err := g.AddPlayer(player, game.SetupContext{
			IsMatchmaking: true,
			FitScore:      DefaultFitScore,
			ResultCode:    "JoinedExisting",
			StartedAt:     time.Now(),
		}); err != nil {
			return
		}
		q.sess.SetActiveGame(g.ID())
	}
}

func (s *Service) enqueue(userID uint32, rules RuleSet, sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, queuedPlayer{userID: userID, rules: rules, sess: sess})
}

func (s *Service) dequeueMatching(g *game.Game) (queuedPlayer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attrs := g.Attributes()
	for i, q := range s.queue {
		if q.rules.Matches(attrs, g.PlayerCount()) {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return q, true
		}
	}
	return queuedPlayer{}, false
}
