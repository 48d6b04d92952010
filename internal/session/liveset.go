package session

import (
	"context"
	"sync"
	"time"
)

// LiveSet tracks every connected session by its connection id, regardless
// of authentication state. Registry only tracks authenticated users, but
// spec.md §4.D's 40s keep-alive timeout applies to a session the instant
// it connects — LiveSet is the separate tracking surface that makes that
// possible, grounded on the same sync.Map-keyed-table idiom Registry uses
// (internal/login.SessionManager) applied to connection id instead of
// user id.
type LiveSet struct {
	sessions sync.Map // map[uuid.UUID]*Session
}

// NewLiveSet builds an empty LiveSet.
func NewLiveSet() *LiveSet {
	return &LiveSet{}
}

// Add registers sess for idle sweeping.
func (l *LiveSet) Add(sess *Session) {
	l.sessions.Store(sess.ID(), sess)
}

// Remove drops sess from tracking. Safe to call more than once.
func (l *LiveSet) Remove(sess *Session) {
	l.sessions.Delete(sess.ID())
}

// Sweep closes every tracked session idle for longer than maxIdle. Run
// periodically from one background goroutine (spec.md §7: a single sweep
// loop, not a per-session ticker).
func (l *LiveSet) Sweep(maxIdle time.Duration) {
	l.sessions.Range(func(key, value any) bool {
		sess := value.(*Session)
		if sess.IdleFor() > maxIdle {
			sess.Close()
		}
		return true
	})
}

// RunSweepLoop runs Sweep every interval until ctx is cancelled.
func (l *LiveSet) RunSweepLoop(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(maxIdle)
		}
	}
}
