// Package handlers wires the protocol's (component, command) table to the
// session, game, and matchmaking machinery: the concrete implementations
// that make internal/protocolconst's command numbers, and the collaborators
// they address, actually reachable from a client frame.
//
// Grounded on internal/gameserver/handler.go's per-command function style:
// one small function per command, a request struct decoded at the top, a
// response struct encoded at the bottom, collaborators reached through
// already-built registries rather than re-implemented inline.
package handlers

import (
	"context"
	"fmt"

	"github.com/udisondev/blazecoop/internal/router"
	"github.com/udisondev/blazecoop/internal/session"
)

// liveSession recovers the concrete *session.Session from the narrow
// router.Session a handler is given. router.Session only exposes UserID()
// so router tests can run without a real session; the handlers here that
// need the richer session API (Notify, SetUser, ActiveGame, ...) call this,
// and the one type ever wired into the router table is *session.Session,
// matching how matchmaking.Service's own methods already take *session.Session
// directly rather than an interface.
func liveSession(sess router.Session) (*session.Session, error) {
	live, ok := sess.(*session.Session)
	if !ok {
		return nil, fmt.Errorf("handlers: session type %T does not support this command", sess)
	}
	return live, nil
}

// requireUser resolves the authenticated user id off sess, or returns
// AuthenticationRequired.
func requireUser(ctx context.Context, sess router.Session) (uint32, error) {
	userID, ok := sess.UserID()
	if !ok {
		return 0, errAuthRequired
	}
	return userID, nil
}
