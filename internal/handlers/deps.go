package handlers

import (
	"github.com/udisondev/blazecoop/internal/game"
	"github.com/udisondev/blazecoop/internal/matchmaking"
	"github.com/udisondev/blazecoop/internal/session"
	"github.com/udisondev/blazecoop/internal/store"
)

// Deps collects every collaborator the handler table needs to build its
// closures. Constructed once at boot (cmd/blazeserver) and threaded through
// Table.
type Deps struct {
	Store    store.Store
	Sessions *session.Registry
	Games    *game.Registry
	Match    *matchmaking.Service
}
