package handlers

import (
	"github.com/udisondev/blazecoop/internal/protocolconst"
	"github.com/udisondev/blazecoop/internal/router"
)

// Table builds the fixed (component, command) → Handler dispatch table for
// router.New, following internal/gameserver/table.go's registration style.
func Table(d Deps) map[router.Key]router.Handler {
	util := uint16(protocolconst.ComponentUtil)
	auth := uint16(protocolconst.ComponentAuthentication)
	gm := uint16(protocolconst.ComponentGameManager)

	return map[router.Key]router.Handler{
		{Component: util, Command: protocolconst.CommandUtilPing}: Ping,

		{Component: auth, Command: protocolconst.CommandAuthenticationLogin}: d.Login,

		{Component: gm, Command: protocolconst.CommandGameManagerCreateGame}:      d.CreateGame,
		{Component: gm, Command: protocolconst.CommandGameManagerStartMatchmake}: d.StartMatchmake,
		{Component: gm, Command: protocolconst.CommandGameManagerCancelMatchmake}: d.CancelMatchmake,
		{Component: gm, Command: protocolconst.CommandGameManagerRemovePlayer}:    d.RemovePlayer,
		{Component: gm, Command: protocolconst.CommandGameManagerSetAttributes}:  d.SetAttributes,
	}
}
