package handlers

import (
	"context"

	"github.com/udisondev/blazecoop/internal/router"
	"github.com/udisondev/blazecoop/internal/tdf"
)

// Fixed fields the retail client expects from a ping response (spec.md §8
// scenario 1); none of them vary per deployment.
const (
	pingServerAddress = "310335"
	pingClientID      = "ME4-PC-SERVER-BLAZE"
	pingPlatform      = "pc"
	pingQOSTime       = 5_000_000
)

// Ping answers the Util/ping request with the server-address, client-id,
// and platform strings the client uses to route its next connection, plus
// a QOS timing sub-group. Works whether or not the session has
// authenticated — ping is the one pre-auth command a fresh connection
// relies on.
func Ping(ctx context.Context, sess router.Session, body []byte) ([]byte, error) {
	enc := tdf.NewEncoder(96)
	enc.WriteString("ASRC", pingServerAddress)
	enc.WriteString("CLID", pingClientID)
	enc.WriteString("PLAT", pingPlatform)
	enc.BeginGroup("QOSS")
	enc.WriteU32("TIME", pingQOSTime)
	enc.EndGroup()
	return enc.Bytes(), nil
}
