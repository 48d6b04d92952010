package handlers

import "github.com/udisondev/blazecoop/internal/protocolerr"

var errAuthRequired = protocolerr.New(protocolerr.AuthenticationRequired)

// wrapSystem wraps cause as a System protocol error, for failures (store
// errors, internal invariants) that must not leak details to the client.
func wrapSystem(cause error) error {
	return protocolerr.Wrap(protocolerr.System, cause)
}
