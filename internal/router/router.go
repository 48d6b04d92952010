// Package router dispatches (component, command) pairs to typed handlers,
// decoding the request body and encoding the handler's response.
//
// Grounded on internal/gameserver/table.go's registration-table idiom and
// internal/gameserver/handler.go's per-command dispatch, collapsed here
// into one data-driven map since the table is fixed at boot and read-only
// thereafter (following internal/data's read-only-after-init convention —
// no mutex needed for lookups).
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/udisondev/blazecoop/internal/frame"
	"github.com/udisondev/blazecoop/internal/protocolerr"
)

// Key identifies a handler slot.
type Key struct {
	Component uint16
	Command   uint16
}

// Handler processes a decoded request for a session and produces a response
// body (nil for an empty response).
type Handler func(ctx context.Context, sess Session, body []byte) ([]byte, error)

// Session is the minimal capability a handler needs from its caller; the
// concrete *session.Session satisfies it. Kept as an interface so router
// tests don't need a real session.
type Session interface {
	UserID() (uint32, bool)
}

// MissingHandlerError is returned when no handler is registered for a
// (component, command) pair.
type MissingHandlerError struct {
	Key Key
}

func (e *MissingHandlerError) Error() string {
	return fmt.Sprintf("router: no handler for component=%d command=%d", e.Key.Component, e.Key.Command)
}

// DecodingError wraps a request-body decode failure. Per spec.md §7,
// decode failures inside a handler must not take down the session — the
// caller maps this to an empty RESPONSE frame and logs it.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string { return fmt.Sprintf("router: decoding request: %v", e.Err) }
func (e *DecodingError) Unwrap() error { return e.Err }

// Router holds the fixed (component, command) → Handler table built at
// boot. It is read-only after New returns, so Dispatch requires no locking.
type Router struct {
	handlers map[Key]Handler
}

// New builds a Router from a fixed handler table.
func New(table map[Key]Handler) *Router {
	handlers := make(map[Key]Handler, len(table))
	for k, v := range table {
		handlers[k] = v
	}
	return &Router{handlers: handlers}
}

// Dispatch looks up the handler for f and invokes it, returning the
// response frame body. The caller (the session loop) decides from the
// frame's notify flag how to treat a MissingHandlerError: notify frames with no handler are logged and
// dropped, request frames get a CommandNotFound error response.
func (r *Router) Dispatch(ctx context.Context, sess Session, f *frame.Frame) ([]byte, error) {
	key := Key{Component: f.Component, Command: f.Command}
	h, ok := r.handlers[key]
	if !ok {
		return nil, &MissingHandlerError{Key: key}
	}
	return h(ctx, sess, f.Body)
}

// ErrorCode maps a handler error to the 16-bit protocol error code from
// spec.md §7, or (0, false) if err carries no such mapping (e.g. a decode
// failure, which per policy gets an empty response instead of an error
// code).
func ErrorCode(err error) (uint16, bool) {
	var coded *protocolerr.Error
	if errors.As(err, &coded) {
		return coded.Code, true
	}
	var missing *MissingHandlerError
	if errors.As(err, &missing) {
		return uint16(protocolerr.CommandNotFound), true
	}
	return 0, false
}
