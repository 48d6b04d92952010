// Package session drives one connected client for the lifetime of its
// upgraded connection (spec.md §4.D): decode a frame, run it through the
// router, write the response back in request order, and fan out
// notifications to subscribers.
//
// Grounded on internal/gameserver.GameClient: atomic hot-path state
// (state, markedForDisconnection), a mutex guarding the handful of rarely
// written fields (here network data and the active game id; the user id is
// atomic), a buffered sendCh drained by a dedicated writer
// goroutine, and closeOnce/closeCh for idempotent teardown. The retail
// write-ordering requirement (§4.D) that GameClient doesn't need is added
// as an explicit FIFO ticket queue.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/blazecoop/internal/frame"
	"github.com/udisondev/blazecoop/internal/router"
)

const defaultSendQueueSize = 256

// NetworkAddress is one half of a session's network triple.
type NetworkAddress struct {
	IP   net.IP
	Port uint16
}

// QOSRecord is the client-reported quality-of-service sample.
type QOSRecord struct {
	Bandwidth uint32
	Latency   uint32
}

// NetworkData is the session's address pair, QOS record, and hardware
// flags (spec.md §3). HasAddress is false until the client upgrades and
// reports its addresses — the "external/internal pair or unset union".
type NetworkData struct {
	HasAddress    bool
	External      NetworkAddress
	Internal      NetworkAddress
	QOS           QOSRecord
	HardwareFlags uint32
}

// GameLeaveNotifier is implemented by the game registry. A session calls it
// on teardown so the game can remove the player and notify the rest of the
// slots, without session importing the game package.
type GameLeaveNotifier interface {
	LeaveGame(ctx context.Context, gameID uint32, userID uint32, sessionID uuid.UUID)
}

// Session is one connected client. Hot-path state, including the user id
// and authenticated flag, is atomic; the rare fields (network data, active
// game) sit behind a plain mutex.
type Session struct {
	id   uuid.UUID
	conn net.Conn

	router   *router.Router
	registry *Registry
	gameLeaver GameLeaveNotifier
	liveSet    *LiveSet

	userID        atomic.Uint32
	authenticated atomic.Bool

	mu         sync.Mutex
	netData    NetworkData
	activeGame uint32 // 0 = none

	lastActivity atomic.Int64 // unix nano

	sendCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once

	order *writeOrder

	subsMu sync.Mutex
	subs   map[uint32]struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Session bound to conn. The caller is expected to run
// ReadLoop and WriteLoop in separate goroutines.
func New(conn net.Conn, r *router.Router, registry *Registry, gameLeaver GameLeaveNotifier) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:         uuid.New(),
		conn:       conn,
		router:     r,
		registry:   registry,
		gameLeaver: gameLeaver,
		sendCh:     make(chan []byte, defaultSendQueueSize),
		closeCh:    make(chan struct{}),
		order:      newWriteOrder(),
		subs:       make(map[uint32]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.lastActivity.Store(time.Now().UnixNano())
	return s
}

// AttachLiveSet registers the session with ls for idle sweeping and
// arranges for Close to unregister it. Optional: a session with no
// LiveSet attached simply isn't swept (used by tests that don't exercise
// the keep-alive timeout).
func (s *Session) AttachLiveSet(ls *LiveSet) {
	s.liveSet = ls
	ls.Add(s)
}

// ID returns the session's identity UUID.
func (s *Session) ID() uuid.UUID { return s.id }

// UserID returns the authenticated user id, or (0, false) if the session
// has not completed authentication.
func (s *Session) UserID() (uint32, bool) {
	if !s.authenticated.Load() {
		return 0, false
	}
	return s.userID.Load(), true
}

// SetUser marks the session authenticated as userID.
func (s *Session) SetUser(userID uint32) {
	s.userID.Store(userID)
	s.authenticated.Store(true)
}

// ClearUser removes the session's authenticated-user association. Used on
// teardown after the registry entry is dropped, since Registry.Remove needs
// the user id to find the entry.
func (s *Session) ClearUser() {
	s.authenticated.Store(false)
}

// NetworkData returns a copy of the session's current network data.
func (s *Session) NetworkData() NetworkData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.netData
}

// SetNetworkData replaces the session's network data (called once the
// client reports its addresses and QOS sample).
func (s *Session) SetNetworkData(nd NetworkData) {
	s.mu.Lock()
	s.netData = nd
	s.mu.Unlock()
}

// ActiveGame returns the id of the game the session currently belongs to,
// or (0, false) if it belongs to none.
func (s *Session) ActiveGame() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeGame == 0 {
		return 0, false
	}
	return s.activeGame, true
}

// SetActiveGame records the id of the game the session just joined.
func (s *Session) SetActiveGame(gameID uint32) {
	s.mu.Lock()
	s.activeGame = gameID
	s.mu.Unlock()
}

// ClearActiveGame drops the session's active-game pointer.
func (s *Session) ClearActiveGame() {
	s.mu.Lock()
	s.activeGame = 0
	s.mu.Unlock()
}

// Touch records that a frame was just received, resetting the keep-alive
// deadline.
func (s *Session) Touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// IdleFor reports how long it has been since the last received frame.
func (s *Session) IdleFor() time.Duration {
	last := time.Unix(0, s.lastActivity.Load())
	return time.Since(last)
}

// Subscribe registers userID as a subscriber of this session's publications.
// Subscriptions are weak by construction: Publish looks subscribers up
// through the registry on every fan-out rather than holding a reference, so
// a subscriber whose session has gone away is simply dropped.
func (s *Session) Subscribe(userID uint32) {
	s.subsMu.Lock()
	s.subs[userID] = struct{}{}
	s.subsMu.Unlock()
}

// Unsubscribe removes userID from the subscriber set.
func (s *Session) Unsubscribe(userID uint32) {
	s.subsMu.Lock()
	delete(s.subs, userID)
	s.subsMu.Unlock()
}

// Notify pushes a single notify frame directly to this session's write
// queue. Used by collaborators (the game registry, matchmaking) that hold a
// weak reference to a specific player's session rather than fanning out to
// a subscriber set.
func (s *Session) Notify(component, command uint16, body []byte) {
	s.enqueueWire(frame.Encode(frame.Notify(component, command, body)))
}

// Publish fans out body as a notify frame to every subscriber whose session
// is still present in the registry, dropping stale subscriber ids.
func (s *Session) Publish(component, command uint16, body []byte) {
	s.subsMu.Lock()
	ids := make([]uint32, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	s.subsMu.Unlock()

	n := frame.Notify(component, command, body)
	wire := frame.Encode(n)
	for _, id := range ids {
		sub, ok := s.registry.Lookup(id)
		if !ok {
			s.Unsubscribe(id)
			continue
		}
		sub.enqueueWire(wire)
	}
}

// defaultReadBufSize is the initial capacity of a session's read buffer.
// Grounded on internal/constants.DefaultReadBufSize: one allocation sized
// for the common case, grown only for oversized frames.
const defaultReadBufSize = 4096

// ReadLoop reads frames off conn until it closes or ctx is cancelled,
// touching the keep-alive deadline and dispatching each complete frame
// through HandleFrame. Grounded on frame.Decode's "never consume a
// partial frame" contract: unconsumed bytes are shifted to the front of
// buf and the next read appends after them, exactly like the teacher's
// ReadPacket discipline generalized from fixed-size reads to a streaming
// accumulate-then-decode buffer.
func (s *Session) ReadLoop() {
	defer s.Close()

	buf := make([]byte, 0, defaultReadBufSize)
	readBuf := readBufPool.Get(defaultReadBufSize)
	defer readBufPool.Put(readBuf)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		for {
			f, consumed, ok, err := frame.Decode(buf)
			if err != nil {
				slog.Warn("session: malformed frame, closing", "session", s.id, "error", err)
				return
			}
			if !ok {
				break
			}
			buf = buf[consumed:]
			s.Touch()
			s.HandleFrame(f)
		}

		n, err := s.conn.Read(readBuf)
		if n > 0 {
			buf = append(buf, readBuf[:n]...)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("session: read failed", "session", s.id, "error", err)
			}
			return
		}
	}
}

// HandleFrame decodes and dispatches one inbound frame, in a goroutine, in
// the order HandleFrame was called (spec.md §4.D's write-order ticket
// lock): the ticket is acquired synchronously before the goroutine is
// spawned, so tickets are granted in call order, and the response (plus any
// notifications the handler enqueues via s.Publish during its execution) is
// appended to the write queue before the ticket is released.
func (s *Session) HandleFrame(f *frame.Frame) {
	turn, done := s.order.acquire()
	go func() {
		defer done()
		<-turn

		if f.HasFlag(frame.FlagKeepAlive) {
			s.enqueueWire(frame.Encode(frame.KeepAlive()))
			return
		}

		ctx := s.ctx
		body, err := s.router.Dispatch(ctx, s, f)
		if err != nil {
			s.handleDispatchError(f, err)
			return
		}
		if f.HasFlag(frame.FlagNotify) {
			return
		}
		resp := frame.Response(f, body)
		s.enqueueWire(frame.Encode(resp))
	}()
}

func (s *Session) handleDispatchError(f *frame.Frame, err error) {
	var decErr *router.DecodingError
	if errors.As(err, &decErr) {
		slog.Warn("session: decoding request failed", "session", s.id, "component", f.Component, "command", f.Command, "error", err)
		if !f.HasFlag(frame.FlagNotify) {
			s.enqueueWire(frame.Encode(frame.Response(f, nil)))
		}
		return
	}

	var missing *router.MissingHandlerError
	if errors.As(err, &missing) && f.HasFlag(frame.FlagNotify) {
		slog.Debug("session: no handler registered for notify frame", "session", s.id, "component", f.Component, "command", f.Command)
		return
	}

	code, _ := router.ErrorCode(err)
	resp := frame.Response(f, encodeErrorBody(code))
	s.enqueueWire(frame.Encode(resp))
}

func (s *Session) enqueueWire(wire []byte) {
	select {
	case s.sendCh <- wire:
	default:
		slog.Warn("session: write queue full, closing slow session", "session", s.id)
		s.Close()
	}
}

// WriteLoop drains the outbound queue to the connection until the session
// closes. Run it in its own goroutine.
func (s *Session) WriteLoop() {
	for {
		select {
		case wire, ok := <-s.sendCh:
			if !ok {
				return
			}
			if _, err := s.conn.Write(wire); err != nil {
				slog.Warn("session: write failed", "session", s.id, "error", err)
				s.Close()
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

// Close tears the session down: cancels in-flight handlers, leaves any game
// it belongs to, removes it from the registry, clears the authenticated-user
// association, and closes the connection. Safe to call more
// than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.closeCh)

		if gameID, ok := s.ActiveGame(); ok && s.gameLeaver != nil {
			uid, _ := s.UserID()
			s.gameLeaver.LeaveGame(context.Background(), gameID, uid, s.id)
		}
		if s.registry != nil {
			s.registry.Remove(s)
		}
		s.ClearUser()
		if s.liveSet != nil {
			s.liveSet.Remove(s)
		}
		_ = s.conn.Close()
	})
}

// encodeErrorBody produces the error-path body: the 16-bit error code as two
// raw big-endian bytes, with no TDF tag. Per spec.md §7 this is only emitted for
// errors that have a mapped code; decode failures get an empty body.
func encodeErrorBody(code uint16) []byte {
	return []byte{byte(code >> 8), byte(code)}
}

