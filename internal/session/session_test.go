package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/blazecoop/internal/auth"
	"github.com/udisondev/blazecoop/internal/frame"
	"github.com/udisondev/blazecoop/internal/router"
)

func newTestSession(t *testing.T, r *router.Router) (*Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })

	signer := auth.NewSigner([]byte("test-key"))
	reg := NewRegistry(signer)
	s := New(server, r, reg, nil)
	return s, client
}

func readFrame(t *testing.T, conn net.Conn) *frame.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	header := make([]byte, frame.HeaderSize)
	_, err := readFull(conn, header)
	require.NoError(t, err)

	f, _, ok, err := frame.Decode(header)
	require.NoError(t, err)
	if ok {
		return f
	}

	// body not yet arrived with the header alone; re-decode needs full buf.
	bodyLen := int(header[0])<<24 | int(header[1])<<16 | int(header[2])<<8 | int(header[3])
	preLen := int(header[4])<<8 | int(header[5])
	rest := make([]byte, bodyLen+preLen)
	_, err = readFull(conn, rest)
	require.NoError(t, err)

	full := append(header, rest...)
	f, _, ok, err = frame.Decode(full)
	require.NoError(t, err)
	require.True(t, ok)
	return f
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestHandleFrameDispatchesAndWritesResponse(t *testing.T) {
	table := map[router.Key]router.Handler{
		{Component: 9, Command: 7}: func(ctx context.Context, sess router.Session, body []byte) ([]byte, error) {
			return []byte("pong"), nil
		},
	}
	r := router.New(table)
	s, client := newTestSession(t, r)
	go s.WriteLoop()

	s.HandleFrame(&frame.Frame{Component: 9, Command: 7, Seq: 1})

	got := readFrame(t, client)
	assert.Equal(t, uint16(9), got.Component)
	assert.True(t, got.HasFlag(frame.FlagResponse))
	assert.Equal(t, []byte("pong"), got.Body)
}

func TestHandleFrameMissingHandlerRespondsWithErrorCode(t *testing.T) {
	r := router.New(nil)
	s, client := newTestSession(t, r)
	go s.WriteLoop()

	s.HandleFrame(&frame.Frame{Component: 1, Command: 99, Seq: 5})

	got := readFrame(t, client)
	assert.True(t, got.HasFlag(frame.FlagResponse))
	assert.NotEmpty(t, got.Body)
}

func TestHandleFrameOrderingMatchesCallOrder(t *testing.T) {
	table := map[router.Key]router.Handler{
		{Component: 1, Command: 1}: func(ctx context.Context, sess router.Session, body []byte) ([]byte, error) {
			time.Sleep(20 * time.Millisecond)
			return []byte("first"), nil
		},
		{Component: 1, Command: 2}: func(ctx context.Context, sess router.Session, body []byte) ([]byte, error) {
			return []byte("second"), nil
		},
	}
	r := router.New(table)
	s, client := newTestSession(t, r)
	go s.WriteLoop()

	s.HandleFrame(&frame.Frame{Component: 1, Command: 1, Seq: 1})
	s.HandleFrame(&frame.Frame{Component: 1, Command: 2, Seq: 2})

	f1 := readFrame(t, client)
	f2 := readFrame(t, client)
	assert.Equal(t, []byte("first"), f1.Body)
	assert.Equal(t, []byte("second"), f2.Body)
}

func TestUserAssociationLifecycle(t *testing.T) {
	r := router.New(nil)
	s, _ := newTestSession(t, r)

	_, ok := s.UserID()
	assert.False(t, ok)

	s.SetUser(42)
	uid, ok := s.UserID()
	require.True(t, ok)
	assert.Equal(t, uint32(42), uid)

	s.ClearUser()
	_, ok = s.UserID()
	assert.False(t, ok)
}

func TestActiveGameLifecycle(t *testing.T) {
	r := router.New(nil)
	s, _ := newTestSession(t, r)

	_, ok := s.ActiveGame()
	assert.False(t, ok)

	s.SetActiveGame(7)
	gid, ok := s.ActiveGame()
	require.True(t, ok)
	assert.Equal(t, uint32(7), gid)

	s.ClearActiveGame()
	_, ok = s.ActiveGame()
	assert.False(t, ok)
}

func TestTouchResetsIdle(t *testing.T) {
	r := router.New(nil)
	s, _ := newTestSession(t, r)
	s.lastActivity.Store(time.Now().Add(-time.Minute).UnixNano())
	assert.Greater(t, s.IdleFor(), 30*time.Second)

	s.Touch()
	assert.Less(t, s.IdleFor(), time.Second)
}

func TestSubscribePublishSkipsStaleSubscribers(t *testing.T) {
	signer := auth.NewSigner([]byte("k"))
	reg := NewRegistry(signer)
	r := router.New(nil)

	server1, _ := net.Pipe()
	t.Cleanup(func() { server1.Close() })
	publisher := New(server1, r, reg, nil)

	server2, client2 := net.Pipe()
	t.Cleanup(func() { client2.Close() })
	subscriber := New(server2, r, reg, nil)
	subscriber.SetUser(100)
	reg.Add(100, subscriber)
	go subscriber.WriteLoop()

	publisher.Subscribe(100)
	publisher.Subscribe(999) // never registered

	publisher.Publish(4, 5, []byte("evt"))

	got := readFrame(t, client2)
	assert.True(t, got.HasFlag(frame.FlagNotify))
	assert.Equal(t, []byte("evt"), got.Body)

	publisher.subsMu.Lock()
	_, stillThere := publisher.subs[999]
	publisher.subsMu.Unlock()
	assert.False(t, stillThere)
}

func TestCloseRemovesFromRegistry(t *testing.T) {
	signer := auth.NewSigner([]byte("k"))
	reg := NewRegistry(signer)
	r := router.New(nil)
	server, _ := net.Pipe()

	s := New(server, r, reg, nil)
	s.SetUser(55)
	reg.Add(55, s)

	s.Close()

	_, ok := reg.Lookup(55)
	assert.False(t, ok)
}
