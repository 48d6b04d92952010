package game

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/blazecoop/internal/auth"
	"github.com/udisondev/blazecoop/internal/session"
)

func newTestRegistry(t *testing.T) *session.Registry {
	t.Helper()
	return session.NewRegistry(auth.NewSigner([]byte("k")))
}

func newConnectedSession(t *testing.T, reg *session.Registry, userID uint32) (*session.Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })
	s := session.New(server, nil, reg, nil)
	s.SetUser(userID)
	reg.Add(userID, s)
	go s.WriteLoop()
	return s, client
}

func TestAddPlayerHostIsSlotZero(t *testing.T) {
	reg := newTestRegistry(t)
	g := New(1, 0, map[string]string{"coopGameVisibility": "1"}, 4, reg)

	_, hostClient := newConnectedSession(t, reg, 1)
	_, guestClient := newConnectedSession(t, reg, 2)
	_ = hostClient
	_ = guestClient

	require.NoError(t, g.AddPlayer(&Player{UserID: 1}, SetupContext{ResultCode: "CreatedGame"}))
	require.NoError(t, g.AddPlayer(&Player{UserID: 2}, SetupContext{IsMatchmaking: true, ResultCode: "JoinedExisting"}))

	assert.True(t, g.IsHost(1))
	assert.False(t, g.IsHost(2))
	assert.Equal(t, 2, g.PlayerCount())
}

func TestAddPlayerRejectsAtCapacity(t *testing.T) {
	reg := newTestRegistry(t)
	g := New(1, 0, nil, 1, reg)

	require.NoError(t, g.AddPlayer(&Player{UserID: 1}, SetupContext{}))
	err := g.AddPlayer(&Player{UserID: 2}, SetupContext{})
	assert.ErrorIs(t, err, ErrGameFull)
}

func TestRemoveHostTearsDownReportsWasHost(t *testing.T) {
	reg := newTestRegistry(t)
	g := New(1, 0, nil, 4, reg)
	require.NoError(t, g.AddPlayer(&Player{UserID: 1}, SetupContext{}))
	require.NoError(t, g.AddPlayer(&Player{UserID: 2}, SetupContext{}))

	wasHost, removed := g.RemovePlayer(1, ReasonPlayerLeft)
	assert.True(t, removed)
	assert.True(t, wasHost)
	assert.Equal(t, 1, g.PlayerCount())
}

func TestRemoveNonHostDoesNotTearDown(t *testing.T) {
	reg := newTestRegistry(t)
	g := New(1, 0, nil, 4, reg)
	require.NoError(t, g.AddPlayer(&Player{UserID: 1}, SetupContext{}))
	require.NoError(t, g.AddPlayer(&Player{UserID: 2}, SetupContext{}))

	wasHost, removed := g.RemovePlayer(2, ReasonPlayerLeft)
	assert.True(t, removed)
	assert.False(t, wasHost)
	assert.Equal(t, 1, g.PlayerCount())
}

func TestRemoveAbsentPlayerIsNoop(t *testing.T) {
	g := New(1, 0, nil, 4, nil)
	_, removed := g.RemovePlayer(99, ReasonGeneric)
	assert.False(t, removed)
}

func TestSetAttributesMergesNotReplaces(t *testing.T) {
	g := New(1, 0, map[string]string{"a": "1"}, 4, nil)
	g.SetAttributes(map[string]string{"b": "2"})

	attrs := g.Attributes()
	assert.Equal(t, "1", attrs["a"])
	assert.Equal(t, "2", attrs["b"])
}

func TestJoinableStateRejectsPrivateLobby(t *testing.T) {
	g := New(1, 0, map[string]string{"coopGameVisibility": "0"}, 4, nil)
	assert.Equal(t, NotJoinable, g.JoinableState(nil))
}

func TestJoinableStateFullWhenAtCapacity(t *testing.T) {
	g := New(1, 0, map[string]string{"coopGameVisibility": "1"}, 1, nil)
	require.NoError(t, g.AddPlayer(&Player{UserID: 1}, SetupContext{}))
	assert.Equal(t, Full, g.JoinableState(nil))
}

type fakeRules struct{ ok bool }

func (f fakeRules) Matches(attrs map[string]string, playerCount int) bool { return f.ok }

func TestJoinableStateAppliesRuleSet(t *testing.T) {
	g := New(1, 0, map[string]string{"coopGameVisibility": "1"}, 4, nil)
	assert.Equal(t, Joinable, g.JoinableState(fakeRules{ok: true}))
	assert.Equal(t, Mismatched, g.JoinableState(fakeRules{ok: false}))
}
