package matchmaking

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/blazecoop/internal/auth"
	"github.com/udisondev/blazecoop/internal/game"
	"github.com/udisondev/blazecoop/internal/session"
)

func newTestSession(t *testing.T, reg *session.Registry, userID uint32) *session.Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })
	s := session.New(server, nil, reg, nil)
	s.SetUser(userID)
	reg.Add(userID, s)
	go s.WriteLoop()
	return s
}

func newServiceAndRegistries(t *testing.T) (*Service, *session.Registry) {
	t.Helper()
	sreg := session.NewRegistry(auth.NewSigner([]byte("k")))
	greg := game.NewRegistry(sreg)
	return NewService(greg), sreg
}

// Spec scenario 3: a quick-match request against an empty registry finds
// nothing and is queued.
func TestQuickMatchMissEnqueues(t *testing.T) {
	svc, sreg := newServiceAndRegistries(t)
	sess := newTestSession(t, sreg, 1)

	g, found, err := svc.QuickMatch(&game.Player{UserID: 1}, sess, map[string]string{
		"coopGameVisibility": "1",
		"difficulty":         "normal",
	})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, g)
	assert.Len(t, svc.queue, 1)
}

// Spec scenario 3: a joinable game whose attributes satisfy the derived
// rule-set (levelMFT=matchAny suppressing the level mismatch) is joined
// immediately.
func TestQuickMatchHitJoinsExistingGame(t *testing.T) {
	svc, sreg := newServiceAndRegistries(t)
	hostSess := newTestSession(t, sreg, 1)

	created, err := svc.CreatePublicGame(&game.Player{UserID: 1}, hostSess, map[string]string{
		"coopGameVisibility": "1",
		"difficulty":         "normal",
		"level":              "7",
	}, 4)
	require.NoError(t, err)

	joinerSess := newTestSession(t, sreg, 2)
	g, found, err := svc.QuickMatch(&game.Player{UserID: 2}, joinerSess, map[string]string{
		"coopGameVisibility": "1",
		"difficulty":         "normal",
		"level":              "0",
		"levelMFT":           "matchAny",
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Same(t, created, g)
	assert.Equal(t, 2, g.PlayerCount())

	active, ok := joinerSess.ActiveGame()
	require.True(t, ok)
	assert.Equal(t, g.ID(), active)
}

// Spec scenario 4: a player queued by a prior miss gets matched once a
// matching public game is created afterward.
func TestCreatePublicGameDrainsMatchingQueueEntries(t *testing.T) {
	svc, sreg := newServiceAndRegistries(t)
	waiterSess := newTestSession(t, sreg, 9)

	_, found, err := svc.QuickMatch(&game.Player{UserID: 9}, waiterSess, map[string]string{
		"coopGameVisibility": "1",
		"missionSlot":        "1",
	})
	require.NoError(t, err)
	require.False(t, found)

	hostSess := newTestSession(t, sreg, 1)
	g, err := svc.CreatePublicGame(&game.Player{UserID: 1}, hostSess, map[string]string{
		"coopGameVisibility": "1",
		"missionSlot":        "1",
	}, 4)
	require.NoError(t, err)

	assert.Equal(t, 2, g.PlayerCount())
	assert.Empty(t, svc.queue)

	active, ok := waiterSess.ActiveGame()
	require.True(t, ok)
	assert.Equal(t, g.ID(), active)
}

func TestCancelRemovesQueuedEntry(t *testing.T) {
	svc, sreg := newServiceAndRegistries(t)
	sess := newTestSession(t, sreg, 5)

	_, found, err := svc.QuickMatch(&game.Player{UserID: 5}, sess, map[string]string{"coopGameVisibility": "1"})
	require.NoError(t, err)
	require.False(t, found)
	require.Len(t, svc.queue, 1)

	svc.Cancel(5)
	assert.Empty(t, svc.queue)
}

func TestCancelUnknownUserIsNoop(t *testing.T) {
	svc, _ := newServiceAndRegistries(t)
	svc.Cancel(404)
	assert.Empty(t, svc.queue)
}

func TestRescanQueueSkipsWhenGameNotJoinable(t *testing.T) {
	svc, sreg := newServiceAndRegistries(t)
	hostSess := newTestSession(t, sreg, 1)

	g, err := svc.CreatePublicGame(&game.Player{UserID: 1}, hostSess, map[string]string{
		"coopGameVisibility": "0",
	}, 4)
	require.NoError(t, err)

	waiterSess := newTestSession(t, sreg, 2)
	_, found, err := svc.QuickMatch(&game.Player{UserID: 2}, waiterSess, map[string]string{"coopGameVisibility": "1"})
	require.NoError(t, err)
	require.False(t, found)

	svc.RescanQueue(g)
	assert.Len(t, svc.queue, 1)
}
