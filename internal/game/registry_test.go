package game

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateAssignsMonotonicIDs(t *testing.T) {
	r := NewRegistry(nil)
	g1 := r.Create(0, nil, 4)
	g2 := r.Create(0, nil, 4)
	assert.NotEqual(t, g1.ID(), g2.ID())
	assert.Less(t, g1.ID(), g2.ID())
}

func TestRegistryGetAndRemove(t *testing.T) {
	r := NewRegistry(nil)
	g := r.Create(0, nil, 4)

	got, ok := r.Get(g.ID())
	require.True(t, ok)
	assert.Same(t, g, got)

	r.Remove(g.ID())
	_, ok = r.Get(g.ID())
	assert.False(t, ok)
}

func TestRegistryScanVisitsAllUntilFalse(t *testing.T) {
	r := NewRegistry(nil)
	r.Create(0, nil, 4)
	r.Create(0, nil, 4)
	r.Create(0, nil, 4)

	visited := 0
	r.Scan(func(g *Game) bool {
		visited++
		return true
	})
	assert.Equal(t, 3, visited)

	visited = 0
	r.Scan(func(g *Game) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestLeaveGameRemovesHostAndTearsDownGame(t *testing.T) {
	r := NewRegistry(nil)
	g := r.Create(0, nil, 4)
	require.NoError(t, g.AddPlayer(&Player{UserID: 1}, SetupContext{}))

	r.LeaveGame(context.Background(), g.ID(), 1, uuid.New())

	_, ok := r.Get(g.ID())
	assert.False(t, ok)
}

func TestLeaveGameUnknownGameIsNoop(t *testing.T) {
	r := NewRegistry(nil)
	r.LeaveGame(context.Background(), 999, 1, uuid.New())
}
