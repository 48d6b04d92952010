package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/udisondev/blazecoop/internal/model"
)

func mkItem(userID uint32, def uuid.UUID, stack uint32) model.InventoryItem {
	return model.InventoryItem{UserID: userID, DefinitionName: def, StackSize: stack}
}

// Grounded on internal/db/testhelpers_test.go: a shared postgres
// testcontainer for the whole package, migrated once in TestMain.
var testStore *Postgres

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Fatalf("starting postgres container: %v", err)
	}
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("getting container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("getting container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	if err := RunMigrations(ctx, dsn); err != nil {
		log.Fatalf("running migrations: %v", err)
	}

	testStore, err = NewPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connecting test store: %v", err)
	}
	defer testStore.Close()

	os.Exit(m.Run())
}

func newTestUser(t *testing.T, username string) uint32 {
	t.Helper()
	u, err := testStore.CreateUser(context.Background(), username, "hash")
	require.NoError(t, err)
	return u.ID
}

func TestAddCurrencyClampsToMaxSafe(t *testing.T) {
	ctx := context.Background()
	userID := newTestUser(t, "currency-clamp")

	tx, err := testStore.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	balance, err := tx.AddCurrency(ctx, userID, "Mtx", 90_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(90_000_000), balance)

	balance, err = tx.AddCurrency(ctx, userID, "Mtx", 50_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), balance)

	require.NoError(t, tx.Commit(ctx))
}

func TestUpsertInventoryItemIncrementsStackClamped(t *testing.T) {
	ctx := context.Background()
	userID := newTestUser(t, "inventory-stack")
	def := uuid.New()

	tx, err := testStore.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	first, err := tx.UpsertInventoryItem(ctx, mkItem(userID, def, 3), 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), first.StackSize)

	second, err := tx.UpsertInventoryItem(ctx, mkItem(userID, def, 4), 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), second.StackSize)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, tx.Commit(ctx))
}

func TestGetUserByUsernameNotFound(t *testing.T) {
	_, err := testStore.GetUserByUsername(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateMissionRoundTripsKindAndRewards(t *testing.T) {
	ctx := context.Background()

	tx, err := testStore.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	m := model.StrikeTeamMission{
		DescriptorName: "op-iron-curtain",
		Kind:           model.MissionApex,
		Accessibility:  model.AccessibilityMultiPlayer,
		EnemyTag:       "syndicate",
		GameTags:       []string{"extraction", "night"},
		Difficulty:     model.DifficultyGold,
		Level:          42,
		Rewards:        map[string]uint64{"Mtx": 500, "Mission": 12},
		CreatedAt:      time.Now(),
	}
	id, err := tx.CreateMission(ctx, m)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	latest, err := testStore.LatestMission(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, latest.ID)
	assert.Equal(t, model.MissionApex, latest.Kind)
	assert.Equal(t, m.EnemyTag, latest.EnemyTag)
	assert.Equal(t, m.GameTags, latest.GameTags)
	assert.Equal(t, uint64(500), latest.Rewards["Mtx"])
	assert.Equal(t, uint64(12), latest.Rewards["Mission"])
}
