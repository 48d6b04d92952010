// Package store is the typed persistence boundary over users, characters,
// inventory, currencies, challenges, and strike-team missions (spec.md
// §4.J). Grounded on internal/db/repository.go's per-aggregate repository
// style and internal/db/persistence.go's begin/defer-rollback/commit
// transaction shape.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/blazecoop/internal/model"
)

// ErrNotFound is returned when a lookup by id or key finds no row.
var ErrNotFound = errors.New("store: not found")

// ErrInsufficientFunds is returned when a currency debit would take a
// balance below zero.
var ErrInsufficientFunds = errors.New("store: insufficient funds")

// Store is the process-wide persistence handle. Read-only lookups run
// directly against the pool; multi-step writes run inside a Tx obtained
// from Begin so a caller's failure mid-sequence rolls back cleanly.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	GetUser(ctx context.Context, userID uint32) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (*model.User, error)

	GetSharedData(ctx context.Context, userID uint32) (*model.SharedData, error)
	GetActiveCharacter(ctx context.Context, userID uint32) (*model.Character, error)
	GetCharacter(ctx context.Context, characterID uint32) (*model.Character, error)

	GetChallengeProgress(ctx context.Context, userID uint32, challengeID string) (*model.ChallengeProgress, error)
	GetCurrencyBalance(ctx context.Context, userID uint32, typ model.CurrencyType) (*model.CurrencyBalance, error)

	GetInventoryItem(ctx context.Context, userID uint32, definitionName uuid.UUID) (*model.InventoryItem, error)
	ListInventory(ctx context.Context, userID uint32) ([]model.InventoryItem, error)

	ListStrikeTeams(ctx context.Context, userID uint32) ([]model.StrikeTeam, error)
	ListMissionsSince(ctx context.Context, since time.Time) ([]model.StrikeTeamMission, error)
	// LatestMission returns the most recently created strike-team mission,
	// or ErrNotFound if none have ever been persisted (spec.md §4.I step 1).
	LatestMission(ctx context.Context) (*model.StrikeTeamMission, error)
	LockMission(ctx context.Context, userID, strikeTeamID, missionID uint32) (*model.StrikeTeamMissionProgress, error)
}

// Tx is the write side of Store: every method runs against the same
// underlying database transaction until Commit or Rollback is called.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	SaveCharacter(ctx context.Context, c *model.Character) error
	SaveSharedProgression(ctx context.Context, userID uint32, progress model.PrestigeProgress) error
	SaveChallengeProgress(ctx context.Context, p *model.ChallengeProgress) error

	// AddCurrency credits amount to userID's typ balance, clamped to
	// model.MaxSafeCurrency, and returns the resulting balance.
	AddCurrency(ctx context.Context, userID uint32, typ model.CurrencyType, amount uint64) (uint64, error)

	// UpsertInventoryItem inserts a new stack or, on a definition-name
	// conflict for the same user, increments the existing stack size
	// clamped to cap (0 means no cap, treated as math.MaxUint32).
	UpsertInventoryItem(ctx context.Context, item model.InventoryItem, cap uint32) (model.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, itemID uint32) error

	// ConsumeInventoryItem decrements itemID's stack by count and deletes
	// the row once the stack reaches zero, returning the resulting stack
	// size (0 if the row was deleted). Grounded on the inventory-consume
	// route's "decrement, delete on empty" sequence (spec.md §4.H).
	ConsumeInventoryItem(ctx context.Context, itemID uint32, count uint32) (uint32, error)

	// DebitCurrency subtracts amount from userID's typ balance, failing
	// with ErrInsufficientFunds if the balance can't cover it, and returns
	// the resulting balance (spec.md §4.H's store-purchase pipeline).
	DebitCurrency(ctx context.Context, userID uint32, typ model.CurrencyType, amount uint64) (uint64, error)

	// PurchaseCount returns how many times userID has purchased
	// articleName, for store-limit enforcement.
	PurchaseCount(ctx context.Context, userID uint32, articleName uuid.UUID) (uint32, error)
	// RecordPurchase increments userID's purchase counter for articleName.
	RecordPurchase(ctx context.Context, userID uint32, articleName uuid.UUID) error

	// CreateCharacter creates a new level-1 character row for userID,
	// used when a credited item (pack reward or store purchase) is itself
	// a playable character (spec.md §4.H final paragraph).
	CreateCharacter(ctx context.Context, userID uint32, className string) (*model.Character, error)

	CreateMission(ctx context.Context, m model.StrikeTeamMission) (uint32, error)
}
