// Package model holds the persisted domain types from spec.md §3: users and
// everything a user owns (inventory, characters, currencies, challenge
// progress, strike teams), plus the aggregates the activity pipeline and
// mission scheduler read and write.
//
// Grounded on the teacher's internal/model value-object shapes (plain
// structs, no behavior beyond small invariant helpers) adapted from the L2
// character/item domain to this game's domain.
package model

import (
	"time"

	"github.com/google/uuid"
)

// CurrencyType enumerates the three balances a user can hold.
type CurrencyType string

const (
	CurrencyMtx     CurrencyType = "Mtx"
	CurrencyGrind   CurrencyType = "Grind"
	CurrencyMission CurrencyType = "Mission"
)

// MaxSafeCurrency is the clamp applied to every currency credit (spec.md §3).
const MaxSafeCurrency uint64 = 100_000_000

// User is the stable identity and ownership root for a player.
type User struct {
	ID           uint32
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// SharedData holds per-user state shared across characters: the active
// character and shared equipment/progression.
type SharedData struct {
	UserID             uint32
	ActiveCharacterID  uint32
	SharedEquipment    map[string]string
	SharedProgression  map[string]PrestigeProgress
}

// PrestigeProgress is one class's "meta" leveling shared across characters
// of that class.
type PrestigeProgress struct {
	ClassName string
	Level     uint32
	XP        uint64
}

// Character is one playable persona owned by a user.
type Character struct {
	ID        uint32
	UserID    uint32
	ClassName string
	Level     uint32
	XP        uint64
	Equipment map[string]string
}

// InventoryItem is one stack of a definition owned by a user (spec.md §3).
type InventoryItem struct {
	ID             uint32
	UserID         uint32
	DefinitionName uuid.UUID
	StackSize      uint32
	Seen           bool
	Attributes     map[string]string
	CreatedAt      time.Time
	LastGrantedAt  time.Time
	EarnedBy       string
	Restricted     bool
}

// ChallengeProgress is the per-(user, challenge) container of named
// counters.
type ChallengeProgress struct {
	UserID      uint32
	ChallengeID string
	Counters    []ChallengeCounter
}

// ChallengeCounter tracks one named counter inside a ChallengeProgress.
type ChallengeCounter struct {
	Name          string
	TimesCompleted uint32
	TotalCount     uint64
	CurrentCount   uint64
	TargetCount    uint64
	ResetCount     uint32
	LastChanged    time.Time
}

// CurrencyBalance is the per-(user, type) balance, clamped to
// MaxSafeCurrency on every credit.
type CurrencyBalance struct {
	UserID  uint32
	Type    CurrencyType
	Balance uint64
}

// Add credits amount to the balance, clamped to MaxSafeCurrency, and
// returns the new balance.
func (b *CurrencyBalance) Add(amount uint64) uint64 {
	next := b.Balance + amount
	if next > MaxSafeCurrency || next < b.Balance { // overflow or over-clamp
		next = MaxSafeCurrency
	}
	b.Balance = next
	return b.Balance
}

// StrikeTeam is a persisted user-owned squad that can be assigned to
// strike-team missions.
type StrikeTeam struct {
	ID     uint32
	UserID uint32
	Name   string
}

// MissionAccessibility gates which strike teams may be assigned.
type MissionAccessibility string

const (
	AccessibilitySinglePlayer MissionAccessibility = "SinglePlayer"
	AccessibilityAny          MissionAccessibility = "Any"
	AccessibilityMultiPlayer  MissionAccessibility = "MultiPlayer"
)

// MissionDifficulty ranks a strike-team mission's reward tier.
type MissionDifficulty string

const (
	DifficultyBronze   MissionDifficulty = "Bronze"
	DifficultySilver   MissionDifficulty = "Silver"
	DifficultyGold     MissionDifficulty = "Gold"
	DifficultyPlatinum MissionDifficulty = "Platinum"
)

// MissionKind distinguishes a strike-team's ordinary weekly rotation from
// its higher-stakes "apex" counterpart (spec.md §4.I's offset recipe names
// both per offset).
type MissionKind string

const (
	MissionStandard MissionKind = "Standard"
	MissionApex     MissionKind = "Apex"
)

// StrikeTeamMission is one scheduler-created mission instance.
type StrikeTeamMission struct {
	ID             uint32
	DescriptorName string
	Kind           MissionKind
	Accessibility  MissionAccessibility
	EnemyTag       string
	GameTags       []string
	Difficulty     MissionDifficulty
	Level          uint32
	Rewards        map[string]uint64
	CreatedAt      time.Time
}

// StrikeTeamMissionProgress locks a mission as in-progress for a user's
// strike team.
type StrikeTeamMissionProgress struct {
	UserID       uint32
	StrikeTeamID uint32
	MissionID    uint32
	StartedAt    time.Time
	Locked       bool
}
