package activity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/blazecoop/internal/model"
	"github.com/udisondev/blazecoop/internal/refdata"
	"github.com/udisondev/blazecoop/internal/store"
)

// fakeStore is a minimal in-memory store.Store/store.Tx, following
// internal/missions/scheduler_test.go's fakeStore/fakeTx pattern of
// mutating shared maps directly rather than modeling real transaction
// isolation.
type fakeStore struct {
	users      map[uint32]*model.User
	shared     map[uint32]*model.SharedData
	characters map[uint32]*model.Character
	nextCharID uint32

	challenges map[string]*model.ChallengeProgress
	currencies map[string]uint64

	inventory  map[uint32]*model.InventoryItem
	nextInvID  uint32
	purchases  map[string]uint32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[uint32]*model.User{},
		shared:     map[uint32]*model.SharedData{},
		characters: map[uint32]*model.Character{},
		challenges: map[string]*model.ChallengeProgress{},
		currencies: map[string]uint64{},
		inventory:  map[uint32]*model.InventoryItem{},
		purchases:  map[string]uint32{},
	}
}

func challengeKey(userID uint32, challengeID string) string {
	return fmt.Sprintf("%d:%s", userID, challengeID)
}

func currencyKey(userID uint32, typ model.CurrencyType) string {
	return fmt.Sprintf("%d:%s", userID, typ)
}

func purchaseKey(userID uint32, articleName uuid.UUID) string {
	return fmt.Sprintf("%d:%s", userID, articleName)
}

func (s *fakeStore) Begin(context.Context) (store.Tx, error) { return &fakeTx{s: s}, nil }

func (s *fakeStore) GetUser(context.Context, uint32) (*model.User, error) { return nil, store.ErrNotFound }
func (s *fakeStore) GetUserByUsername(context.Context, string) (*model.User, error) {
	return nil, store.ErrNotFound
}
func (s *fakeStore) CreateUser(context.Context, string, string) (*model.User, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *fakeStore) GetSharedData(_ context.Context, userID uint32) (*model.SharedData, error) {
	sd, ok := s.shared[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return sd, nil
}

func (s *fakeStore) GetActiveCharacter(ctx context.Context, userID uint32) (*model.Character, error) {
	sd, err := s.GetSharedData(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.GetCharacter(ctx, sd.ActiveCharacterID)
}

func (s *fakeStore) GetCharacter(_ context.Context, characterID uint32) (*model.Character, error) {
	c, ok := s.characters[characterID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) GetChallengeProgress(_ context.Context, userID uint32, challengeID string) (*model.ChallengeProgress, error) {
	cp, ok := s.challenges[challengeKey(userID, challengeID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cp, nil
}

func (s *fakeStore) GetCurrencyBalance(_ context.Context, userID uint32, typ model.CurrencyType) (*model.CurrencyBalance, error) {
	bal, ok := s.currencies[currencyKey(userID, typ)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &model.CurrencyBalance{UserID: userID, Type: typ, Balance: bal}, nil
}

func (s *fakeStore) GetInventoryItem(_ context.Context, userID uint32, definitionName uuid.UUID) (*model.InventoryItem, error) {
	for _, item := range s.inventory {
		if item.UserID == userID && item.DefinitionName == definitionName {
			return item, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) ListInventory(_ context.Context, userID uint32) ([]model.InventoryItem, error) {
	var out []model.InventoryItem
	for _, item := range s.inventory {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *fakeStore) ListStrikeTeams(context.Context, uint32) ([]model.StrikeTeam, error) { return nil, nil }
func (s *fakeStore) ListMissionsSince(context.Context, time.Time) ([]model.StrikeTeamMission, error) {
	return nil, nil
}
func (s *fakeStore) LatestMission(context.Context) (*model.StrikeTeamMission, error) {
	return nil, store.ErrNotFound
}
func (s *fakeStore) LockMission(context.Context, uint32, uint32, uint32) (*model.StrikeTeamMissionProgress, error) {
	return nil, store.ErrNotFound
}

type fakeTx struct{ s *fakeStore }

func (t *fakeTx) Commit(context.Context) error   { return nil }
func (t *fakeTx) Rollback(context.Context) error { return nil }

func (t *fakeTx) SaveCharacter(_ context.Context, c *model.Character) error {
	t.s.characters[c.ID] = c
	return nil
}

func (t *fakeTx) SaveSharedProgression(_ context.Context, userID uint32, progress model.PrestigeProgress) error {
	sd := t.s.shared[userID]
	sd.SharedProgression[progress.ClassName] = progress
	return nil
}

func (t *fakeTx) SaveChallengeProgress(_ context.Context, p *model.ChallengeProgress) error {
	t.s.challenges[challengeKey(p.UserID, p.ChallengeID)] = p
	return nil
}

func (t *fakeTx) AddCurrency(_ context.Context, userID uint32, typ model.CurrencyType, amount uint64) (uint64, error) {
	key := currencyKey(userID, typ)
	t.s.currencies[key] += amount
	return t.s.currencies[key], nil
}

func (t *fakeTx) UpsertInventoryItem(_ context.Context, item model.InventoryItem, cap uint32) (model.InventoryItem, error) {
	for _, existing := range t.s.inventory {
		if existing.UserID == item.UserID && existing.DefinitionName == item.DefinitionName {
			existing.StackSize += item.StackSize
			if cap > 0 && existing.StackSize > cap {
				existing.StackSize = cap
			}
			return *existing, nil
		}
	}
	t.s.nextInvID++
	item.ID = t.s.nextInvID
	t.s.inventory[item.ID] = &item
	return item, nil
}

func (t *fakeTx) DeleteInventoryItem(_ context.Context, itemID uint32) error {
	delete(t.s.inventory, itemID)
	return nil
}

func (t *fakeTx) ConsumeInventoryItem(_ context.Context, itemID uint32, count uint32) (uint32, error) {
	item := t.s.inventory[itemID]
	item.StackSize -= count
	if item.StackSize == 0 {
		delete(t.s.inventory, itemID)
		return 0, nil
	}
	return item.StackSize, nil
}

func (t *fakeTx) DebitCurrency(_ context.Context, userID uint32, typ model.CurrencyType, amount uint64) (uint64, error) {
	key := currencyKey(userID, typ)
	if t.s.currencies[key] < amount {
		return 0, store.ErrInsufficientFunds
	}
	t.s.currencies[key] -= amount
	return t.s.currencies[key], nil
}

func (t *fakeTx) PurchaseCount(_ context.Context, userID uint32, articleName uuid.UUID) (uint32, error) {
	return t.s.purchases[purchaseKey(userID, articleName)], nil
}

func (t *fakeTx) RecordPurchase(_ context.Context, userID uint32, articleName uuid.UUID) error {
	t.s.purchases[purchaseKey(userID, articleName)]++
	return nil
}

func (t *fakeTx) CreateCharacter(_ context.Context, userID uint32, className string) (*model.Character, error) {
	t.s.nextCharID++
	c := &model.Character{ID: t.s.nextCharID, UserID: userID, ClassName: className, Level: 1}
	t.s.characters[c.ID] = c
	return c, nil
}

func (t *fakeTx) CreateMission(context.Context, model.StrikeTeamMission) (uint32, error) { return 0, nil }

func testTables(t *testing.T, items []refdata.Item, packs []refdata.Pack, articles []refdata.StoreArticle) *refdata.Tables {
	t.Helper()
	tables, err := refdata.Load(
		[]refdata.LevelTable{{Name: "standard", XP: []uint64{0, 100, 300, 600}}},
		[]refdata.ClassDescriptor{{Name: "Vanguard", LevelTableName: "standard", PrestigeTableName: "standard"}},
		nil, nil, nil, nil, items, packs, articles,
	)
	require.NoError(t, err)
	return tables
}

func seedPlayer(s *fakeStore, userID, charID uint32) {
	s.characters[charID] = &model.Character{ID: charID, UserID: userID, ClassName: "Vanguard", Level: 0, XP: 0}
	s.shared[userID] = &model.SharedData{
		UserID:            userID,
		ActiveCharacterID: charID,
		SharedProgression: map[string]model.PrestigeProgress{},
	}
}

func TestConsumeMaterializesPackRewardsIntoItemsEarned(t *testing.T) {
	packItem := uuid.New()
	cobra := uuid.New()

	weapons := refdata.Category{Base: refdata.CategoryWeapons}
	items := []refdata.Item{
		{Name: packItem, Category: refdata.Category{Base: refdata.CategoryItemPack}, Consumable: true, Droppable: false, IsPack: true},
		{Name: cobra, Category: weapons, Droppable: true, Consumable: true},
	}
	packs := []refdata.Pack{
		{Name: packItem, Collections: []refdata.PackCollection{
			{Filter: refdata.Named(cobra), StackSize: 5, Amount: 1},
		}},
	}
	tables := testTables(t, items, packs, nil)

	s := newFakeStore()
	seedPlayer(s, 1, 10)
	s.inventory[1] = &model.InventoryItem{ID: 1, UserID: 1, DefinitionName: packItem, StackSize: 1}

	p := New(s, tables)
	result, err := p.Consume(context.Background(), 1, []ConsumeItem{{DefinitionName: packItem, Count: 1}})
	require.NoError(t, err)

	require.Len(t, result.ItemsEarned, 1)
	assert.Equal(t, cobra, result.ItemsEarned[0])

	granted, err := s.GetInventoryItem(context.Background(), 1, cobra)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), granted.StackSize)

	_, err = s.GetInventoryItem(context.Background(), 1, packItem)
	assert.ErrorIs(t, err, store.ErrNotFound, "the consumed pack stack should be gone")
}

func TestConsumeRejectsUnownedItem(t *testing.T) {
	def := uuid.New()
	tables := testTables(t, []refdata.Item{{Name: def, Consumable: true}}, nil, nil)

	s := newFakeStore()
	seedPlayer(s, 1, 10)

	p := New(s, tables)
	_, err := p.Consume(context.Background(), 1, []ConsumeItem{{DefinitionName: def, Count: 1}})
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestConsumeRejectsNonConsumableItem(t *testing.T) {
	def := uuid.New()
	tables := testTables(t, []refdata.Item{{Name: def, Consumable: false}}, nil, nil)

	s := newFakeStore()
	seedPlayer(s, 1, 10)
	s.inventory[1] = &model.InventoryItem{ID: 1, UserID: 1, DefinitionName: def, StackSize: 1}

	p := New(s, tables)
	_, err := p.Consume(context.Background(), 1, []ConsumeItem{{DefinitionName: def, Count: 1}})
	assert.ErrorIs(t, err, ErrNotConsumable)
}

func TestConsumeRejectsInsufficientStack(t *testing.T) {
	def := uuid.New()
	tables := testTables(t, []refdata.Item{{Name: def, Consumable: true}}, nil, nil)

	s := newFakeStore()
	seedPlayer(s, 1, 10)
	s.inventory[1] = &model.InventoryItem{ID: 1, UserID: 1, DefinitionName: def, StackSize: 1}

	p := New(s, tables)
	_, err := p.Consume(context.Background(), 1, []ConsumeItem{{DefinitionName: def, Count: 2}})
	assert.ErrorIs(t, err, ErrNotEnough)
}

func TestPurchaseDebitsCurrencyAndCreditsItem(t *testing.T) {
	item := uuid.New()
	article := refdata.StoreArticle{
		Name:     uuid.New(),
		ItemName: item,
		Prices:   []refdata.StorePrice{{Currency: "Mtx", FinalPrice: 100}},
	}
	tables := testTables(t, []refdata.Item{{Name: item, Category: refdata.Category{Base: refdata.CategoryWeapons}}}, nil, []refdata.StoreArticle{article})

	s := newFakeStore()
	seedPlayer(s, 1, 10)
	s.currencies[currencyKey(1, "Mtx")] = 500

	p := New(s, tables)
	result, err := p.Purchase(context.Background(), 1, PurchaseRequest{ArticleName: article.Name, Currency: "Mtx"})
	require.NoError(t, err)
	require.Len(t, result.ItemsEarned, 1)
	assert.Equal(t, item, result.ItemsEarned[0])

	assert.Equal(t, uint64(400), s.currencies[currencyKey(1, "Mtx")])

	granted, err := s.GetInventoryItem(context.Background(), 1, item)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), granted.StackSize)
}

func TestPurchaseFailsWithoutFunds(t *testing.T) {
	item := uuid.New()
	article := refdata.StoreArticle{
		Name:     uuid.New(),
		ItemName: item,
		Prices:   []refdata.StorePrice{{Currency: "Mtx", FinalPrice: 100}},
	}
	tables := testTables(t, []refdata.Item{{Name: item}}, nil, []refdata.StoreArticle{article})

	s := newFakeStore()
	seedPlayer(s, 1, 10)
	s.currencies[currencyKey(1, "Mtx")] = 10

	p := New(s, tables)
	_, err := p.Purchase(context.Background(), 1, PurchaseRequest{ArticleName: article.Name, Currency: "Mtx"})
	assert.ErrorIs(t, err, store.ErrInsufficientFunds)
}

func TestPurchaseRejectsLimitReached(t *testing.T) {
	item := uuid.New()
	article := refdata.StoreArticle{
		Name:     uuid.New(),
		ItemName: item,
		Prices:   []refdata.StorePrice{{Currency: "Mtx", FinalPrice: 10}},
		Limits:   []refdata.StoreLimit{{Scope: "USER", Maximum: 1}},
	}
	tables := testTables(t, []refdata.Item{{Name: item}}, nil, []refdata.StoreArticle{article})

	s := newFakeStore()
	seedPlayer(s, 1, 10)
	s.currencies[currencyKey(1, "Mtx")] = 1000
	s.purchases[purchaseKey(1, article.Name)] = 1

	p := New(s, tables)
	_, err := p.Purchase(context.Background(), 1, PurchaseRequest{ArticleName: article.Name, Currency: "Mtx"})
	assert.ErrorIs(t, err, ErrLimitReached)
}

func TestPurchaseCreatesCharacterForCharacterCategoryArticle(t *testing.T) {
	charItem := uuid.New()
	article := refdata.StoreArticle{
		Name:     uuid.New(),
		ItemName: charItem,
		Prices:   []refdata.StorePrice{{Currency: "Mtx", FinalPrice: 50}},
	}
	tables := testTables(t, []refdata.Item{
		{Name: charItem, Category: refdata.Category{Base: refdata.CategoryCharacters}},
	}, nil, []refdata.StoreArticle{article})

	s := newFakeStore()
	seedPlayer(s, 1, 10)
	s.currencies[currencyKey(1, "Mtx")] = 500

	p := New(s, tables)
	_, err := p.Purchase(context.Background(), 1, PurchaseRequest{ArticleName: article.Name, Currency: "Mtx"})
	require.NoError(t, err)

	_, err = s.GetInventoryItem(context.Background(), 1, charItem)
	assert.ErrorIs(t, err, store.ErrNotFound, "a character reward is a new character row, not an inventory stack")

	assert.Len(t, s.characters, 2, "the seeded character plus the newly created one")
}
