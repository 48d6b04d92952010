// Package activity turns an end-of-match report into per-player reward
// records, persisting each player's changes in its own database
// transaction so one player's failure never poisons another's (spec.md
// §4.H).
//
// Grounded on internal/db/persistence.go's PlayerPersistenceService:
// begin a transaction, run every write step against it, wrap each step's
// error with its subject, and roll back on the first failure. Here the
// "single save" becomes a ten-step fold per player instead of a fixed
// character/items/skills sequence, but the transaction discipline is the
// same.
package activity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/blazecoop/internal/model"
	"github.com/udisondev/blazecoop/internal/refdata"
	"github.com/udisondev/blazecoop/internal/store"
)

// ErrMissingCharacter is returned when a player has no active character
// set, per spec.md §4.H step 1.
var ErrMissingCharacter = errors.New("activity: no active character")

// Event is one typed occurrence inside a player's match block (spec.md
// §4.H: ItemConsumed, BadgeEarned, CharacterLevelUp, challenge-tracking
// events named by a runtime UUID, and so on).
type Event struct {
	Name  string
	Attrs map[string]string
}

// PlayerBlock is one participant's slice of an end-of-match report.
type PlayerBlock struct {
	UserID       uint32
	Events       []Event
	Stats        map[string]string
	WaveCounts   map[string]uint64
	PresentAtEnd bool
}

// Report is the end-of-match submission from spec.md §4.H.
type Report struct {
	Duration        time.Duration
	PercentComplete float64
	ExtractionState string
	Modifiers       map[string]string
	MatchID         uuid.UUID
	Players         []PlayerBlock
}

// RewardSource is one named contributor to a player's earned XP/currency
// (e.g. "base", a modifier name, or a badge's UUID).
type RewardSource struct {
	Name       string
	XP         uint64
	Currencies map[string]uint64
}

// ChallengeStatus distinguishes a freshly created counter from one that
// already existed and was merely updated.
type ChallengeStatus string

const (
	ChallengeNotify  ChallengeStatus = "Notify"
	ChallengeChanged ChallengeStatus = "Changed"
)

// ChallengeUpdate reports one challenge counter's post-merge state.
type ChallengeUpdate struct {
	ChallengeID    string
	CounterName    string
	Status         ChallengeStatus
	TimesCompleted uint32
	CurrentCount   uint64
	TargetCount    uint64
}

// BadgeRecord is the player-visible summary of one badge's progress this
// match (spec.md §4.H step 3).
type BadgeRecord struct {
	BadgeName    string
	Count        uint64
	HighestLevel string
	EarnedLevels []string
}

// Result is the shaped post-match summary shared by the match-report,
// inventory-consume, and store-purchase pipelines (spec.md §4.H step 10).
type Result struct {
	UserID uint32

	PreviousXP, CurrentXP       uint64
	PreviousLevel, CurrentLevel uint32
	LeveledUp                   bool

	Score      uint64
	TotalScore uint64
	ClassName  string

	RewardSources     []RewardSource
	Badges            []BadgeRecord
	ChallengesUpdated map[string]ChallengeUpdate
	ItemsEarned       []uuid.UUID

	PrestigeBefore map[string]model.PrestigeProgress
	PrestigeAfter  map[string]model.PrestigeProgress
}

// PlayerError pairs a failed player's id with the error that rolled back
// their transaction.
type PlayerError struct {
	UserID uint32
	Err    error
}

func (e PlayerError) Error() string {
	return fmt.Sprintf("activity: player %d: %v", e.UserID, e.Err)
}

// Pipeline computes and persists match rewards.
type Pipeline struct {
	store  store.Store
	tables *refdata.Tables
}

// New builds a Pipeline over s and tables.
func New(s store.Store, tables *refdata.Tables) *Pipeline {
	return &Pipeline{store: s, tables: tables}
}

// ProcessReport runs every player block in the report independently,
// returning the successful results and the failures, in the order the
// report listed its players.
func (p *Pipeline) ProcessReport(ctx context.Context, report Report) ([]Result, []PlayerError) {
	var results []Result
	var failures []PlayerError

	for _, block := range report.Players {
		res, err := p.processPlayer(ctx, block, report.Modifiers)
		if err != nil {
			failures = append(failures, PlayerError{UserID: block.UserID, Err: err})
			continue
		}
		results = append(results, res)
	}
	return results, failures
}

// playerContext is the per-player state loaded once up front and shared by
// the match-report, consume, and purchase entrypoints, since all three feed
// their events through the same badge/challenge/XP/currency machinery
// (spec.md §4.H step 1, and the final paragraph's consume/purchase paths).
type playerContext struct {
	userID        uint32
	shared        *model.SharedData
	character     *model.Character
	class         refdata.ClassDescriptor
	levelTable    refdata.LevelTable
	prestigeTable refdata.LevelTable
}

func (p *Pipeline) loadPlayerContext(ctx context.Context, userID uint32) (*playerContext, error) {
	shared, err := p.store.GetSharedData(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading shared data: %w", err)
	}
	if shared.ActiveCharacterID == 0 {
		return nil, ErrMissingCharacter
	}
	character, err := p.store.GetCharacter(ctx, shared.ActiveCharacterID)
	if err != nil {
		return nil, fmt.Errorf("loading active character: %w", err)
	}
	class, ok := p.tables.Class(character.ClassName)
	if !ok {
		return nil, fmt.Errorf("activity: unknown class %q", character.ClassName)
	}
	levelTable, ok := p.tables.LevelTable(class.LevelTableName)
	if !ok {
		return nil, fmt.Errorf("activity: unknown level table %q", class.LevelTableName)
	}
	prestigeTable, ok := p.tables.LevelTable(class.PrestigeTableName)
	if !ok {
		return nil, fmt.Errorf("activity: unknown prestige table %q", class.PrestigeTableName)
	}
	return &playerContext{
		userID:        userID,
		shared:        shared,
		character:     character,
		class:         class,
		levelTable:    levelTable,
		prestigeTable: prestigeTable,
	}, nil
}

func (p *Pipeline) processPlayer(ctx context.Context, block PlayerBlock, modifiers map[string]string) (Result, error) {
	pc, err := p.loadPlayerContext(ctx, block.UserID)
	if err != nil {
		return Result{}, err
	}

	tx, err := p.store.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			_ = err // rollback after commit is a no-op; nothing else to do
		}
	}()

	result, err := p.processEvents(ctx, tx, pc, block.Events, modifiers)
	if err != nil {
		return Result{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("committing: %w", err)
	}
	return result, nil
}

// processEvents folds events through steps 2-9 (badges, base XP, modifiers,
// character leveling, prestige leveling, challenges, currency) against the
// given transaction, without committing it - the caller commits once it has
// run any additional steps of its own (inventory consume/grant, currency
// debit) in the same transaction.
func (p *Pipeline) processEvents(ctx context.Context, tx store.Tx, pc *playerContext, events []Event, modifiers map[string]string) (Result, error) {
	userID := pc.userID
	character := pc.character
	class := pc.class
	shared := pc.shared

	acc := newAccumulator()

	// 2. Base score.
	var score uint64
	for _, ev := range events {
		score += attrUint(ev.Attrs, "score")
	}

	// 3. Badges.
	var badges []BadgeRecord
	for _, ev := range events {
		badge, ok := p.tables.FindBadge(ev.Name, ev.Attrs)
		if !ok {
			continue
		}
		progress := attrUint(ev.Attrs, badge.ProgressKey)

		var earnedLevels []string
		var highest string
		for _, lvl := range badge.Levels {
			if lvl.TargetCount > progress {
				continue
			}
			earnedLevels = append(earnedLevels, lvl.Name)
			highest = lvl.Name
			acc.addSource(badge.ID, lvl.XP, lvl.Currencies)
		}
		if len(earnedLevels) > 0 {
			badges = append(badges, BadgeRecord{
				BadgeName:    badge.Name,
				Count:        progress,
				HighestLevel: highest,
				EarnedLevels: earnedLevels,
			})
		}
	}

	// 4. Base XP reward.
	acc.addSource("base", score, nil)

	// 5. Modifiers.
	for name, value := range modifiers {
		desc, ok := p.tables.Modifier(name)
		if !ok {
			continue
		}
		var mv refdata.ModifierValue
		var found bool
		for _, v := range desc.Values {
			if v.Value == value {
				mv, found = v, true
				break
			}
		}
		if !found {
			continue
		}

		before := acc.xp
		acc.xp = mv.XPFormula.Apply(acc.xp)
		xpDelta := deltaToUint(acc.xp - before)

		currencyDelta := make(map[string]uint64, len(mv.Currencies))
		for currency, formula := range mv.Currencies {
			beforeC := acc.currencies[currency]
			acc.currencies[currency] = formula.Apply(beforeC)
			currencyDelta[currency] = deltaToUint(acc.currencies[currency] - beforeC)
		}
		// The totals already hold the modified values, so record the source
		// without going through addSource, which would add the delta again.
		if xpDelta != 0 || len(currencyDelta) != 0 {
			acc.sources = append(acc.sources, RewardSource{Name: name, XP: xpDelta, Currencies: currencyDelta})
		}
	}

	// 6. Character leveling.
	prevLevel, prevXP := character.Level, character.XP
	newLevel, newXP := foldLevel(character.Level, character.XP, deltaToUint(acc.xp), pc.levelTable)
	if newLevel != character.Level || newXP != character.XP {
		character.Level, character.XP = newLevel, newXP
		if err := tx.SaveCharacter(ctx, character); err != nil {
			return Result{}, fmt.Errorf("saving character leveling: %w", err)
		}
	}

	// 7. Prestige leveling.
	prestigeBefore := copyPrestige(shared.SharedProgression)
	pp := shared.SharedProgression[class.Name]
	pp.ClassName = class.Name
	newPrestigeLevel, newPrestigeXP := foldLevel(pp.Level, pp.XP, deltaToUint(acc.xp), pc.prestigeTable)
	pp.Level, pp.XP = newPrestigeLevel, newPrestigeXP
	shared.SharedProgression[class.Name] = pp
	if err := tx.SaveSharedProgression(ctx, userID, pp); err != nil {
		return Result{}, fmt.Errorf("saving prestige progression: %w", err)
	}
	prestigeAfter := copyPrestige(shared.SharedProgression)

	// 8. Challenges.
	type challengeKey struct{ challengeID, counter string }
	merged := map[challengeKey]uint64{}
	order := []challengeKey{}
	for _, ev := range events {
		ch, ok := p.tables.FindChallenge(ev.Name, ev.Attrs)
		if !ok {
			continue
		}
		key := challengeKey{ch.ChallengeID, ch.CounterName}
		if _, seen := merged[key]; !seen {
			order = append(order, key)
		}
		merged[key] += 1
	}

	updates := make(map[string]ChallengeUpdate, len(order))
	for i, key := range order {
		progressDelta := merged[key]

		existing, err := p.store.GetChallengeProgress(ctx, userID, key.challengeID)
		status := ChallengeChanged
		var cp *model.ChallengeProgress
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return Result{}, fmt.Errorf("loading challenge progress %q: %w", key.challengeID, err)
			}
			status = ChallengeNotify
			cp = &model.ChallengeProgress{UserID: userID, ChallengeID: key.challengeID}
		} else {
			cp = existing
		}

		var counter *model.ChallengeCounter
		for i := range cp.Counters {
			if cp.Counters[i].Name == key.counter {
				counter = &cp.Counters[i]
				break
			}
		}
		if counter == nil {
			cp.Counters = append(cp.Counters, model.ChallengeCounter{Name: key.counter})
			counter = &cp.Counters[len(cp.Counters)-1]
			status = ChallengeNotify
		}

		ch, _ := findChallengeDescriptor(p.tables, key.challengeID, key.counter)
		counter.TotalCount += progressDelta
		counter.CurrentCount += progressDelta
		counter.LastChanged = time.Now()
		if ch.TargetCount > 0 {
			counter.TargetCount = ch.TargetCount
		}

		if ch.Repeatable {
			for counter.TargetCount > 0 && counter.CurrentCount >= counter.TargetCount {
				counter.CurrentCount -= counter.TargetCount
				counter.TimesCompleted++
			}
		} else if counter.TargetCount > 0 && counter.CurrentCount >= counter.TargetCount {
			counter.CurrentCount = counter.TargetCount
			counter.TimesCompleted = 1
		}

		if err := tx.SaveChallengeProgress(ctx, cp); err != nil {
			return Result{}, fmt.Errorf("saving challenge progress %q: %w", key.challengeID, err)
		}

		updates[strconv.Itoa(i+1)] = ChallengeUpdate{
			ChallengeID:    key.challengeID,
			CounterName:    key.counter,
			Status:         status,
			TimesCompleted: counter.TimesCompleted,
			CurrentCount:   counter.CurrentCount,
			TargetCount:    counter.TargetCount,
		}
	}

	// 9. Currency.
	for currency, amount := range acc.currencies {
		if amount <= 0 {
			continue
		}
		if _, err := tx.AddCurrency(ctx, userID, model.CurrencyType(currency), deltaToUint(amount)); err != nil {
			return Result{}, fmt.Errorf("crediting currency %q: %w", currency, err)
		}
	}

	return Result{
		UserID:            userID,
		PreviousXP:        prevXP,
		CurrentXP:         newXP,
		PreviousLevel:     prevLevel,
		CurrentLevel:      newLevel,
		LeveledUp:         newLevel != prevLevel,
		Score:             score,
		TotalScore:        score,
		ClassName:         class.Name,
		RewardSources:     acc.sources,
		Badges:            badges,
		ChallengesUpdated: updates,
		PrestigeBefore:    prestigeBefore,
		PrestigeAfter:     prestigeAfter,
	}, nil
}

// ConsumeItem names an inventory stack to consume and how much of it.
type ConsumeItem struct {
	DefinitionName uuid.UUID
	Count          uint32
}

var (
	// ErrNotOwned is returned when the player has no inventory row for the
	// requested item (original_source/src/http/routes/inventory.rs's
	// InventoryItem::get -> NotOwned).
	ErrNotOwned = errors.New("activity: item not owned")
	// ErrMissingDefinition is returned when the item has no reference
	// definition loaded.
	ErrMissingDefinition = errors.New("activity: missing item definition")
	// ErrNotConsumable is returned when the item's definition marks it
	// non-consumable.
	ErrNotConsumable = errors.New("activity: item not consumable")
	// ErrNotEnough is returned when the requested count exceeds the stack.
	ErrNotEnough = errors.New("activity: not enough stack to consume")
)

// Consume decrements each requested item's stack, emits an "_itemConsumed"
// activity event per item, and - if the item is a loot pack - materializes
// its rewards into the player's inventory and into the result's
// ItemsEarned. Grounded on original_source/src/http/routes/inventory.rs's
// consume_item/consume_inventory (ownership check, stack-size check,
// decrement, ActivityEvent feed into the same event pipeline).
func (p *Pipeline) Consume(ctx context.Context, userID uint32, items []ConsumeItem) (Result, error) {
	pc, err := p.loadPlayerContext(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	tx, err := p.store.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			_ = err
		}
	}()

	var events []Event
	var earned []uuid.UUID
	for _, ci := range items {
		inv, err := p.store.GetInventoryItem(ctx, userID, ci.DefinitionName)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Result{}, fmt.Errorf("consuming %s: %w", ci.DefinitionName, ErrNotOwned)
			}
			return Result{}, fmt.Errorf("loading inventory item %s: %w", ci.DefinitionName, err)
		}
		def, ok := p.tables.FindItem(ci.DefinitionName)
		if !ok {
			return Result{}, fmt.Errorf("consuming %s: %w", ci.DefinitionName, ErrMissingDefinition)
		}
		if !def.Consumable {
			return Result{}, fmt.Errorf("consuming %s: %w", ci.DefinitionName, ErrNotConsumable)
		}
		if inv.StackSize < ci.Count {
			return Result{}, fmt.Errorf("consuming %s: %w", ci.DefinitionName, ErrNotEnough)
		}
		if _, err := tx.ConsumeInventoryItem(ctx, inv.ID, ci.Count); err != nil {
			return Result{}, fmt.Errorf("consuming inventory item %s: %w", ci.DefinitionName, err)
		}

		events = append(events, Event{
			Name: "_itemConsumed",
			Attrs: map[string]string{
				"category":       def.Category.String(),
				"definitionName": def.Name.String(),
				"count":          strconv.FormatUint(uint64(ci.Count), 10),
			},
		})

		if def.IsPack {
			granted, err := p.grantPackRewards(ctx, tx, userID, def.Name)
			if err != nil {
				return Result{}, err
			}
			earned = append(earned, granted...)
		}
	}

	result, err := p.processEvents(ctx, tx, pc, events, nil)
	if err != nil {
		return Result{}, err
	}
	result.ItemsEarned = earned

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("committing: %w", err)
	}
	return result, nil
}

// grantPackRewards draws the pack's weighted samples and credits every
// reward to the player's inventory, creating a character row instead when
// a reward's definition is itself a playable character. Grounded on
// original_source/src/services/items/mod.rs's grant_items.
func (p *Pipeline) grantPackRewards(ctx context.Context, tx store.Tx, userID uint32, packName uuid.UUID) ([]uuid.UUID, error) {
	pack, ok := p.tables.FindPack(packName)
	if !ok {
		return nil, nil
	}

	rewards := pack.GenerateRewards(p.tables.Items)
	granted := make([]uuid.UUID, 0, len(rewards))
	for _, r := range rewards {
		rewardDef, ok := p.tables.FindItem(r.ItemName)
		if ok && rewardDef.Category.Base == refdata.CategoryCharacters {
			if _, err := tx.CreateCharacter(ctx, userID, rewardDef.Name.String()); err != nil {
				return nil, fmt.Errorf("creating character from pack reward %s: %w", r.ItemName, err)
			}
			granted = append(granted, r.ItemName)
			continue
		}

		if _, err := tx.UpsertInventoryItem(ctx, model.InventoryItem{
			UserID:         userID,
			DefinitionName: r.ItemName,
			StackSize:      r.StackSize,
			EarnedBy:       "pack:" + packName.String(),
		}, rewardDef.Capacity); err != nil {
			return nil, fmt.Errorf("granting pack reward %s: %w", r.ItemName, err)
		}
		granted = append(granted, r.ItemName)
	}
	return granted, nil
}

// PurchaseRequest names a store article and the currency to pay with.
type PurchaseRequest struct {
	ArticleName uuid.UUID
	Currency    string
}

var (
	// ErrArticleNotFound is returned when no store catalog entry matches.
	ErrArticleNotFound = errors.New("activity: store article not found")
	// ErrMissingCurrencyPrice is returned when the article has no price
	// listed in the requested currency.
	ErrMissingCurrencyPrice = errors.New("activity: article has no price in requested currency")
	// ErrLimitReached is returned when a store limit's purchase count has
	// already been met.
	ErrLimitReached = errors.New("activity: store purchase limit reached")
)

// Purchase resolves the article, checks currency and limits, debits the
// price, credits the item, and emits an "_articlePurchased" activity event
// through the same reward pipeline as a match report. Grounded on
// original_source/src/http/routes/store.rs's obtain_article and
// src/definitions/store_catalogs.rs's StoreArticle/StoreLimit shape.
func (p *Pipeline) Purchase(ctx context.Context, userID uint32, req PurchaseRequest) (Result, error) {
	pc, err := p.loadPlayerContext(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	article, ok := p.tables.FindArticle(req.ArticleName)
	if !ok {
		return Result{}, fmt.Errorf("purchasing %s: %w", req.ArticleName, ErrArticleNotFound)
	}
	price, ok := article.Price(req.Currency)
	if !ok {
		return Result{}, fmt.Errorf("purchasing %s: %w", req.ArticleName, ErrMissingCurrencyPrice)
	}

	tx, err := p.store.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			_ = err
		}
	}()

	for _, limit := range article.Limits {
		if limit.Maximum == 0 {
			continue
		}
		count, err := tx.PurchaseCount(ctx, userID, req.ArticleName)
		if err != nil {
			return Result{}, fmt.Errorf("checking purchase limit for %s: %w", req.ArticleName, err)
		}
		if count >= limit.Maximum {
			return Result{}, fmt.Errorf("purchasing %s: %w", req.ArticleName, ErrLimitReached)
		}
	}

	if _, err := tx.DebitCurrency(ctx, userID, model.CurrencyType(req.Currency), uint64(price)); err != nil {
		return Result{}, fmt.Errorf("debiting currency for %s: %w", req.ArticleName, err)
	}
	if err := tx.RecordPurchase(ctx, userID, req.ArticleName); err != nil {
		return Result{}, fmt.Errorf("recording purchase of %s: %w", req.ArticleName, err)
	}

	itemDef, itemKnown := p.tables.FindItem(article.ItemName)
	var earned []uuid.UUID
	if itemKnown && itemDef.Category.Base == refdata.CategoryCharacters {
		if _, err := tx.CreateCharacter(ctx, userID, itemDef.Name.String()); err != nil {
			return Result{}, fmt.Errorf("creating character from purchase %s: %w", article.ItemName, err)
		}
	} else {
		if _, err := tx.UpsertInventoryItem(ctx, model.InventoryItem{
			UserID:         userID,
			DefinitionName: article.ItemName,
			StackSize:      1,
			EarnedBy:       "store:" + article.Name.String(),
		}, itemDef.Capacity); err != nil {
			return Result{}, fmt.Errorf("crediting purchased item %s: %w", article.ItemName, err)
		}
	}
	earned = append(earned, article.ItemName)

	events := []Event{{
		Name: "_articlePurchased",
		Attrs: map[string]string{
			"articleName": article.Name.String(),
			"currency":    req.Currency,
			"price":       strconv.FormatUint(uint64(price), 10),
		},
	}}

	result, err := p.processEvents(ctx, tx, pc, events, nil)
	if err != nil {
		return Result{}, err
	}
	result.ItemsEarned = earned

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("committing: %w", err)
	}
	return result, nil
}

// accumulator tracks the running XP/currency totals used to compute
// reward-source deltas across steps 3-5.
type accumulator struct {
	xp         float64
	currencies map[string]float64
	sources    []RewardSource
}

func newAccumulator() *accumulator {
	return &accumulator{currencies: map[string]float64{}}
}

func (a *accumulator) addSource(name string, xp uint64, currencies map[string]uint64) {
	if xp == 0 && len(currencies) == 0 {
		return
	}
	a.xp += float64(xp)
	out := make(map[string]uint64, len(currencies))
	for k, v := range currencies {
		a.currencies[k] += float64(v)
		out[k] = v
	}
	a.sources = append(a.sources, RewardSource{Name: name, XP: xp, Currencies: out})
}

func deltaToUint(f float64) uint64 {
	if f <= 0 {
		return 0
	}
	return uint64(f)
}

func attrUint(attrs map[string]string, key string) uint64 {
	if key == "" {
		return 0
	}
	v, ok := attrs[key]
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// foldLevel applies earned XP to (level, xp), incrementing level every
// time the running total reaches the table's next threshold, then
// clamps the running total to the final next threshold (spec.md §4.H
// step 6/7).
func foldLevel(level uint32, xp uint64, earned uint64, table refdata.LevelTable) (uint32, uint64) {
	current := xp + earned
	for {
		next, ok := table.Next(level)
		if !ok || current < next {
			break
		}
		level++
	}
	if next, ok := table.Next(level); ok && current > next {
		current = next
	}
	return level, current
}

func copyPrestige(src map[string]model.PrestigeProgress) map[string]model.PrestigeProgress {
	out := make(map[string]model.PrestigeProgress, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func findChallengeDescriptor(tables *refdata.Tables, challengeID, counter string) (refdata.ChallengeDescriptor, bool) {
	for _, c := range tables.Challenges {
		if c.ChallengeID == challengeID && c.CounterName == counter {
			return c, true
		}
	}
	return refdata.ChallengeDescriptor{}, false
}
