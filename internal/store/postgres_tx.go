package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/udisondev/blazecoop/internal/model"
)

// pgTx implements Tx over a single pgx.Transaction. Grounded on
// internal/db/persistence.go's PlayerPersistenceService.SavePlayer:
// begin once, defer a rollback that's a no-op after commit, wrap every
// step's error with its subject.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

func (t *pgTx) SaveCharacter(ctx context.Context, c *model.Character) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE characters SET level = $1, xp = $2 WHERE id = $3`,
		c.Level, c.XP, c.ID,
	)
	if err != nil {
		return fmt.Errorf("saving character %d: %w", c.ID, err)
	}
	return nil
}

func (t *pgTx) SaveSharedProgression(ctx context.Context, userID uint32, progress model.PrestigeProgress) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO shared_progression (user_id, class_name, level, xp)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, class_name) DO UPDATE SET level = $3, xp = $4`,
		userID, progress.ClassName, progress.Level, progress.XP,
	)
	if err != nil {
		return fmt.Errorf("saving shared progression for user %d class %q: %w", userID, progress.ClassName, err)
	}
	return nil
}

func (t *pgTx) SaveChallengeProgress(ctx context.Context, p *model.ChallengeProgress) error {
	for _, c := range p.Counters {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO challenge_counters
			   (user_id, challenge_id, name, times_completed, total_count, current_count, target_count, reset_count, last_changed)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (user_id, challenge_id, name) DO UPDATE SET
			   times_completed = $4, total_count = $5, current_count = $6,
			   target_count = $7, reset_count = $8, last_changed = $9`,
			p.UserID, p.ChallengeID, c.Name, c.TimesCompleted, c.TotalCount, c.CurrentCount, c.TargetCount, c.ResetCount, c.LastChanged,
		)
		if err != nil {
			return fmt.Errorf("saving challenge counter %q for user %d challenge %q: %w", c.Name, p.UserID, p.ChallengeID, err)
		}
	}
	return nil
}

func (t *pgTx) AddCurrency(ctx context.Context, userID uint32, typ model.CurrencyType, amount uint64) (uint64, error) {
	var balance uint64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO currency_balances (user_id, type, balance)
		 VALUES ($1, $2, LEAST($3, $4))
		 ON CONFLICT (user_id, type) DO UPDATE SET
		   balance = LEAST(currency_balances.balance + $3, $4)
		 RETURNING balance`,
		userID, typ, amount, model.MaxSafeCurrency,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("crediting %d %s to user %d: %w", amount, typ, userID, err)
	}
	return balance, nil
}

func (t *pgTx) UpsertInventoryItem(ctx context.Context, item model.InventoryItem, cap uint32) (model.InventoryItem, error) {
	if cap == 0 {
		cap = math.MaxUint32
	}
	now := time.Now()

	var out model.InventoryItem
	err := t.tx.QueryRow(ctx,
		`INSERT INTO inventory_items (user_id, definition_name, stack_size, seen, created_at, last_granted_at, earned_by, restricted)
		 VALUES ($1, $2, $3, false, $4, $4, $5, $6)
		 ON CONFLICT (user_id, definition_name) DO UPDATE SET
		   stack_size = LEAST(inventory_items.stack_size + $3, $7),
		   last_granted_at = $4
		 RETURNING id, user_id, definition_name, stack_size, seen, created_at, last_granted_at, earned_by, restricted`,
		item.UserID, item.DefinitionName, item.StackSize, now, item.EarnedBy, item.Restricted, cap,
	).Scan(&out.ID, &out.UserID, &out.DefinitionName, &out.StackSize, &out.Seen, &out.CreatedAt, &out.LastGrantedAt, &out.EarnedBy, &out.Restricted)
	if err != nil {
		return model.InventoryItem{}, fmt.Errorf("upserting inventory item for user %d definition %s: %w", item.UserID, item.DefinitionName, err)
	}
	return out, nil
}

func (t *pgTx) DeleteInventoryItem(ctx context.Context, itemID uint32) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("deleting inventory item %d: %w", itemID, err)
	}
	return nil
}

func (t *pgTx) ConsumeInventoryItem(ctx context.Context, itemID uint32, count uint32) (uint32, error) {
	var remaining uint32
	err := t.tx.QueryRow(ctx,
		`UPDATE inventory_items SET stack_size = stack_size - $1 WHERE id = $2 RETURNING stack_size`,
		count, itemID,
	).Scan(&remaining)
	if err != nil {
		return 0, fmt.Errorf("consuming inventory item %d: %w", itemID, err)
	}
	if remaining == 0 {
		if err := t.DeleteInventoryItem(ctx, itemID); err != nil {
			return 0, err
		}
	}
	return remaining, nil
}

func (t *pgTx) DebitCurrency(ctx context.Context, userID uint32, typ model.CurrencyType, amount uint64) (uint64, error) {
	var balance uint64
	err := t.tx.QueryRow(ctx,
		`UPDATE currency_balances SET balance = balance - $1
		 WHERE user_id = $2 AND type = $3 AND balance >= $1
		 RETURNING balance`,
		amount, userID, typ,
	).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, fmt.Errorf("debiting %d %s from user %d: %w", amount, typ, userID, ErrInsufficientFunds)
		}
		return 0, fmt.Errorf("debiting %d %s from user %d: %w", amount, typ, userID, err)
	}
	return balance, nil
}

func (t *pgTx) PurchaseCount(ctx context.Context, userID uint32, articleName uuid.UUID) (uint32, error) {
	var count uint32
	err := t.tx.QueryRow(ctx,
		`SELECT count FROM store_purchase_counts WHERE user_id = $1 AND article_name = $2`,
		userID, articleName,
	).Scan(&count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("querying purchase count for user %d article %s: %w", userID, articleName, err)
	}
	return count, nil
}

func (t *pgTx) RecordPurchase(ctx context.Context, userID uint32, articleName uuid.UUID) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO store_purchase_counts (user_id, article_name, count)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, article_name) DO UPDATE SET count = store_purchase_counts.count + 1`,
		userID, articleName,
	)
	if err != nil {
		return fmt.Errorf("recording purchase for user %d article %s: %w", userID, articleName, err)
	}
	return nil
}

func (t *pgTx) CreateCharacter(ctx context.Context, userID uint32, className string) (*model.Character, error) {
	c := &model.Character{UserID: userID, ClassName: className, Level: 1, Equipment: map[string]string{}}
	err := t.tx.QueryRow(ctx,
		`INSERT INTO characters (user_id, class_name, level, xp) VALUES ($1, $2, 1, 0) RETURNING id`,
		userID, className,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("creating character for user %d class %q: %w", userID, className, err)
	}
	return c, nil
}

func (t *pgTx) CreateMission(ctx context.Context, m model.StrikeTeamMission) (uint32, error) {
	rewards, err := json.Marshal(m.Rewards)
	if err != nil {
		return 0, fmt.Errorf("marshaling rewards for mission %q: %w", m.DescriptorName, err)
	}

	var id uint32
	err = t.tx.QueryRow(ctx,
		`INSERT INTO strike_team_missions
		   (descriptor_name, kind, accessibility, enemy_tag, game_tags, difficulty, level, rewards, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		m.DescriptorName, m.Kind, m.Accessibility, m.EnemyTag, m.GameTags, m.Difficulty, m.Level, rewards, m.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating mission %q: %w", m.DescriptorName, err)
	}
	return id, nil
}
