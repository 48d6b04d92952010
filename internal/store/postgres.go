package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/blazecoop/internal/model"
)

// Postgres is the pgx-backed Store implementation. Grounded on
// internal/db.DB: a thin wrapper around *pgxpool.Pool exposing one method
// per query, with errors wrapped in fmt.Errorf("<verb> <subject>: %w", err).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and verifies the connection with a ping.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Pool exposes the underlying pgx pool. RunMigrations does not use it; it
// opens its own database/sql handle from the DSN.
func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func (p *Postgres) GetUser(ctx context.Context, userID uint32) (*model.User, error) {
	var u model.User
	err := p.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if noRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying user %d: %w", userID, err)
	}
	return &u, nil
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := p.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if noRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying user %q: %w", username, err)
	}
	return &u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, username, passwordHash string) (*model.User, error) {
	var u model.User
	err := p.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3)
		 RETURNING id, username, password_hash, created_at`,
		username, passwordHash, time.Now(),
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating user %q: %w", username, err)
	}
	return &u, nil
}

func (p *Postgres) GetSharedData(ctx context.Context, userID uint32) (*model.SharedData, error) {
	sd := &model.SharedData{UserID: userID, SharedEquipment: map[string]string{}, SharedProgression: map[string]model.PrestigeProgress{}}

	err := p.pool.QueryRow(ctx,
		`SELECT active_character_id FROM shared_data WHERE user_id = $1`, userID,
	).Scan(&sd.ActiveCharacterID)
	if err != nil {
		if noRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying shared data for user %d: %w", userID, err)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT key, value FROM shared_equipment WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying shared equipment for user %d: %w", userID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning shared equipment for user %d: %w", userID, err)
		}
		sd.SharedEquipment[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading shared equipment for user %d: %w", userID, err)
	}

	prog, err := p.pool.Query(ctx,
		`SELECT class_name, level, xp FROM shared_progression WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying shared progression for user %d: %w", userID, err)
	}
	defer prog.Close()
	for prog.Next() {
		var pp model.PrestigeProgress
		if err := prog.Scan(&pp.ClassName, &pp.Level, &pp.XP); err != nil {
			return nil, fmt.Errorf("scanning shared progression for user %d: %w", userID, err)
		}
		sd.SharedProgression[pp.ClassName] = pp
	}
	if err := prog.Err(); err != nil {
		return nil, fmt.Errorf("reading shared progression for user %d: %w", userID, err)
	}

	return sd, nil
}

func (p *Postgres) GetActiveCharacter(ctx context.Context, userID uint32) (*model.Character, error) {
	var charID uint32
	err := p.pool.QueryRow(ctx,
		`SELECT active_character_id FROM shared_data WHERE user_id = $1`, userID,
	).Scan(&charID)
	if err != nil {
		if noRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying active character for user %d: %w", userID, err)
	}
	return p.GetCharacter(ctx, charID)
}

func (p *Postgres) GetCharacter(ctx context.Context, characterID uint32) (*model.Character, error) {
	c := &model.Character{Equipment: map[string]string{}}
	err := p.pool.QueryRow(ctx,
		`SELECT id, user_id, class_name, level, xp FROM characters WHERE id = $1`, characterID,
	).Scan(&c.ID, &c.UserID, &c.ClassName, &c.Level, &c.XP)
	if err != nil {
		if noRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying character %d: %w", characterID, err)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT key, value FROM character_equipment WHERE character_id = $1`, characterID)
	if err != nil {
		return nil, fmt.Errorf("querying equipment for character %d: %w", characterID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning equipment for character %d: %w", characterID, err)
		}
		c.Equipment[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading equipment for character %d: %w", characterID, err)
	}
	return c, nil
}

func (p *Postgres) GetChallengeProgress(ctx context.Context, userID uint32, challengeID string) (*model.ChallengeProgress, error) {
	cp := &model.ChallengeProgress{UserID: userID, ChallengeID: challengeID}

	rows, err := p.pool.Query(ctx,
		`SELECT name, times_completed, total_count, current_count, target_count, reset_count, last_changed
		 FROM challenge_counters WHERE user_id = $1 AND challenge_id = $2`, userID, challengeID)
	if err != nil {
		return nil, fmt.Errorf("querying challenge progress for user %d challenge %q: %w", userID, challengeID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.ChallengeCounter
		if err := rows.Scan(&c.Name, &c.TimesCompleted, &c.TotalCount, &c.CurrentCount, &c.TargetCount, &c.ResetCount, &c.LastChanged); err != nil {
			return nil, fmt.Errorf("scanning challenge counter for user %d challenge %q: %w", userID, challengeID, err)
		}
		cp.Counters = append(cp.Counters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading challenge progress for user %d challenge %q: %w", userID, challengeID, err)
	}
	if len(cp.Counters) == 0 {
		return nil, ErrNotFound
	}
	return cp, nil
}

func (p *Postgres) GetCurrencyBalance(ctx context.Context, userID uint32, typ model.CurrencyType) (*model.CurrencyBalance, error) {
	cb := &model.CurrencyBalance{UserID: userID, Type: typ}
	err := p.pool.QueryRow(ctx,
		`SELECT balance FROM currency_balances WHERE user_id = $1 AND type = $2`, userID, typ,
	).Scan(&cb.Balance)
	if err != nil {
		if noRows(err) {
			return &model.CurrencyBalance{UserID: userID, Type: typ, Balance: 0}, nil
		}
		return nil, fmt.Errorf("querying currency balance for user %d type %s: %w", userID, typ, err)
	}
	return cb, nil
}

func (p *Postgres) GetInventoryItem(ctx context.Context, userID uint32, definitionName uuid.UUID) (*model.InventoryItem, error) {
	it := &model.InventoryItem{Attributes: map[string]string{}}
	err := p.pool.QueryRow(ctx,
		`SELECT id, user_id, definition_name, stack_size, seen, created_at, last_granted_at, earned_by, restricted
		 FROM inventory_items WHERE user_id = $1 AND definition_name = $2`, userID, definitionName,
	).Scan(&it.ID, &it.UserID, &it.DefinitionName, &it.StackSize, &it.Seen, &it.CreatedAt, &it.LastGrantedAt, &it.EarnedBy, &it.Restricted)
	if err != nil {
		if noRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying inventory item for user %d definition %s: %w", userID, definitionName, err)
	}
	return it, nil
}

func (p *Postgres) ListInventory(ctx context.Context, userID uint32) ([]model.InventoryItem, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, definition_name, stack_size, seen, created_at, last_granted_at, earned_by, restricted
		 FROM inventory_items WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing inventory for user %d: %w", userID, err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var it model.InventoryItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.DefinitionName, &it.StackSize, &it.Seen, &it.CreatedAt, &it.LastGrantedAt, &it.EarnedBy, &it.Restricted); err != nil {
			return nil, fmt.Errorf("scanning inventory item for user %d: %w", userID, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading inventory for user %d: %w", userID, err)
	}
	return items, nil
}

func (p *Postgres) ListStrikeTeams(ctx context.Context, userID uint32) ([]model.StrikeTeam, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, name FROM strike_teams WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing strike teams for user %d: %w", userID, err)
	}
	defer rows.Close()

	var teams []model.StrikeTeam
	for rows.Next() {
		var st model.StrikeTeam
		if err := rows.Scan(&st.ID, &st.UserID, &st.Name); err != nil {
			return nil, fmt.Errorf("scanning strike team for user %d: %w", userID, err)
		}
		teams = append(teams, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading strike teams for user %d: %w", userID, err)
	}
	return teams, nil
}

const missionColumns = `id, descriptor_name, kind, accessibility, enemy_tag, game_tags, difficulty, level, rewards, created_at`

func scanMission(row pgx.Row) (model.StrikeTeamMission, error) {
	var m model.StrikeTeamMission
	var rewards []byte
	if err := row.Scan(&m.ID, &m.DescriptorName, &m.Kind, &m.Accessibility, &m.EnemyTag, &m.GameTags, &m.Difficulty, &m.Level, &rewards, &m.CreatedAt); err != nil {
		return model.StrikeTeamMission{}, err
	}
	if len(rewards) > 0 {
		if err := json.Unmarshal(rewards, &m.Rewards); err != nil {
			return model.StrikeTeamMission{}, fmt.Errorf("unmarshaling rewards for mission %d: %w", m.ID, err)
		}
	}
	return m, nil
}

func (p *Postgres) ListMissionsSince(ctx context.Context, since time.Time) ([]model.StrikeTeamMission, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+missionColumns+`
		 FROM strike_team_missions WHERE created_at >= $1 ORDER BY created_at`, since)
	if err != nil {
		return nil, fmt.Errorf("listing missions since %s: %w", since, err)
	}
	defer rows.Close()

	var missions []model.StrikeTeamMission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning mission: %w", err)
		}
		missions = append(missions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading missions since %s: %w", since, err)
	}
	return missions, nil
}

// LatestMission returns the most recently created mission, or ErrNotFound
// if the table is empty.
func (p *Postgres) LatestMission(ctx context.Context) (*model.StrikeTeamMission, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+missionColumns+`
		 FROM strike_team_missions ORDER BY created_at DESC LIMIT 1`)
	m, err := scanMission(row)
	if err != nil {
		if noRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying latest mission: %w", err)
	}
	return &m, nil
}

func (p *Postgres) LockMission(ctx context.Context, userID, strikeTeamID, missionID uint32) (*model.StrikeTeamMissionProgress, error) {
	prog := &model.StrikeTeamMissionProgress{UserID: userID, StrikeTeamID: strikeTeamID, MissionID: missionID, StartedAt: time.Now(), Locked: true}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO strike_team_mission_progress (user_id, strike_team_id, mission_id, started_at, locked)
		 VALUES ($1, $2, $3, $4, true)
		 ON CONFLICT (strike_team_id, mission_id) DO NOTHING`,
		userID, strikeTeamID, missionID, prog.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("locking mission %d for strike team %d: %w", missionID, strikeTeamID, err)
	}
	return prog, nil
}
