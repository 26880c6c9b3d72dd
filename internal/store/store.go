package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iyadk/idbot/internal/bot"
)

// Store is the data access layer for persisted identities.
type Store struct {
	db *sqlx.DB
}

// New wraps an open database connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// identityRow mirrors the identities table. List fields are stored as JSON.
type identityRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Secret    string    `db:"secret"`
	Room      string    `db:"room"`
	Masters   string    `db:"masters"`
	Ignore    string    `db:"ignore"`
	Welcome   bool      `db:"welcome"`
	Announce  string    `db:"announce"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *identityRow) config() (bot.Config, error) {
	cfg := bot.Config{
		Name:     r.Name,
		Secret:   r.Secret,
		Room:     r.Room,
		Welcome:  r.Welcome,
		Announce: r.Announce,
	}
	if err := json.Unmarshal([]byte(r.Masters), &cfg.Masters); err != nil {
		return bot.Config{}, fmt.Errorf("store: decode masters for %q: %w", r.Name, err)
	}
	if err := json.Unmarshal([]byte(r.Ignore), &cfg.Ignore); err != nil {
		return bot.Config{}, fmt.Errorf("store: decode ignore list for %q: %w", r.Name, err)
	}
	return cfg, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveIdentity inserts the identity, or updates the stored row when one
// with the same name already exists.
func (s *Store) SaveIdentity(ctx context.Context, cfg bot.Config) error {
	masters, err := encodeList(cfg.Masters)
	if err != nil {
		return fmt.Errorf("store: encode masters: %w", err)
	}
	ignore, err := encodeList(cfg.Ignore)
	if err != nil {
		return fmt.Errorf("store: encode ignore list: %w", err)
	}

	const q = `
		INSERT INTO identities (id, name, secret, room, masters, ignore, welcome, announce)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			secret = excluded.secret,
			room = excluded.room,
			masters = excluded.masters,
			ignore = excluded.ignore,
			welcome = excluded.welcome,
			announce = excluded.announce,
			updated_at = CURRENT_TIMESTAMP`
	_, err = s.db.ExecContext(ctx, q,
		uuid.NewString(), cfg.Name, cfg.Secret, cfg.Room, masters, ignore, cfg.Welcome, cfg.Announce)
	if err != nil {
		return fmt.Errorf("store: save identity %q: %w", cfg.Name, err)
	}
	return nil
}

// DeleteIdentity removes the identity with the given name. Deleting an
// unknown name is not an error.
func (s *Store) DeleteIdentity(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE name = ?`, name); err != nil {
		return fmt.Errorf("store: delete identity %q: %w", name, err)
	}
	return nil
}

// GetIdentity loads a single identity by name. Returns (zero, false, nil)
// when no row matches.
func (s *Store) GetIdentity(ctx context.Context, name string) (bot.Config, bool, error) {
	var row identityRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM identities WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return bot.Config{}, false, nil
	}
	if err != nil {
		return bot.Config{}, false, fmt.Errorf("store: get identity %q: %w", name, err)
	}
	cfg, err := row.config()
	if err != nil {
		return bot.Config{}, false, err
	}
	return cfg, true, nil
}

// ListIdentities returns every stored identity ordered by name.
func (s *Store) ListIdentities(ctx context.Context) ([]bot.Config, error) {
	var rows []identityRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM identities ORDER BY name`); err != nil {
		return nil, fmt.Errorf("store: list identities: %w", err)
	}
	configs := make([]bot.Config, 0, len(rows))
	for i := range rows {
		cfg, err := rows[i].config()
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
