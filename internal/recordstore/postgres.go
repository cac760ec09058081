package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres keeps records in a single kv table, created lazily on first use.
type Postgres struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	p.schemaOnce.Do(func() {
		_, p.schemaErr = p.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS records (
				key        TEXT PRIMARY KEY,
				value      JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`)
	})
	return p.schemaErr
}

func (p *Postgres) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if err := p.ensureSchema(ctx); err != nil {
		return nil, false, fmt.Errorf("recordstore: ensure schema: %w", err)
	}
	var raw []byte
	err := p.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("recordstore: get %s: %w", key, err)
	}
	return json.RawMessage(raw), true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := p.ensureSchema(ctx); err != nil {
		return fmt.Errorf("recordstore: ensure schema: %w", err)
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO records (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, []byte(value))
	if err != nil {
		return fmt.Errorf("recordstore: set %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }
