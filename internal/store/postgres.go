package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	loadSQL = `SELECT document FROM pos_collections WHERE name = $1`

	saveSQL = `
		INSERT INTO pos_collections (name, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`
)

// DBTX is the subset of *pgxpool.Pool used by Postgres.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores each collection as one JSONB row in pos_collections.
type Postgres struct {
	db DBTX
}

// NewPostgres creates a Postgres store over a pool (or anything shaped like one).
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// Load decodes the named document into dst. Returns false if no row exists.
func (p *Postgres) Load(ctx context.Context, name string, dst any) (bool, error) {
	var raw []byte
	if err := p.db.QueryRow(ctx, loadSQL, name).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// Save upserts all documents in a single transaction.
func (p *Postgres) Save(ctx context.Context, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}

	// Encode everything before opening the transaction.
	encoded := make([][]byte, len(docs))
	for i, d := range docs {
		raw, err := json.Marshal(d.Value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", d.Name, err)
		}
		encoded[i] = raw
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i, d := range docs {
		if _, err := tx.Exec(ctx, saveSQL, d.Name, encoded[i]); err != nil {
			return fmt.Errorf("save %s: %w", d.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
