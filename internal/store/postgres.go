package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
)

// DB interface for database operations (compatible with pgxpool.Pool and pgxmock)
type DB interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresPersister keeps the snapshot in the face_entries table. Every Save
// rewrites the table inside a single transaction, so readers never see a
// partially written snapshot.
type PostgresPersister struct {
	db DB
}

// NewPostgresPersister creates a persister on top of a pgx pool
func NewPostgresPersister(pool *pgxpool.Pool) *PostgresPersister {
	return &PostgresPersister{db: pool}
}

// NewPostgresPersisterWithDB creates a persister with a custom DB interface
func NewPostgresPersisterWithDB(db DB) *PostgresPersister {
	return &PostgresPersister{db: db}
}

func (p *PostgresPersister) Load(ctx context.Context) ([]domain.Entry, error) {
	query := `
		SELECT identity, embedding
		FROM face_entries
		ORDER BY position
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load face entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Entry, 0)
	for rows.Next() {
		var identity string
		var embedding *pgvector.Vector

		if err := rows.Scan(&identity, &embedding); err != nil {
			return nil, fmt.Errorf("scan face entry: %w", err)
		}

		entry := domain.Entry{Identity: identity}
		if embedding != nil {
			entry.Embedding = domain.Embedding(embedding.Slice()).Clone()
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face entries: %w", err)
	}

	return entries, nil
}

func (p *PostgresPersister) Save(ctx context.Context, entries []domain.Entry) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM face_entries`); err != nil {
		return fmt.Errorf("truncate face entries: %w", err)
	}

	query := `
		INSERT INTO face_entries (position, identity, embedding, updated_at)
		VALUES ($1, $2, $3, NOW())
	`

	for i, e := range entries {
		if _, err := tx.Exec(ctx, query, i, e.Identity, pgvector.NewVector(e.Embedding)); err != nil {
			return fmt.Errorf("insert face entry %s: %w", e.Identity, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	return nil
}

var _ Persister = (*PostgresPersister)(nil)
