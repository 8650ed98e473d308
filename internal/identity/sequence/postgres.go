package sequence

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "safedesk/pkg/platform/tx"
)

// Postgres keeps one row per year and increments it with a single upsert,
// so concurrent submissions serialize on the row lock.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) queryer(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Next(ctx context.Context, year int) (int64, error) {
	query := `
		INSERT INTO case_sequences (year, value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET value = case_sequences.value + 1
		RETURNING value
	`
	var value int64
	if err := s.queryer(ctx).QueryRowContext(ctx, query, year).Scan(&value); err != nil {
		return 0, fmt.Errorf("increment case sequence: %w", err)
	}
	return value, nil
}
