package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"safedesk/internal/evidence/models"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/sentinel"
	txcontext "safedesk/pkg/platform/tx"
)

const evidenceColumns = `
	id, complaint_id, storage_key, file_url, original_name, media_type,
	size_bytes, checksum, score_state, is_authentic, score, details, assessed_at, uploaded_at`

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, e *models.Evidence) error {
	query := `INSERT INTO evidence (` + evidenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, NULL, NULL, NULL, $10)`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(e.ID),
		uuid.UUID(e.ComplaintID),
		e.StorageKey,
		e.FileURL,
		e.FileName,
		e.MediaType,
		e.Size,
		e.Checksum,
		string(e.ScoreState),
		e.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evidence: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, evidenceID id.EvidenceID) (*models.Evidence, error) {
	query := `SELECT ` + evidenceColumns + ` FROM evidence WHERE id = $1`
	return scanEvidence(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(evidenceID)))
}

func (s *Postgres) ListByComplaint(ctx context.Context, complaintID id.ComplaintID) ([]*models.Evidence, error) {
	query := `SELECT ` + evidenceColumns + ` FROM evidence WHERE complaint_id = $1 ORDER BY uploaded_at ASC, id ASC`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(complaintID))
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}
	defer rows.Close()

	out := []*models.Evidence{}
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence: %w", err)
	}
	return out, nil
}

// Execute locks the row with FOR UPDATE, joining the context transaction
// when one is present.
func (s *Postgres) Execute(ctx context.Context, evidenceID id.EvidenceID, validate func(*models.Evidence) error, mutate func(*models.Evidence)) (*models.Evidence, error) {
	var result *models.Evidence
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + evidenceColumns + ` FROM evidence WHERE id = $1 FOR UPDATE`
		e, err := scanEvidence(tx.QueryRowContext(ctx, query, uuid.UUID(evidenceID)))
		if err != nil {
			return err
		}
		if err := validate(e); err != nil {
			return err
		}
		mutate(e)

		var (
			isAuthentic sql.NullBool
			score       sql.NullFloat64
			details     []byte
			assessedAt  sql.NullTime
		)
		if a := e.Assessment; a != nil {
			isAuthentic = sql.NullBool{Bool: a.IsAuthentic, Valid: true}
			if a.Score != nil {
				score = sql.NullFloat64{Float64: *a.Score, Valid: true}
			}
			if details, err = json.Marshal(a.Details); err != nil {
				return fmt.Errorf("marshal assessment details: %w", err)
			}
			assessedAt = sql.NullTime{Time: a.AssessedAt, Valid: true}
		}

		update := `UPDATE evidence
			SET score_state = $2, is_authentic = $3, score = $4, details = $5, assessed_at = $6
			WHERE id = $1`
		if _, err := tx.ExecContext(ctx, update, uuid.UUID(e.ID), string(e.ScoreState),
			isAuthentic, score, details, assessedAt); err != nil {
			return fmt.Errorf("update evidence: %w", err)
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Postgres) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	if tx, ok := txcontext.From(ctx); ok {
		return fn(tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvidence(row rowScanner) (*models.Evidence, error) {
	var (
		e           models.Evidence
		evidenceID  uuid.UUID
		complaintID uuid.UUID
		state       string
		isAuthentic sql.NullBool
		score       sql.NullFloat64
		details     []byte
		assessedAt  sql.NullTime
	)
	err := row.Scan(&evidenceID, &complaintID, &e.StorageKey, &e.FileURL, &e.FileName, &e.MediaType,
		&e.Size, &e.Checksum, &state, &isAuthentic, &score, &details, &assessedAt, &e.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan evidence: %w", err)
	}

	e.ID = id.EvidenceID(evidenceID)
	e.ComplaintID = id.ComplaintID(complaintID)
	e.ScoreState = models.ScoreState(state)
	if isAuthentic.Valid {
		a := &models.Assessment{IsAuthentic: isAuthentic.Bool, AssessedAt: assessedAt.Time}
		if score.Valid {
			v := score.Float64
			a.Score = &v
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &a.Details); err != nil {
				return nil, fmt.Errorf("decode assessment details: %w", err)
			}
		}
		e.Assessment = a
	}
	return &e, nil
}
