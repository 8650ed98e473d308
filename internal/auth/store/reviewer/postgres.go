package reviewer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"safedesk/internal/auth/models"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/sentinel"
)

const reviewerColumns = `id, organization_id, email, name, role, password_hash, created_at, last_login_at`

// uniqueViolation is the Postgres error code for a unique constraint failure.
const uniqueViolation = "23505"

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Save(ctx context.Context, r *models.Reviewer) error {
	query := `INSERT INTO reviewers (` + reviewerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			password_hash = EXCLUDED.password_hash`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID),
		uuid.UUID(r.OrganizationID),
		r.Email,
		r.DisplayName,
		string(r.Role),
		r.PasswordHash,
		r.CreatedAt,
		r.LastLoginAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save reviewer: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, reviewerID id.ReviewerID) (*models.Reviewer, error) {
	query := `SELECT ` + reviewerColumns + ` FROM reviewers WHERE id = $1`
	return scanReviewer(s.db.QueryRowContext(ctx, query, uuid.UUID(reviewerID)))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Reviewer, error) {
	query := `SELECT ` + reviewerColumns + ` FROM reviewers WHERE email = $1`
	return scanReviewer(s.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
}

func (s *Postgres) RecordLogin(ctx context.Context, reviewerID id.ReviewerID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reviewers SET last_login_at = $2 WHERE id = $1`, uuid.UUID(reviewerID), at)
	if err != nil {
		return fmt.Errorf("record reviewer login: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanReviewer(row *sql.Row) (*models.Reviewer, error) {
	var (
		r           models.Reviewer
		reviewerID  uuid.UUID
		orgID       uuid.UUID
		role        string
		lastLoginAt sql.NullTime
	)
	err := row.Scan(&reviewerID, &orgID, &r.Email, &r.DisplayName, &role, &r.PasswordHash, &r.CreatedAt, &lastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan reviewer: %w", err)
	}
	r.ID = id.ReviewerID(reviewerID)
	r.OrganizationID = id.OrganizationID(orgID)
	r.Role = id.Role(role)
	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		r.LastLoginAt = &t
	}
	return &r, nil
}
