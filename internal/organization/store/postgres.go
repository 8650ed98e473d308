package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"safedesk/internal/organization/models"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Save upserts by ID so seeding is repeatable.
func (s *Postgres) Save(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, domain, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, domain = EXCLUDED.domain
	`
	domain := sql.NullString{String: org.Domain, Valid: org.Domain != ""}
	if _, err := s.db.ExecContext(ctx, query, uuid.UUID(org.ID), org.Name, domain, org.CreatedAt); err != nil {
		return fmt.Errorf("save organization: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	query := `SELECT id, name, domain, created_at FROM organizations WHERE id = $1`
	var (
		org    models.Organization
		rawID  uuid.UUID
		domain sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(orgID)).Scan(&rawID, &org.Name, &domain, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	org.ID = id.OrganizationID(rawID)
	org.Domain = domain.String
	return &org, nil
}
