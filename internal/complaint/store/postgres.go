package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"safedesk/internal/complaint/models"
	"safedesk/internal/identity"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/sentinel"
	txcontext "safedesk/pkg/platform/tx"
)

const uniqueViolation = "23505"

const complaintColumns = `
	id, case_number, organization_id, is_anonymous, reporter_ref,
	incident_type, incident_date, incident_time, location, description,
	accused_role, accused_department, witnesses,
	status, severity, internal_notes, pin_hash, created_at, updated_at`

// Postgres persists complaints in the complaints table.
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

func (s *Postgres) Create(ctx context.Context, c *models.Complaint) error {
	query := `INSERT INTO complaints (` + complaintColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID),
		string(c.CaseNumber),
		uuid.UUID(c.OrganizationID),
		c.IsAnonymous,
		nullString(c.ReporterRef),
		string(c.Type),
		c.Date,
		nullString(c.Time),
		c.Location,
		c.Description,
		c.AccusedRole,
		nullString(c.AccusedDepartment),
		nullString(c.Witnesses),
		string(c.Status),
		string(c.Severity),
		nullString(c.InternalNotes),
		c.PINHash,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	return findOne(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(complaintID)))
}

func (s *Postgres) FindByCaseNumber(ctx context.Context, caseNumber identity.CaseNumber) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE case_number = $1`
	return findOne(s.execer(ctx).QueryRowContext(ctx, query, string(caseNumber)))
}

func findOne(row *sql.Row) (*models.Complaint, error) {
	c, err := scanComplaint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find complaint: %w", err)
	}
	return c, nil
}

// List returns matching complaints, newest first.
func (s *Postgres) List(ctx context.Context, filter models.ListFilter) ([]*models.Complaint, error) {
	conds := []string{"organization_id = $1"}
	args := []any{uuid.UUID(filter.OrganizationID)}
	if len(filter.Statuses) > 0 {
		args = append(args, pq.Array(toStrings(filter.Statuses)))
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if len(filter.Severities) > 0 {
		args = append(args, pq.Array(toStrings(filter.Severities)))
		conds = append(conds, fmt.Sprintf("severity = ANY($%d)", len(args)))
	}
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY created_at DESC, case_number DESC`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	var out []*models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaints: %w", err)
	}
	return out, nil
}

// Execute locks the row with FOR UPDATE, validates, mutates and writes back
// in one transaction. It joins the context transaction when there is one.
func (s *Postgres) Execute(ctx context.Context, complaintID id.ComplaintID, validate func(*models.Complaint) error, mutate func(*models.Complaint)) (*models.Complaint, error) {
	var result *models.Complaint
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1 FOR UPDATE`
		c, err := scanComplaint(tx.QueryRowContext(ctx, query, uuid.UUID(complaintID)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock complaint: %w", err)
		}
		if err := validate(c); err != nil {
			return err
		}
		mutate(c)

		update := `
			UPDATE complaints
			SET status = $2, severity = $3, internal_notes = $4, updated_at = $5
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, update,
			uuid.UUID(c.ID), string(c.Status), string(c.Severity), nullString(c.InternalNotes), c.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update complaint: %w", err)
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Stats runs the three aggregate queries concurrently.
func (s *Postgres) Stats(ctx context.Context, orgID id.OrganizationID, monthStart time.Time) (*models.Stats, error) {
	stats := models.NewStats()
	org := uuid.UUID(orgID)
	var byStatus, bySeverity map[string]int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = s.countBy(gctx, "status", org)
		return err
	})
	g.Go(func() error {
		var err error
		bySeverity, err = s.countBy(gctx, "severity", org)
		return err
	})
	g.Go(func() error {
		query := `
			SELECT COUNT(*) FROM complaints
			WHERE organization_id = $1 AND status IN ('Resolved', 'Closed') AND updated_at >= $2
		`
		if err := s.db.QueryRowContext(gctx, query, org, monthStart).Scan(&stats.ResolvedThisMonth); err != nil {
			return fmt.Errorf("count resolved this month: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for k, n := range byStatus {
		st := models.Status(k)
		stats.ByStatus[st] = n
		stats.Total += n
		if st.IsPending() {
			stats.Pending += n
		}
	}
	for k, n := range bySeverity {
		stats.BySeverity[models.Severity(k)] = n
	}
	return stats, nil
}

// countBy groups by a fixed column name; column is never caller input.
func (s *Postgres) countBy(ctx context.Context, column string, org uuid.UUID) (map[string]int, error) {
	query := `SELECT ` + column + `, COUNT(*) FROM complaints WHERE organization_id = $1 GROUP BY ` + column
	rows, err := s.db.QueryContext(ctx, query, org)
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", column, err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scan count by %s: %w", column, err)
		}
		out[key] = n
	}
	return out, rows.Err()
}

func (s *Postgres) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
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

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var (
		c                      models.Complaint
		rawID, rawOrg          uuid.UUID
		caseNumber, kind       string
		status, severity       string
		reporterRef, timeOfDay sql.NullString
		department, witnesses  sql.NullString
		notes                  sql.NullString
	)
	err := row.Scan(
		&rawID, &caseNumber, &rawOrg, &c.IsAnonymous, &reporterRef,
		&kind, &c.Date, &timeOfDay, &c.Location, &c.Description,
		&c.AccusedRole, &department, &witnesses,
		&status, &severity, &notes, &c.PINHash, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ID = id.ComplaintID(rawID)
	c.OrganizationID = id.OrganizationID(rawOrg)
	c.CaseNumber = identity.CaseNumber(caseNumber)
	c.Type = models.IncidentType(kind)
	c.Status = models.Status(status)
	c.Severity = models.Severity(severity)
	c.ReporterRef = reporterRef.String
	c.Time = timeOfDay.String
	c.AccusedDepartment = department.String
	c.Witnesses = witnesses.String
	c.InternalNotes = notes.String
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
