package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "safedesk/pkg/domain"
	audit "safedesk/pkg/platform/audit"
	txcontext "safedesk/pkg/platform/tx"
)

// Store implements audit.Store on the audit_logs table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts one entry, inside the context transaction when present.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	var complaintID *uuid.UUID
	if !entry.ComplaintID.IsNil() {
		cid := uuid.UUID(entry.ComplaintID)
		complaintID = &cid
	}

	query := `
		INSERT INTO audit_logs (id, action, actor_id, complaint_id, details, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		string(entry.Action),
		nullString(entry.ActorID),
		complaintID,
		details,
		nullString(entry.RequestID),
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByComplaint returns the entries for one case, oldest first.
func (s *Store) ListByComplaint(ctx context.Context, complaintID id.ComplaintID) ([]audit.Entry, error) {
	query := `
		SELECT id, action, actor_id, complaint_id, details, request_id, created_at
		FROM audit_logs
		WHERE complaint_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(complaintID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			entry      audit.Entry
			entryID    uuid.UUID
			action     string
			actorID    sql.NullString
			caseID     uuid.NullUUID
			rawDetails []byte
			requestID  sql.NullString
		)
		if err := rows.Scan(&entryID, &action, &actorID, &caseID, &rawDetails, &requestID, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ID = id.AuditEntryID(entryID)
		entry.Action = audit.Action(action)
		entry.ActorID = actorID.String
		entry.RequestID = requestID.String
		if caseID.Valid {
			entry.ComplaintID = id.ComplaintID(caseID.UUID)
		}
		if len(rawDetails) > 0 {
			if err := json.Unmarshal(rawDetails, &entry.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
