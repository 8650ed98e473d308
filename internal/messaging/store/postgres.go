package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"safedesk/internal/messaging/models"
	id "safedesk/pkg/domain"
	txcontext "safedesk/pkg/platform/tx"
)

// Postgres persists messages. The seq column breaks created_at ties so
// ordering matches insertion order.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Append(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, complaint_id, sender_role, body, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(msg.ID),
		uuid.UUID(msg.ComplaintID),
		string(msg.SenderRole),
		msg.Body,
		msg.IsRead,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *Postgres) ListByComplaint(ctx context.Context, complaintID id.ComplaintID) ([]*models.Message, error) {
	query := `
		SELECT id, complaint_id, sender_role, body, is_read, created_at
		FROM messages
		WHERE complaint_id = $1
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(complaintID))
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := []*models.Message{}
	for rows.Next() {
		var (
			msg    models.Message
			msgID  uuid.UUID
			caseID uuid.UUID
			role   string
		)
		if err := rows.Scan(&msgID, &caseID, &role, &msg.Body, &msg.IsRead, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.ID = id.MessageID(msgID)
		msg.ComplaintID = id.ComplaintID(caseID)
		msg.SenderRole = models.SenderRole(role)
		out = append(out, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}
