//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "safedesk/pkg/domain"
	audit "safedesk/pkg/platform/audit"
	auditpg "safedesk/pkg/platform/audit/store/postgres"
	txcontext "safedesk/pkg/platform/tx"
	"safedesk/pkg/testutil/containers"
)

type StoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auditpg.Store
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = auditpg.New(s.postgres.DB)
}

func (s *StoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_logs"))
}

func (s *StoreSuite) TestAppendAndList() {
	ctx := context.Background()
	complaintID := id.ComplaintID(uuid.New())

	s.Require().NoError(s.store.Append(ctx, audit.Entry{
		ID:          id.NewAuditEntryID(),
		Action:      audit.ActionStatusUpdated,
		ActorID:     uuid.NewString(),
		ComplaintID: complaintID,
		Details:     map[string]any{"status": "Inquiry"},
		Timestamp:   time.Now(),
	}))

	entries, err := s.store.ListByComplaint(ctx, complaintID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(audit.ActionStatusUpdated, entries[0].Action)
	s.Equal("Inquiry", entries[0].Details["status"])
}

func (s *StoreSuite) TestAppendJoinsRolledBackTransaction() {
	ctx := context.Background()
	complaintID := id.ComplaintID(uuid.New())

	tx, err := s.postgres.DB.BeginTx(ctx, &sql.TxOptions{})
	s.Require().NoError(err)
	txCtx := txcontext.WithTx(ctx, tx)

	s.Require().NoError(s.store.Append(txCtx, audit.Entry{
		ID:          id.NewAuditEntryID(),
		Action:      audit.ActionEvidenceFlagged,
		ComplaintID: complaintID,
		Details:     map[string]any{},
		Timestamp:   time.Now(),
	}))
	s.Require().NoError(tx.Rollback())

	entries, err := s.store.ListByComplaint(ctx, complaintID)
	s.Require().NoError(err)
	s.Empty(entries)
}
