package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	authmodels "safedesk/internal/auth/models"
	"safedesk/internal/auth/store/reviewer"
	orgmodels "safedesk/internal/organization/models"
	orgstore "safedesk/internal/organization/store"
	"safedesk/internal/platform/config"
	"safedesk/internal/platform/postgres"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/sentinel"
	"safedesk/pkg/secrets"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo organization and reviewer accounts",
	Long: `Creates one organization with an administrator and a committee chair.
Running it again updates the same records. Passwords come from
SEED_ADMIN_PASSWORD and SEED_ICC_PASSWORD when set.`,
	RunE: runSeed,
}

type organizationSaver interface {
	Save(ctx context.Context, org *orgmodels.Organization) error
}

type reviewerSaver interface {
	Save(ctx context.Context, r *authmodels.Reviewer) error
	FindByEmail(ctx context.Context, email string) (*authmodels.Reviewer, error)
}

type seedAccount struct {
	email       string
	displayName string
	role        id.Role
	password    string
}

// seedOrganizationID is stable so repeated seeds upsert the same row.
var seedOrganizationID = id.OrganizationID(uuid.NewSHA1(uuid.NameSpaceURL, []byte("safedesk:seed:organization")))

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is not set; the in-memory mode seeds itself on serve")
	}

	ctx := cmd.Context()
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return seedDemo(ctx, orgstore.NewPostgres(db), reviewer.NewPostgres(db), cfg.Case.PINHashCost, cmd.OutOrStdout())
}

func seedDemo(ctx context.Context, orgs organizationSaver, reviewers reviewerSaver, hashCost int, out io.Writer) error {
	now := time.Now()
	org, err := orgmodels.NewOrganization(seedOrganizationID, "SafeDesk Demo Org", "safedesk.com", now)
	if err != nil {
		return err
	}
	if err := orgs.Save(ctx, org); err != nil {
		return fmt.Errorf("seed organization: %w", err)
	}
	fmt.Fprintf(out, "organization %s (%s)\n", org.Name, org.ID)

	accounts := []seedAccount{
		{email: "admin@safedesk.com", displayName: "System Admin", role: id.RoleAdmin, password: envOr("SEED_ADMIN_PASSWORD", "admin123")},
		{email: "icc@safedesk.com", displayName: "ICC Chairperson", role: id.RoleCommittee, password: envOr("SEED_ICC_PASSWORD", "icc123")},
	}
	for _, acct := range accounts {
		if err := seedReviewer(ctx, reviewers, org.ID, acct, hashCost, now); err != nil {
			return err
		}
		fmt.Fprintf(out, "reviewer %s (%s)\n", acct.email, acct.role)
	}
	return nil
}

func seedReviewer(ctx context.Context, reviewers reviewerSaver, orgID id.OrganizationID, acct seedAccount, hashCost int, now time.Time) error {
	reviewerID := id.NewReviewerID()
	existing, err := reviewers.FindByEmail(ctx, acct.email)
	switch {
	case err == nil:
		reviewerID = existing.ID
	case !errors.Is(err, sentinel.ErrNotFound):
		return fmt.Errorf("look up reviewer %s: %w", acct.email, err)
	}

	hash, err := secrets.Hash(acct.password, hashCost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", acct.email, err)
	}
	r, err := authmodels.NewReviewer(reviewerID, orgID, acct.email, acct.displayName, acct.role, hash, now)
	if err != nil {
		return err
	}
	if err := reviewers.Save(ctx, r); err != nil {
		return fmt.Errorf("save reviewer %s: %w", acct.email, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seedInMemory gives a database-less dev server accounts to log in with.
func seedInMemory(ctx context.Context, orgs organizationSaver, reviewers reviewerSaver, hashCost int, logger *slog.Logger) error {
	if err := seedDemo(ctx, orgs, reviewers, hashCost, io.Discard); err != nil {
		return err
	}
	logger.InfoContext(ctx, "seeded in-memory demo accounts", "organization_id", seedOrganizationID.String())
	return nil
}
