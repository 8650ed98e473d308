package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safedesk/internal/auth/store/reviewer"
	orgstore "safedesk/internal/organization/store"
	id "safedesk/pkg/domain"
	"safedesk/pkg/secrets"
	"safedesk/pkg/testutil"
)

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()

	testutil.Given(t, "empty stores", func(t *testing.T) {
		orgs := orgstore.NewInMemory()
		reviewers := reviewer.NewInMemory()
		t.Setenv("SEED_ADMIN_PASSWORD", "")
		t.Setenv("SEED_ICC_PASSWORD", "chair-pass")

		testutil.When(t, "seeding", func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, seedDemo(ctx, orgs, reviewers, secrets.MinCost, &out))
			assert.Contains(t, out.String(), "admin@safedesk.com")

			testutil.Then(t, "the organization exists under the stable id", func(t *testing.T) {
				org, err := orgs.FindByID(ctx, seedOrganizationID)
				require.NoError(t, err)
				assert.Equal(t, "safedesk.com", org.Domain)
			})

			testutil.Then(t, "both reviewers can sign in", func(t *testing.T) {
				admin, err := reviewers.FindByEmail(ctx, "admin@safedesk.com")
				require.NoError(t, err)
				assert.Equal(t, id.RoleAdmin, admin.Role)
				assert.True(t, secrets.Matches("admin123", admin.PasswordHash))

				chair, err := reviewers.FindByEmail(ctx, "icc@safedesk.com")
				require.NoError(t, err)
				assert.Equal(t, id.RoleCommittee, chair.Role)
				assert.True(t, secrets.Matches("chair-pass", chair.PasswordHash))
			})
		})

		testutil.When(t, "seeding again", func(t *testing.T) {
			before, err := reviewers.FindByEmail(ctx, "admin@safedesk.com")
			require.NoError(t, err)

			require.NoError(t, seedDemo(ctx, orgs, reviewers, secrets.MinCost, &bytes.Buffer{}))

			testutil.Then(t, "existing reviewers keep their ids", func(t *testing.T) {
				after, err := reviewers.FindByEmail(ctx, "admin@safedesk.com")
				require.NoError(t, err)
				assert.Equal(t, before.ID, after.ID)
			})
		})
	})
}
