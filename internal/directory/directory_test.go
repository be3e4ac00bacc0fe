package directory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/directory"
	"github.com/adnan-tnd/flow-core/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := directory.NewService(db)
	ctx := context.Background()

	a := testutil.CreateTestUser(t, db, models.RoleMember)
	b := testutil.CreateTestUser(t, db, models.RoleManager)

	t.Run("keeps input order", func(t *testing.T) {
		users, err := svc.Resolve(ctx, []uuid.UUID{b.ID, a.ID})
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, b.ID, users[0].ID)
		assert.Equal(t, a.ID, users[1].ID)
	})

	t.Run("fails on unknown id", func(t *testing.T) {
		_, err := svc.Resolve(ctx, []uuid.UUID{a.ID, uuid.New()})
		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("empty input", func(t *testing.T) {
		users, err := svc.Resolve(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, users)
	})
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := directory.NewService(db)

	u := testutil.CreateTestUser(t, db, models.RoleMember)

	found, err := svc.GetByEmail(context.Background(), "  "+strings.ToUpper(u.Email))
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestByRoles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := directory.NewService(db)

	ceo := testutil.CreateTestUser(t, db, models.RoleCEO)
	testutil.CreateTestUser(t, db, models.RoleMember)

	users, err := svc.ByRoles(context.Background(), models.RoleCEO)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, ceo.ID, users[0].ID)
}

func TestRequireDistinct(t *testing.T) {
	id := uuid.New()
	assert.NoError(t, directory.RequireDistinct([]uuid.UUID{id, uuid.New()}))
	assert.ErrorIs(t, directory.RequireDistinct([]uuid.UUID{id, id}), directory.ErrDuplicateIDs)
}
