package users

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pagemark/pagemark/pkg/auth"
	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestServiceRegister(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, "reader", nil, "password123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "reader", user.Username)
	assert.True(t, user.IsActive)
	assert.True(t, auth.CheckPassword("password123", user.PasswordHash))
}

func TestServiceRegister_DuplicateUsername(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, "reader", nil, "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Reader", nil, "password456")
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.ValidationError("Username is already taken."))
}

func TestServiceUpdate_ChangesPassword(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, "reader", nil, "password123")
	require.NoError(t, err)

	newPassword := "newpassword123"
	updated, err := svc.Update(ctx, user.ID, UpdateParams{Password: &newPassword})
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(newPassword, updated.PasswordHash))
	assert.False(t, auth.CheckPassword("password123", updated.PasswordHash))
}

func TestServiceUpdate_NotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	email := "reader@example.com"
	_, err := svc.Update(ctx, 999, UpdateParams{Email: &email})
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.NotFound("User"))
}
