package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retroline/retroline/internal/database/testutil"
	"github.com/retroline/retroline/pkg/crypto"
	"github.com/retroline/retroline/pkg/errors"
	"github.com/retroline/retroline/pkg/validator"
)

func TestCreateUserHashesPassword(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)

	user := createTestUser(t, svc, "alice")
	require.NotEqual(t, "secret123", user.PasswordHash)
	require.True(t, crypto.VerifyPassword(user.PasswordHash, "secret123"))
}

func TestCreateUserRejectsBadHandle(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)

	_, err := svc.Create(context.Background(), CreateInput{
		Handle:   "1badhandle",
		Password: "secret123",
	})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestFindByHandleCaseInsensitive(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)
	ctx := context.Background()

	created := createTestUser(t, svc, "NightOwl")

	got, err := svc.FindByHandle(ctx, "nightowl")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = svc.FindByHandle(ctx, "nobody")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRecordLogin(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)
	ctx := context.Background()

	user := createTestUser(t, svc, "alice")
	require.Zero(t, user.TotalLogins)
	require.Nil(t, user.LastLoginAt)

	require.NoError(t, svc.RecordLogin(ctx, user.ID))
	require.NoError(t, svc.RecordLogin(ctx, user.ID))

	got, err := svc.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.TotalLogins)
	require.NotNil(t, got.LastLoginAt)
}

func TestAddSessionTime(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)
	ctx := context.Background()

	user := createTestUser(t, svc, "alice")
	require.NoError(t, svc.AddSessionTime(ctx, user.ID, 42))
	require.NoError(t, svc.AddSessionTime(ctx, user.ID, 0))

	got, err := svc.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(42), got.TotalMinutes)
}
