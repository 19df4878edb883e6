package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/retroline/retroline/internal/database/testutil"
	"github.com/retroline/retroline/internal/models"
)

func TestRecordAndCountFailures(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewAttemptService(db, 15*time.Minute, 5)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "testuser", false))
	require.NoError(t, svc.Record(ctx, "testuser", false))
	require.NoError(t, svc.Record(ctx, "testuser", true))

	failures, err := svc.RecentFailures(ctx, "testuser")
	require.NoError(t, err)
	require.Equal(t, int64(2), failures, "successes must not count")
}

func TestLockoutAfterThreshold(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewAttemptService(db, 15*time.Minute, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Record(ctx, "lockme", false))
	}

	locked, err := svc.IsLockedOut(ctx, "lockme")
	require.NoError(t, err)
	require.True(t, locked)

	relaxed := NewAttemptService(db, 15*time.Minute, 10)
	locked, err = relaxed.IsLockedOut(ctx, "lockme")
	require.NoError(t, err)
	require.False(t, locked, "higher threshold must not lock")
}

func TestLockoutHandlesAreIndependent(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewAttemptService(db, 15*time.Minute, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Record(ctx, "userA", false))
	}

	failures, err := svc.RecentFailures(ctx, "userB")
	require.NoError(t, err)
	require.Zero(t, failures)
}

func TestFailuresOutsideWindowIgnored(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewAttemptService(db, 15*time.Minute, 5)
	ctx := context.Background()

	old := models.LoginAttempt{
		Handle:      "stale",
		Success:     false,
		AttemptedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&old).Error)

	failures, err := svc.RecentFailures(ctx, "stale")
	require.NoError(t, err)
	require.Zero(t, failures)
}

func TestCleanupOldAttempts(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewAttemptService(db, 15*time.Minute, 5)
	ctx := context.Background()

	stale := models.LoginAttempt{
		Handle:      "old",
		AttemptedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, svc.Record(ctx, "fresh", false))

	removed, err := svc.CleanupOld(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var remaining int64
	require.NoError(t, db.Model(&models.LoginAttempt{}).Count(&remaining).Error)
	require.Equal(t, int64(1), remaining)
}
