package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/retroline/retroline/internal/auth"
	"github.com/retroline/retroline/internal/database/testutil"
	"github.com/retroline/retroline/internal/models"
)

func TestRunOncePurgesExpiredTokensAndOldAttempts(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	ctx := context.Background()

	users := auth.NewUserService(db)
	tokens := auth.NewTokenService(db, time.Hour)
	attempts := auth.NewAttemptService(db, 15*time.Minute, 5)

	user, err := users.Create(ctx, auth.CreateInput{Handle: "alice", Password: "secret123"})
	require.NoError(t, err)

	stale, err := tokens.Create(ctx, user.ID, nil, nil)
	require.NoError(t, err)
	fresh, err := tokens.Create(ctx, user.ID, nil, nil)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.SessionToken{}).
		Where("id = ?", stale.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	require.NoError(t, attempts.Record(ctx, "alice", false))
	require.NoError(t, db.Model(&models.LoginAttempt{}).
		Where("success = ?", false).
		Update("attempted_at", time.Now().Add(-60*24*time.Hour)).Error)
	require.NoError(t, attempts.Record(ctx, "alice", true))

	cleaner := NewCleaner(tokens, attempts, WithAttemptRetention(30*24*time.Hour))
	require.NoError(t, cleaner.RunOnce(ctx))

	var tokenCount int64
	require.NoError(t, db.Model(&models.SessionToken{}).Count(&tokenCount).Error)
	require.Equal(t, int64(1), tokenCount)

	_, err = tokens.Validate(ctx, fresh.Token)
	require.NoError(t, err)

	var attemptCount int64
	require.NoError(t, db.Model(&models.LoginAttempt{}).Count(&attemptCount).Error)
	require.Equal(t, int64(1), attemptCount)
}

func TestStartAndStopScheduler(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	tokens := auth.NewTokenService(db, time.Hour)
	attempts := auth.NewAttemptService(db, 15*time.Minute, 5)

	cleaner := NewCleaner(tokens, attempts, WithSchedule("@every 1h"))
	require.NoError(t, cleaner.Start())
	<-cleaner.Stop().Done()
}
