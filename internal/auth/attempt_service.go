package auth

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/retroline/retroline/internal/models"
	"github.com/retroline/retroline/pkg/errors"
	"github.com/retroline/retroline/pkg/metrics"
)

// AttemptService records password checks and enforces the failed-login
// lockout window. Attempts are recorded for unknown handles too, so probing
// handles counts the same as wrong passwords.
type AttemptService struct {
	db          *gorm.DB
	window      time.Duration
	maxFailures int
}

// NewAttemptService creates an AttemptService. maxFailures failed attempts
// within window lock the handle out.
func NewAttemptService(db *gorm.DB, window time.Duration, maxFailures int) *AttemptService {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if maxFailures <= 0 {
		maxFailures = 5
	}
	return &AttemptService{db: db, window: window, maxFailures: maxFailures}
}

// Record stores one attempt.
func (s *AttemptService) Record(ctx context.Context, handle string, success bool) error {
	attempt := models.LoginAttempt{
		Handle:      handle,
		Success:     success,
		AttemptedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return errors.Wrap(err, "record login attempt")
	}

	result := "failure"
	if success {
		result = "success"
	}
	metrics.LoginAttempts.WithLabelValues(result).Inc()
	return nil
}

// RecentFailures counts failed attempts for a handle inside the lockout
// window. Successes are not counted and do not reset the window.
func (s *AttemptService) RecentFailures(ctx context.Context, handle string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.LoginAttempt{}).
		Where("handle = ? AND success = ? AND attempted_at > ?", handle, false, time.Now().Add(-s.window)).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "count login failures")
	}
	return count, nil
}

// IsLockedOut reports whether the handle has hit the failure threshold.
func (s *AttemptService) IsLockedOut(ctx context.Context, handle string) (bool, error) {
	failures, err := s.RecentFailures(ctx, handle)
	if err != nil {
		return false, err
	}
	return failures >= int64(s.maxFailures), nil
}

// CleanupOld deletes attempts older than the retention cutoff and returns
// how many were removed. Run from the maintenance scheduler.
func (s *AttemptService) CleanupOld(ctx context.Context, retention time.Duration) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("attempted_at < ?", time.Now().Add(-retention)).
		Delete(&models.LoginAttempt{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "cleanup login attempts")
	}
	return res.RowsAffected, nil
}
