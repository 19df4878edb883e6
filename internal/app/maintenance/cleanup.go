package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/retroline/retroline/internal/auth"
	"github.com/retroline/retroline/pkg/logger"
)

const (
	defaultSchedule         = "@hourly"
	defaultAttemptRetention = 30 * 24 * time.Hour
)

// Cleaner coordinates background maintenance: purging expired session tokens
// and pruning old login attempt records.
type Cleaner struct {
	tokens   *auth.TokenService
	attempts *auth.AttemptService
	cron     *cron.Cron
	log      *zap.Logger

	schedule  string
	retention time.Duration
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for the cleanup job.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithAttemptRetention adjusts how long login attempts are kept.
func WithAttemptRetention(retention time.Duration) Option {
	return func(cleaner *Cleaner) {
		if retention > 0 {
			cleaner.retention = retention
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil dependency
// skips the corresponding cleanup.
func NewCleaner(tokens *auth.TokenService, attempts *auth.AttemptService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		tokens:    tokens,
		attempts:  attempts,
		schedule:  defaultSchedule,
		retention: defaultAttemptRetention,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers the cleanup job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.tokens == nil && c.attempts == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("maintenance run failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Used by the
// scheduled job, in tests, and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.tokens != nil {
		if removed, err := c.tokens.CleanupExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("expired session tokens removed", zap.Int64("count", removed))
		}
	}

	if c.attempts != nil && c.retention > 0 {
		if removed, err := c.attempts.CleanupOld(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("old login attempts removed", zap.Int64("count", removed))
		}
	}

	return errs
}
