// Package maintenance runs scheduled background cleanup.
package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yudhapratama/learnhub/internal/services"
	"github.com/yudhapratama/learnhub/pkg/logger"
)

const defaultTokenSpec = "@daily"

// Cleaner periodically purges expired email verification tokens. Expired
// tokens are also purged on read, so the sweep only catches tokens nobody
// ever clicked.
type Cleaner struct {
	verifications *services.VerificationService
	cron          *cron.Cron
	log           *zap.Logger

	tokenSchedule string
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

// WithTokenSchedule overrides the cron specification for token cleanup.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil verification
// service disables the sweep.
func NewCleaner(verifications *services.VerificationService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		verifications: verifications,
		tokenSchedule: defaultTokenSpec,
		log:           logger.WithModule("maintenance"),
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
	if c.verifications == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.tokenSchedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("token cleanup failed", zap.Error(err))
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

// RunOnce executes all cleanup routines sequentially. Used by the scheduled
// job, during graceful shutdown, and in tests.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.verifications != nil {
		purged, err := c.verifications.PurgeExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if purged > 0 {
			c.log.Info("purged expired verification tokens", zap.Int64("count", purged))
		}
	}

	return errs
}
