package cron

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/shoppingcart/pkg/logger"
	"github.com/angelmondragon/shoppingcart/pkg/metrics"
)

const (
	defaultPurgeBatch      = 500
	defaultPurgeMaxBatches = 20
)

// CartPurger deletes carts that expired before cutoff, at most limit per call.
// *database.Storage satisfies it.
type CartPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// ExpiredCartJobParams configure the expired cart purge.
type ExpiredCartJobParams struct {
	Logger  *logger.Logger
	Metrics *metrics.CronJobMetrics
	// Purgers are keyed by database connection name.
	Purgers map[string]CartPurger
	// Grace keeps expired carts around this long before deleting them.
	Grace      time.Duration
	Batch      int
	MaxBatches int
	Now        func() time.Time
}

type expiredCartJob struct {
	logg       *logger.Logger
	metrics    *metrics.CronJobMetrics
	purgers    map[string]CartPurger
	names      []string
	grace      time.Duration
	batch      int
	maxBatches int
	now        func() time.Time
}

func NewExpiredCartJob(params ExpiredCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	names := make([]string, 0, len(params.Purgers))
	for name, p := range params.Purgers {
		if p == nil {
			return nil, fmt.Errorf("purger %q is nil", name)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one cart purger required")
	}
	sort.Strings(names)

	batch := params.Batch
	if batch <= 0 {
		batch = defaultPurgeBatch
	}
	maxBatches := params.MaxBatches
	if maxBatches <= 0 {
		maxBatches = defaultPurgeMaxBatches
	}
	grace := params.Grace
	if grace < 0 {
		grace = 0
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &expiredCartJob{
		logg:       params.Logger,
		metrics:    params.Metrics,
		purgers:    params.Purgers,
		names:      names,
		grace:      grace,
		batch:      batch,
		maxBatches: maxBatches,
		now:        now,
	}, nil
}

func (j *expiredCartJob) Name() string { return "expired-cart-purge" }

// Run purges every connection. A failing connection does not stop the others.
func (j *expiredCartJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	var errs error
	for _, name := range j.names {
		deleted, err := j.purge(ctx, j.purgers[name], cutoff)
		j.metrics.AddProcessed(j.Name(), deleted)
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"connection":   name,
			"cutoff":       cutoff,
			"rows_deleted": deleted,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("purge %s: %w", name, err))
			j.logg.Error(logCtx, "expired cart purge failed", err)
			continue
		}
		j.logg.Info(logCtx, "expired cart purge complete")
	}
	return errs
}

func (j *expiredCartJob) purge(ctx context.Context, p CartPurger, cutoff time.Time) (int, error) {
	total := 0
	for i := 0; i < j.maxBatches; i++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := p.PurgeExpired(ctx, cutoff, j.batch)
		total += n
		if err != nil {
			return total, err
		}
		if n < j.batch {
			return total, nil
		}
	}
	return total, nil
}
