package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shoppingcart/internal/cart/storage/database"
	"github.com/angelmondragon/shoppingcart/pkg/metrics"
)

var _ CartPurger = (*database.Storage)(nil)

type fakePurger struct {
	remaining int
	err       error
	calls     int
	cutoffs   []time.Time
}

func (f *fakePurger) PurgeExpired(_ context.Context, cutoff time.Time, limit int) (int, error) {
	f.calls++
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.err != nil {
		return 0, f.err
	}
	n := limit
	if f.remaining < n {
		n = f.remaining
	}
	f.remaining -= n
	return n, nil
}

func TestExpiredCartJobDrainsInBatches(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	purger := &fakePurger{remaining: 25}
	job, err := NewExpiredCartJob(ExpiredCartJobParams{
		Logger:  testLogger(),
		Purgers: map[string]CartPurger{"default": purger},
		Grace:   time.Hour,
		Batch:   10,
		Now:     func() time.Time { return now },
	})
	require.NoError(t, err)
	assert.Equal(t, "expired-cart-purge", job.Name())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 3, purger.calls)
	assert.Zero(t, purger.remaining)
	assert.Equal(t, now.Add(-time.Hour), purger.cutoffs[0])
}

func TestExpiredCartJobStopsAtMaxBatches(t *testing.T) {
	purger := &fakePurger{remaining: 100}
	job, err := NewExpiredCartJob(ExpiredCartJobParams{
		Logger:     testLogger(),
		Purgers:    map[string]CartPurger{"default": purger},
		Batch:      10,
		MaxBatches: 2,
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 2, purger.calls)
	assert.Equal(t, 80, purger.remaining)
}

func TestExpiredCartJobContinuesPastFailingConnection(t *testing.T) {
	broken := &fakePurger{err: errors.New("db down")}
	healthy := &fakePurger{remaining: 3}
	job, err := NewExpiredCartJob(ExpiredCartJobParams{
		Logger:  testLogger(),
		Purgers: map[string]CartPurger{"a": broken, "b": healthy},
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge a")
	assert.Zero(t, healthy.remaining)
}

func TestNewExpiredCartJobValidates(t *testing.T) {
	_, err := NewExpiredCartJob(ExpiredCartJobParams{Purgers: map[string]CartPurger{"a": &fakePurger{}}})
	assert.Error(t, err)
	_, err = NewExpiredCartJob(ExpiredCartJobParams{Logger: testLogger()})
	assert.Error(t, err)
	_, err = NewExpiredCartJob(ExpiredCartJobParams{Logger: testLogger(), Purgers: map[string]CartPurger{"a": nil}})
	assert.Error(t, err)
}

func TestExpiredCartJobCountsPurgedCarts(t *testing.T) {
	reg := prometheus.NewRegistry()
	job, err := NewExpiredCartJob(ExpiredCartJobParams{
		Logger:  testLogger(),
		Metrics: metrics.NewCronJobMetrics(reg),
		Purgers: map[string]CartPurger{"default": &fakePurger{remaining: 7}},
		Batch:   5,
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))

	families, err := reg.Gather()
	require.NoError(t, err)
	var purged float64
	for _, family := range families {
		if family.GetName() == "cart_cron_job_processed_total" {
			purged = family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(7), purged)
}
