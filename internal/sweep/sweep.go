// Package sweep periodically advances order statuses by age.
package sweep

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// ErrInProgress is returned by RunOnce while another sweep is still running.
var ErrInProgress = errors.New("sweep already in progress")

// Runner performs one sweep at the given instant.
type Runner interface {
	Sweep(ctx context.Context, now time.Time) (*model.SweepResult, error)
}

// Sweeper drives a Runner on a fixed interval, one sweep at a time.
type Sweeper struct {
	runner   Runner
	interval time.Duration
	now      func() time.Time
	running  atomic.Bool
	logger   zerolog.Logger
}

// New creates a sweeper that runs every interval.
func New(runner Runner, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		runner:   runner,
		interval: interval,
		now:      time.Now,
		logger:   logger.With().Str("component", "sweeper").Logger(),
	}
}

// Run blocks until ctx is cancelled. Ticks that arrive while a sweep is
// running are dropped.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("status sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("status sweeper stopped")
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error().Err(err).Msg("status sweep failed")
			}

			// Discard a tick that queued up during a slow sweep.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// RunOnce performs a single sweep unless one is already running.
func (s *Sweeper) RunOnce(ctx context.Context) (*model.SweepResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("sweep skipped, previous run still in progress")
		return nil, ErrInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	result, err := s.runner.Sweep(ctx, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int("changed", result.Total()).
		Dur("duration", time.Since(start)).
		Msg("sweep finished")
	return result, nil
}
