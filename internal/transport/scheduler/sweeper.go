package scheduler

//go:generate mockgen -source=sweeper.go -destination=mock/sweeper.go -package=mock_scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"motoka/internal/config"
	"motoka/internal/entity"
	"motoka/internal/service"
	"motoka/pkg/lock"
	"motoka/pkg/logger"
	"motoka/pkg/metric"

	"golang.org/x/sync/errgroup"
)

type PendingLister interface {
	ListPendingForSweep(ctx context.Context, createdAfter time.Time, limit int) ([]*entity.Payment, error)
}

type Verifier interface {
	VerifyAndReconcile(ctx context.Context, trigger service.Trigger, payment *entity.Payment) (*service.Outcome, error)
}

type RunStats struct {
	Scanned int
	Changed int
	Failed  int
}

// Sweeper periodically re-verifies pending payments as a backstop for
// webhooks that never arrived. At most one run is active across all
// processes sharing the lock backend.
type Sweeper struct {
	payments PendingLister
	verifier Verifier
	locker   lock.Locker
	cfg      config.Sweep
	metrics  metric.Sweep
	log      logger.Logger

	running atomic.Bool
}

func NewSweeper(
	payments PendingLister,
	verifier Verifier,
	locker lock.Locker,
	cfg config.Sweep,
	metrics metric.Sweep,
	log logger.Logger,
) *Sweeper {
	return &Sweeper{
		payments: payments,
		verifier: verifier,
		locker:   locker,
		cfg:      cfg,
		metrics:  metrics,
		log:      log,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.log.Infow("sweeper started",
		"interval", s.cfg.Interval.String(),
		"window", s.cfg.Window.String(),
		"concurrency", s.cfg.Concurrency,
	)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Infow("sweeper stopped")
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, entity.ErrSweepInProgress) {
				s.log.Errorw("sweep run failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single sweep. It returns entity.ErrSweepInProgress when
// another run holds the in-process flag or the distributed lock.
func (s *Sweeper) RunOnce(ctx context.Context) (*RunStats, error) {
	const op = "scheduler.Sweeper.RunOnce"

	if !s.running.CompareAndSwap(false, true) {
		s.metrics.Skipped("in_process")
		return nil, fmt.Errorf("%s: %w", op, entity.ErrSweepInProgress)
	}
	defer s.running.Store(false)

	startTime := time.Now()

	lease, err := s.locker.TryAcquire(ctx, s.cfg.LockKey, s.cfg.LockTTL)
	if err != nil {
		s.metrics.Run("lock_error", time.Since(startTime))
		return nil, fmt.Errorf("%s: acquire lock: %w", op, err)
	}
	if lease == nil {
		s.metrics.Skipped("locked_elsewhere")
		return nil, fmt.Errorf("%s: %w", op, entity.ErrSweepInProgress)
	}
	defer s.release(ctx, lease)

	payments, err := s.payments.ListPendingForSweep(ctx, startTime.Add(-s.cfg.Window), s.cfg.BatchSize)
	if err != nil {
		s.metrics.Run("list_error", time.Since(startTime))
		return nil, fmt.Errorf("%s: list pending: %w", op, err)
	}

	var changed, failed atomic.Int32
	var eg errgroup.Group
	eg.SetLimit(s.cfg.Concurrency)

	for _, payment := range payments {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			ok, err := s.verify(ctx, payment)
			switch {
			case err != nil:
				failed.Add(1)
			case ok:
				changed.Add(1)
			}
			return nil
		})
	}
	_ = eg.Wait()

	stats := &RunStats{
		Scanned: len(payments),
		Changed: int(changed.Load()),
		Failed:  int(failed.Load()),
	}

	duration := time.Since(startTime)
	s.metrics.Processed(stats.Scanned)
	s.metrics.Run("ok", duration)

	s.log.LogAttrs(ctx, logger.InfoLevel, "sweep finished",
		logger.String("op", op),
		logger.Int("scanned", stats.Scanned),
		logger.Int("changed", stats.Changed),
		logger.Int("failed", stats.Failed),
		logger.String("duration", duration.String()),
	)

	return stats, nil
}

// verify bounds the gateway call by CallTimeout. The engine applies the
// answer on its own budget, so an expiring call never strands a completion.
func (s *Sweeper) verify(ctx context.Context, payment *entity.Payment) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	outcome, err := s.verifier.VerifyAndReconcile(callCtx, service.TriggerSweep, payment)
	if err != nil {
		s.log.LogAttrs(ctx, logger.WarnLevel, "sweep verification failed",
			logger.String("transaction_id", payment.TransactionID),
			logger.String("gateway", payment.Gateway),
			logger.Any("error", err),
		)
		return false, err
	}
	return outcome.Changed, nil
}

func (s *Sweeper) release(ctx context.Context, lease lock.Lease) {
	if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
		s.log.Warnw("sweep lock release failed", "key", s.cfg.LockKey, "error", err)
	}
}
