package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vendorguard/internal/bootstrap/logging"
	"vendorguard/internal/errs"
)

// SchedulerConfig sets the cadence of the two jobs. Distinct initial
// delays keep the daily runs from landing on the same rows at once; the
// jobs stay independently schedulable and order-insensitive.
type SchedulerConfig struct {
	ExpiryInterval       time.Duration
	ExpiryInitialDelay   time.Duration
	HighRiskInterval     time.Duration
	HighRiskInitialDelay time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		ExpiryInterval:       24 * time.Hour,
		ExpiryInitialDelay:   time.Minute,
		HighRiskInterval:     24 * time.Hour,
		HighRiskInitialDelay: 5 * time.Minute,
	}
}

// Scheduler drives the expiry and high-risk sweeps on independent tickers.
// Ticker plus done-channel; Stop waits for in-flight passes to finish.
type Scheduler struct {
	svc    *Service
	config SchedulerConfig

	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
}

func NewScheduler(svc *Service, config SchedulerConfig) *Scheduler {
	return &Scheduler{svc: svc, config: config}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	s.wg.Add(2)
	go s.loop(ctx, "expiry", s.config.ExpiryInitialDelay, s.config.ExpiryInterval, func(ctx context.Context) error {
		_, err := s.svc.ExpirySweep(ctx)
		return err
	})
	go s.loop(ctx, "high_risk", s.config.HighRiskInitialDelay, s.config.HighRiskInterval, func(ctx context.Context) error {
		_, err := s.svc.HighRiskSweep(ctx)
		return err
	})

	logging.Info(ctx, "sweep scheduler started",
		slog.Duration("expiry_interval", s.config.ExpiryInterval),
		slog.Duration("high_risk_interval", s.config.HighRiskInterval))
}

func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	logging.Info(ctx, "sweep scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, name string, initialDelay, interval time.Duration, run func(context.Context) error) {
	defer s.wg.Done()

	jobCtx := logging.WithAttrs(ctx, slog.String("sweep", name))

	delay := time.NewTimer(initialDelay)
	defer delay.Stop()
	select {
	case <-s.done:
		return
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(jobCtx, name, run)
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(jobCtx, name, run)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		logging.Error(ctx, "sweep pass failed",
			slog.String("sweep", name),
			slog.Any("err", errs.Loggable(err)))
	}
}
