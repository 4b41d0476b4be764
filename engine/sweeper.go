package engine

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/routemesh/logging"
)

// SweepFunc performs one sweep and reports cancelled calls and evicted entries.
type SweepFunc func() (cancelled, evicted int)

// Sweeper runs a SweepFunc on a fixed interval until stopped.
type Sweeper struct {
	sweep    SweepFunc
	interval time.Duration
	logger   logging.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewSweeper creates a sweeper. It does nothing until Start is called.
func NewSweeper(interval time.Duration, sweep SweepFunc, logger logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		sweep:    sweep,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the sweep loop in a goroutine. It returns immediately; the
// loop ends when ctx is done or Stop is called. Calling Start twice is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	if ctx == nil {
		ctx = s.ctx
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Debug("sweeper started", "interval", s.interval)

		for {
			select {
			case <-ticker.C:
				s.RunOnce()
			case <-ctx.Done():
				s.logger.Debug("sweeper stopping due to context cancellation")
				return
			case <-s.ctx.Done():
				s.logger.Debug("sweeper stopping due to internal cancellation")
				return
			}
		}
	}()
}

// RunOnce performs a single sweep immediately.
func (s *Sweeper) RunOnce() (cancelled, evicted int) {
	start := time.Now()
	cancelled, evicted = s.sweep()

	if rl, ok := s.logger.(*logging.RouterLogger); ok {
		rl.LogSweep(cancelled, evicted, time.Since(start))
	} else if cancelled > 0 || evicted > 0 {
		s.logger.Info("sweep completed", "cancelled", cancelled, "evicted", evicted, "duration", time.Since(start))
	}

	return cancelled, evicted
}

// Stop ends the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.cancel()
	s.wg.Wait()
}
