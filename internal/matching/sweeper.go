package matching

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper periodically advances offer queues whose deadline has passed.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewSweeper builds a sweeper that runs every interval.
func NewSweeper(svc *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{svc: svc, interval: interval, logger: logger}
}

// Start launches the sweep loop in the background. It is a no-op when
// already running.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.interval <= 0 {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, s.stopCh)
	}()
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case t := <-ticker.C:
			s.sweep(ctx, t.UTC())
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) {
	n, err := s.svc.SweepDormant(ctx, now)
	if err != nil {
		s.logger.Error("sweep dormant queues", slog.Any("error", err))
		return
	}
	if n > 0 {
		s.logger.Info("advanced dormant queues", slog.Int("auto_advanced", n))
	}
}
