package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of periodic work.
type Task func(ctx context.Context) error

// IntervalScheduler runs a task on a fixed interval. A run that is still in
// progress when the next tick fires causes that tick to be skipped.
type IntervalScheduler struct {
	name       string
	interval   time.Duration
	runOnStart bool
	task       Task
	logger     *zap.Logger

	mu      sync.Mutex
	running bool
	busy    bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastRun time.Time
	lastErr error
	runs    int64
}

// NewIntervalScheduler builds a scheduler. interval must be positive.
func NewIntervalScheduler(name string, interval time.Duration, runOnStart bool, task Task, logger *zap.Logger) *IntervalScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntervalScheduler{
		name:       name,
		interval:   interval,
		runOnStart: runOnStart,
		task:       task,
		logger:     logger.With(zap.String("job", name)),
	}
}

// Start launches the ticker loop.
func (s *IntervalScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.wg.Add(1)
	go s.loop(ctx)
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval), zap.Time("next_run", time.Now().Add(s.interval)))
}

// Stop halts the loop and waits for an in-flight run to return.
func (s *IntervalScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// RunNow executes the task synchronously unless a run is already in progress.
// It reports whether the task was executed.
func (s *IntervalScheduler) RunNow(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return false, nil
	}
	s.busy = true
	s.mu.Unlock()

	started := time.Now()
	err := s.task(ctx)

	s.mu.Lock()
	s.busy = false
	s.lastRun = started
	s.lastErr = err
	s.runs++
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled run failed", zap.Duration("duration", time.Since(started)), zap.Error(err))
	} else {
		s.logger.Info("scheduled run completed", zap.Duration("duration", time.Since(started)))
	}
	return true, err
}

// Status returns the time and error of the last run along with the total run count.
func (s *IntervalScheduler) Status() (time.Time, error, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr, s.runs
}

func (s *IntervalScheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	if s.runOnStart {
		_, _ = s.RunNow(ctx)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ran, _ := s.RunNow(ctx); !ran {
				s.logger.Warn("previous run still in progress, skipping tick")
			}
		}
	}
}
