// Package monitor owns the repeating timer that drives reconciliation. The
// scheduler is a constructed, injected service with an explicit lifecycle;
// nothing here survives a process restart, every boot starts STOPPED.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/PerfZero/smsatlra/internal/xerrors"
)

// RunFunc is one reconciliation pass.
type RunFunc func(ctx context.Context) error

type Status struct {
	Active          bool `json:"active"`
	IntervalSeconds int  `json:"interval_seconds,omitempty"`
}

type Scheduler struct {
	run    RunFunc
	logger *zap.Logger

	mu       sync.Mutex
	active   bool
	interval time.Duration
	stopCh   chan struct{}

	// runMu serializes passes: the immediate run on Start, periodic ticks
	// and any re-armed loop never overlap on the same mailbox.
	runMu sync.Mutex
}

func New(run RunFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{run: run, logger: logger}
}

// Start arms the timer, fires one run immediately and then ticks every
// intervalSeconds. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(intervalSeconds int) error {
	if intervalSeconds < 1 {
		return xerrors.ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil
	}

	s.active = true
	s.interval = time.Duration(intervalSeconds) * time.Second
	s.stopCh = make(chan struct{})

	s.logger.Info("email monitoring started", zap.Int("interval_seconds", intervalSeconds))

	go s.safeRun()
	go s.loop(s.stopCh, s.interval)
	return nil
}

// Stop prevents future ticks. An in-flight run is never interrupted; it
// finishes on its own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	s.active = false
	s.logger.Info("email monitoring stopped")
}

// ChangeInterval tears down the current timer and re-arms it with the new
// period. The swap neither skips a beat nor double-fires: the old loop is
// stopped before the new one starts, and the new loop does not run
// immediately.
func (s *Scheduler) ChangeInterval(intervalSeconds int) error {
	if intervalSeconds < 1 {
		return xerrors.ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return xerrors.ErrMonitorNotRunning
	}

	close(s.stopCh)
	s.interval = time.Duration(intervalSeconds) * time.Second
	s.stopCh = make(chan struct{})

	s.logger.Info("email monitoring interval changed", zap.Int("interval_seconds", intervalSeconds))

	go s.loop(s.stopCh, s.interval)
	return nil
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return Status{Active: false}
	}
	return Status{Active: true, IntervalSeconds: int(s.interval / time.Second)}
}

func (s *Scheduler) loop(stopCh chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.safeRun()
		case <-stopCh:
			return
		}
	}
}

// safeRun executes one pass; errors and panics are logged and swallowed so a
// failed tick never cancels future ticks.
func (s *Scheduler) safeRun() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("reconciliation run panicked", zap.Any("panic", r))
		}
	}()

	if err := s.run(context.Background()); err != nil {
		s.logger.Error("reconciliation run failed", zap.Error(err))
	}
}
