package schedule

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/barologd/internal/errors"
	"codeberg.org/mutker/barologd/internal/logger"
)

// StopReason is the code delivered to a running tick when the scheduler
// preempts it.
type StopReason string

const (
	StopReasonReplaced  StopReason = "replaced"
	StopReasonCancelled StopReason = "cancelled_by_app"
	StopReasonShutdown  StopReason = "shutdown"
	StopReasonUnknown   StopReason = "unknown"
)

// stopError carries a StopReason as a context cancellation cause.
type stopError struct {
	reason StopReason
}

func (e stopError) Error() string {
	return "stopped: " + string(e.reason)
}

// CauseReason extracts the stop reason from a cancelled tick context.
// Cancellations not raised by the scheduler report StopReasonUnknown.
func CauseReason(ctx context.Context) StopReason {
	err := context.Cause(ctx)
	if err == nil {
		return StopReasonUnknown
	}
	var stop stopError
	if errors.As(err, &stop) {
		return stop.reason
	}
	return StopReasonUnknown
}

// TickConfig is the per-unit configuration delivered to every tick.
type TickConfig struct {
	UseForeground bool
	Timeout       time.Duration
}

// TickFunc runs one sampling attempt. attempt is the number of failed
// attempts of this logical unit since the last success.
type TickFunc func(ctx context.Context, cfg TickConfig, attempt int) error

type unit struct {
	cancel context.CancelCauseFunc
}

// Scheduler runs at most one periodic unit per key. Ticks within a unit run
// sequentially, so attempts never overlap; Reschedule replaces rather than
// duplicates.
type Scheduler struct {
	mu    sync.Mutex
	units map[string]*unit
	wg    sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{
		units: make(map[string]*unit),
	}
}

// Reschedule cancels any unit registered under key (delivering
// StopReasonReplaced to an in-flight tick) and installs a new one under the
// same mutex hold, so two units under one key are never active together.
func (s *Scheduler) Reschedule(key string, period time.Duration, cfg TickConfig, run TickFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.units[key]; ok {
		old.cancel(stopError{reason: StopReasonReplaced})
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	s.units[key] = &unit{cancel: cancel}

	logger.Info().
		Str("key", key).
		Dur("period", period).
		Bool("use_foreground", cfg.UseForeground).
		Msg("Periodic unit scheduled")

	s.wg.Add(1)
	go s.loop(ctx, key, period, cfg, run)
}

// Cancel stops the unit registered under key, if any.
func (s *Scheduler) Cancel(key string, reason StopReason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.units[key]; ok {
		u.cancel(stopError{reason: reason})
		delete(s.units, key)
	}
}

// Stop cancels every unit with StopReasonShutdown and waits for in-flight
// ticks to finish their cancellation path.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for key, u := range s.units {
		u.cancel(stopError{reason: StopReasonShutdown})
		delete(s.units, key)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, key string, period time.Duration, cfg TickConfig, run TickFunc) {
	defer s.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := run(ctx, cfg, attempt)
			switch {
			case err == nil:
				attempt = 0
			case ctx.Err() != nil:
				// Preempted mid-tick; the tick already recorded its
				// cancellation.
				return
			default:
				attempt++
				logger.Warn().
					Err(err).
					Str("key", key).
					Int("attempt", attempt).
					Msg("Tick failed; retrying next period")
			}
		}
	}
}
