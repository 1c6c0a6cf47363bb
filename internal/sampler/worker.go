package sampler

import (
	"context"
	"time"

	"codeberg.org/mutker/barologd/internal/errors"
	"codeberg.org/mutker/barologd/internal/logger"
	"codeberg.org/mutker/barologd/internal/power"
	"codeberg.org/mutker/barologd/internal/schedule"
	"codeberg.org/mutker/barologd/internal/sensor"
	"codeberg.org/mutker/barologd/internal/session"
	"codeberg.org/mutker/barologd/internal/store"
	"github.com/google/uuid"
)

// persistTimeout bounds the non-cancellable write on the cancellation path.
const persistTimeout = 5 * time.Second

// Worker runs one sampling tick: capture power state, perform the bounded
// read, persist exactly one sample+diagnostics pair. It is the TickFunc
// installed on the scheduler.
type Worker struct {
	reader   SnapshotReader
	recorder Recorder
	prober   power.Prober
	tracker  *session.Tracker
	now      func() time.Time
}

func NewWorker(reader SnapshotReader, recorder Recorder, prober power.Prober, tracker *session.Tracker) *Worker {
	return &Worker{
		reader:   reader,
		recorder: recorder,
		prober:   prober,
		tracker:  tracker,
		now:      time.Now,
	}
}

// RunTick performs one attempt. Every invocation persists exactly one
// sample row: success, classified failure, or CANCELLED when ctx is
// cancelled mid-read. Only a failure to persist that row propagates as a
// tick failure; event-log writes are advisory.
func (w *Worker) RunTick(ctx context.Context, cfg schedule.TickConfig, attempt int) error {
	errFactory := errors.New()

	startedAt := time.Now()
	state := w.prober.Capture()
	runID := uuid.NewString()
	mode := store.ModeNoFGS
	if cfg.UseForeground {
		mode = store.ModeFGS
	}

	w.insertEvent(ctx, store.EventWorkerStart, "worker_started")
	if _, coldStart := w.tracker.MarkWorkerStart(); coldStart {
		w.insertEvent(ctx, store.EventProcessColdStartByWorker, "process_started_for_worker")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = sensor.DefaultTimeout
	}

	outcome, err := w.reader.ReadSnapshot(ctx, timeout)
	if err != nil {
		return w.recordCancelled(ctx, err, state, runID, attempt, mode, startedAt)
	}

	sample, diagnostics := buildRecord(outcome, state, runID, attempt, mode, w.now())
	if err := w.recorder.InsertSampleWithDiagnostics(ctx, sample, diagnostics); err != nil {
		return errFactory.Wrap(ErrPersistSample, err)
	}

	logger.Debug().
		Str("result", string(sample.Result)).
		Str("run_id", runID).
		Int64("duration_ms", diagnostics.DurationMS).
		Msg("Sample recorded")

	return nil
}

// recordCancelled persists the CANCELLED row under a context that survives
// the cancellation, then re-raises the cause so the tick genuinely
// terminates.
func (w *Worker) recordCancelled(
	ctx context.Context,
	cause error,
	state power.State,
	runID string,
	attempt int,
	mode store.SampleMode,
	startedAt time.Time,
) error {
	reason := string(schedule.CauseReason(ctx))
	now := w.now().UnixMilli()

	elapsed := time.Since(startedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}

	class := cancelClass(cause)
	message := cause.Error() + " [" + reason + "]"

	sample := &store.Sample{
		TimestampUTCMS: now,
		Mode:           mode,
		Result:         store.ResultCancelled,
	}
	diagnostics := &store.Diagnostics{
		RecordedAtUTCMS: now,
		DurationMS:      elapsed,
		DozeMode:        state.DozeMode,
		PowerSaveMode:   state.PowerSaveMode,
		BatteryPercent:  state.BatteryPercent,
		StandbyBucket:   state.StandbyBucket,
		StopReason:      &reason,
		FailureClass:    &class,
		FailureMessage:  &message,
		WorkerRunID:     runID,
		RunAttemptCount: attempt,
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := w.recorder.InsertSampleWithDiagnostics(persistCtx, sample, diagnostics); err != nil {
		logger.Error().
			Err(err).
			Str("run_id", runID).
			Msg("Failed to persist cancelled sample")
	}

	return cause
}

func (w *Worker) insertEvent(ctx context.Context, eventType store.EventType, detail string) {
	event := &store.Event{
		TimestampUTCMS: w.now().UnixMilli(),
		Type:           eventType,
		Detail:         detail,
	}
	if err := w.recorder.InsertEvent(ctx, event); err != nil {
		logger.Warn().
			Err(err).
			Str("type", string(eventType)).
			Msg("Failed to record app event")
	}
}

func cancelClass(cause error) string {
	if errors.Is(cause, context.DeadlineExceeded) {
		return "DeadlineExceeded"
	}
	return "Canceled"
}
