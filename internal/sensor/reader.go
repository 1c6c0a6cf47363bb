package sensor

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/barologd/internal/errors"
)

// DefaultTimeout bounds one read attempt.
const DefaultTimeout = 2500 * time.Millisecond

const (
	noSensorReason    = "pressure_sensor_unavailable"
	emptyValuesReason = "sensor_event_empty_values"
)

// Reader performs bounded single-shot reads against an Instrument.
type Reader struct {
	instrument Instrument
}

func NewReader(instrument Instrument) *Reader {
	return &Reader{instrument: instrument}
}

// ReadSnapshot races the first reading against the timeout and the context.
// Only the first reported value is used. The subscription is released on
// every exit path. External cancellation is returned as ctx.Err(), never
// converted into an Outcome: persisting a CANCELLED record is the caller's
// responsibility.
func (r *Reader) ReadSnapshot(ctx context.Context, timeout time.Duration) (Outcome, error) {
	started := time.Now()

	if r.instrument == nil {
		return Failure{
			Elapsed: time.Since(started),
			Class:   "InstrumentUnavailable",
			Message: "reader constructed without an instrument",
		}, nil
	}

	readings, stop, err := r.instrument.Subscribe()
	if err != nil {
		if IsNoInstrument(err) {
			return NoSensor{
				Elapsed: time.Since(started),
				Reason:  noSensorReason,
			}, nil
		}
		return Failure{
			Elapsed: time.Since(started),
			Class:   failureClass(err),
			Message: err.Error(),
		}, nil
	}
	defer stop()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case value, ok := <-readings:
		if !ok {
			return Failure{
				Elapsed: time.Since(started),
				Class:   "InstrumentClosed",
				Message: emptyValuesReason,
			}, nil
		}
		return Success{
			PressureHpa: value,
			Elapsed:     time.Since(started),
		}, nil
	case <-timer.C:
		return Timeout{
			Elapsed: timeout,
			Reason:  fmt.Sprintf("sensor_event_timeout_%dms", timeout.Milliseconds()),
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func failureClass(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return string(code)
	}
	return fmt.Sprintf("%T", err)
}
