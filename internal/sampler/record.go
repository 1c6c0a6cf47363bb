package sampler

import (
	"time"

	"codeberg.org/mutker/barologd/internal/power"
	"codeberg.org/mutker/barologd/internal/sensor"
	"codeberg.org/mutker/barologd/internal/store"
)

// buildRecord maps an outcome deterministically to the sample+diagnostics
// pair. Pressure is set only for a successful read, so the stored invariant
// "pressure non-null iff result OK" holds by construction.
func buildRecord(
	outcome sensor.Outcome,
	state power.State,
	runID string,
	attempt int,
	mode store.SampleMode,
	now time.Time,
) (*store.Sample, *store.Diagnostics) {
	ts := now.UnixMilli()

	sample := &store.Sample{
		TimestampUTCMS: ts,
		Mode:           mode,
	}
	diagnostics := &store.Diagnostics{
		RecordedAtUTCMS: ts,
		DozeMode:        state.DozeMode,
		PowerSaveMode:   state.PowerSaveMode,
		BatteryPercent:  state.BatteryPercent,
		StandbyBucket:   state.StandbyBucket,
		WorkerRunID:     runID,
		RunAttemptCount: attempt,
	}

	switch o := outcome.(type) {
	case sensor.Success:
		value := o.PressureHpa
		sample.Result = store.ResultOK
		sample.PressureHpa = &value
		diagnostics.DurationMS = o.Elapsed.Milliseconds()
	case sensor.Timeout:
		sample.Result = store.ResultTimeout
		diagnostics.DurationMS = o.Elapsed.Milliseconds()
		diagnostics.FailureClass = strPtr("Timeout")
		diagnostics.FailureMessage = strPtr(o.Reason)
	case sensor.NoSensor:
		sample.Result = store.ResultNoSensor
		diagnostics.DurationMS = o.Elapsed.Milliseconds()
		diagnostics.FailureClass = strPtr("NoSensor")
		diagnostics.FailureMessage = strPtr(o.Reason)
	case sensor.Failure:
		sample.Result = store.ResultError
		diagnostics.DurationMS = o.Elapsed.Milliseconds()
		diagnostics.FailureClass = strPtr(o.Class)
		if o.Message != "" {
			diagnostics.FailureMessage = strPtr(o.Message)
		}
	}

	return sample, diagnostics
}

func strPtr(s string) *string {
	return &s
}
