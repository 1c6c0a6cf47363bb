package sampler

import (
	"context"
	"time"

	"codeberg.org/mutker/barologd/internal/sensor"
	"codeberg.org/mutker/barologd/internal/store"
)

// SnapshotReader performs one bounded instrument read.
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context, timeout time.Duration) (sensor.Outcome, error)
}

// Recorder is the slice of the store the worker writes through.
type Recorder interface {
	InsertSampleWithDiagnostics(ctx context.Context, sample *store.Sample, diagnostics *store.Diagnostics) error
	InsertEvent(ctx context.Context, event *store.Event) error
}
