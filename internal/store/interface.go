package store

import "context"

// SampleMode tags whether a tick ran in elevated-priority mode.
type SampleMode string

const (
	ModeFGS   SampleMode = "FGS"
	ModeNoFGS SampleMode = "NO_FGS"
)

// SampleResult classifies the outcome of one sampling tick.
type SampleResult string

const (
	ResultOK        SampleResult = "OK"
	ResultTimeout   SampleResult = "TIMEOUT"
	ResultError     SampleResult = "ERROR"
	ResultNoSensor  SampleResult = "NO_SENSOR"
	ResultCancelled SampleResult = "CANCELLED"
)

// EventType classifies process and worker lifecycle events.
type EventType string

const (
	EventAppStart                 EventType = "APP_START"
	EventWorkerStart              EventType = "WORKER_START"
	EventProcessColdStartByWorker EventType = "PROCESS_COLD_START_BY_WORKER"
)

// Sample is one persisted sampling attempt. Samples are append-only and
// never updated after insert. PressureHpa is non-nil if and only if
// Result is ResultOK.
type Sample struct {
	ID             int64
	TimestampUTCMS int64
	PressureHpa    *float64
	Mode           SampleMode
	Result         SampleResult
	Diagnostics    *Diagnostics
}

// Diagnostics is the 1:1 environmental record owned by a Sample. It is
// created in the same transaction as its sample and removed with it via
// cascade delete.
type Diagnostics struct {
	SampleID        int64
	RecordedAtUTCMS int64
	DurationMS      int64
	DozeMode        bool
	PowerSaveMode   bool
	BatteryPercent  *int
	StandbyBucket   *int
	StopReason      *string
	FailureClass    *string
	FailureMessage  *string
	WorkerRunID     string
	RunAttemptCount int
}

// Event is one append-only lifecycle log entry.
type Event struct {
	ID             int64
	TimestampUTCMS int64
	Type           EventType
	Detail         string
}

// Repository defines the storage interface for samples, diagnostics and
// events.
type Repository interface {
	// InsertSampleWithDiagnostics writes the pair as one atomic unit.
	// diagnostics.SampleID is assigned from the inserted sample.
	InsertSampleWithDiagnostics(ctx context.Context, sample *Sample, diagnostics *Diagnostics) error
	InsertEvent(ctx context.Context, event *Event) error

	// SamplesForRange returns samples with their diagnostics in the
	// half-open UTC millisecond range [startUTCMS, endUTCMS), ascending.
	SamplesForRange(ctx context.Context, startUTCMS, endUTCMS int64) ([]Sample, error)
	EventsForRange(ctx context.Context, startUTCMS, endUTCMS int64) ([]Event, error)

	// DistinctDays returns the distinct local calendar dates
	// (YYYY-MM-DD) that hold samples, descending, at most limit.
	DistinctDays(ctx context.Context, limit int) ([]string, error)

	// DeleteSample removes a sample; its diagnostics row goes with it.
	DeleteSample(ctx context.Context, id int64) error

	Close() error
}
