package sensor_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/barologd/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInstrument scripts one subscription.
type fakeInstrument struct {
	readings     chan float64
	subscribeErr error
	stopped      atomic.Bool
}

func newFakeInstrument() *fakeInstrument {
	return &fakeInstrument{readings: make(chan float64, 4)}
}

func (f *fakeInstrument) Subscribe() (<-chan float64, func(), error) {
	if f.subscribeErr != nil {
		return nil, nil, f.subscribeErr
	}
	return f.readings, func() { f.stopped.Store(true) }, nil
}

func TestReadSnapshotSuccess(t *testing.T) {
	instrument := newFakeInstrument()
	instrument.readings <- 1013.25
	instrument.readings <- 999.0 // must be ignored: first value wins

	reader := sensor.NewReader(instrument)
	outcome, err := reader.ReadSnapshot(context.Background(), time.Second)
	require.NoError(t, err)

	success, ok := outcome.(sensor.Success)
	require.True(t, ok, "expected Success, got %T", outcome)
	assert.Equal(t, 1013.25, success.PressureHpa)
	assert.True(t, instrument.stopped.Load(), "listener must be released")
}

func TestReadSnapshotTimeout(t *testing.T) {
	instrument := newFakeInstrument()

	reader := sensor.NewReader(instrument)
	outcome, err := reader.ReadSnapshot(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)

	timeout, ok := outcome.(sensor.Timeout)
	require.True(t, ok, "expected Timeout, got %T", outcome)
	assert.Equal(t, 20*time.Millisecond, timeout.Elapsed)
	assert.Equal(t, "sensor_event_timeout_20ms", timeout.Reason)
	assert.True(t, instrument.stopped.Load(), "listener must be released")
}

func TestReadSnapshotNoSensor(t *testing.T) {
	reader := sensor.NewReader(sensor.Absent{})

	outcome, err := reader.ReadSnapshot(context.Background(), time.Second)
	require.NoError(t, err)

	noSensor, ok := outcome.(sensor.NoSensor)
	require.True(t, ok, "expected NoSensor, got %T", outcome)
	assert.Equal(t, "pressure_sensor_unavailable", noSensor.Reason)
	assert.Less(t, noSensor.Elapsed, 100*time.Millisecond, "NoSensor must fail fast")
}

func TestReadSnapshotSubscribeFailure(t *testing.T) {
	instrument := newFakeInstrument()
	instrument.subscribeErr = assert.AnError

	reader := sensor.NewReader(instrument)
	outcome, err := reader.ReadSnapshot(context.Background(), time.Second)
	require.NoError(t, err)

	failure, ok := outcome.(sensor.Failure)
	require.True(t, ok, "expected Failure, got %T", outcome)
	assert.NotEmpty(t, failure.Class)
	assert.Contains(t, failure.Message, assert.AnError.Error())
}

func TestReadSnapshotClosedStream(t *testing.T) {
	instrument := newFakeInstrument()
	close(instrument.readings)

	reader := sensor.NewReader(instrument)
	outcome, err := reader.ReadSnapshot(context.Background(), time.Second)
	require.NoError(t, err)

	failure, ok := outcome.(sensor.Failure)
	require.True(t, ok, "expected Failure, got %T", outcome)
	assert.Equal(t, "InstrumentClosed", failure.Class)
}

func TestReadSnapshotCancellation(t *testing.T) {
	instrument := newFakeInstrument()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	reader := sensor.NewReader(instrument)
	outcome, err := reader.ReadSnapshot(ctx, time.Minute)

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, outcome, "cancellation never produces an outcome")
	assert.True(t, instrument.stopped.Load(), "listener must be released on cancellation")
}

func TestReaderWithoutInstrument(t *testing.T) {
	reader := sensor.NewReader(nil)

	outcome, err := reader.ReadSnapshot(context.Background(), time.Second)
	require.NoError(t, err)

	failure, ok := outcome.(sensor.Failure)
	require.True(t, ok, "expected Failure, got %T", outcome)
	assert.Equal(t, "InstrumentUnavailable", failure.Class)
}
