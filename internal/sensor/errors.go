package sensor

import "codeberg.org/mutker/barologd/internal/errors"

const (
	// Instrument Errors
	ErrInstrumentMissing = errors.ErrorCode("sensor_instrument_missing")
	ErrSubscribeFailed   = errors.ErrorCode("sensor_subscribe_failed")
	ErrHostInit          = errors.ErrorCode("sensor_host_init_failed")
	ErrBusOpen           = errors.ErrorCode("sensor_bus_open_failed")
	ErrDeviceClose       = errors.ErrorCode("sensor_device_close_failed")
)

// ErrNoInstrument signals that the host carries no pressure instrument.
// Readers map it to a NoSensor outcome.
var ErrNoInstrument = errors.New().New(ErrInstrumentMissing)

// IsNoInstrument reports whether err indicates a missing instrument.
func IsNoInstrument(err error) bool {
	return errors.CodeOf(err) == ErrInstrumentMissing
}
