package sensor

import "time"

// Outcome is the classified result of one bounded read attempt. The set of
// variants is closed: Success, Timeout, NoSensor and Failure. External
// cancellation is not an Outcome; it propagates as an error from
// ReadSnapshot so the caller can terminate.
type Outcome interface {
	outcome()
}

// Success carries the first reading that arrived before the deadline.
type Success struct {
	PressureHpa float64
	Elapsed     time.Duration
}

// Timeout means no reading arrived within the bound. Elapsed is clamped to
// the deadline.
type Timeout struct {
	Elapsed time.Duration
	Reason  string
}

// NoSensor means the host has no pressure instrument. Fails fast.
type NoSensor struct {
	Elapsed time.Duration
	Reason  string
}

// Failure means the instrument subsystem raised a fault. Class is a short
// machine-readable category, Message a human string.
type Failure struct {
	Elapsed time.Duration
	Class   string
	Message string
}

func (Success) outcome()  {}
func (Timeout) outcome()  {}
func (NoSensor) outcome() {}
func (Failure) outcome()  {}

// Instrument is one barometric pressure source. Subscribe registers a
// single listener and starts delivery of readings in hPa. The returned stop
// function releases the listener; it is safe to call more than once and
// must be called on every exit path so no listener outlives the read.
type Instrument interface {
	Subscribe() (readings <-chan float64, stop func(), err error)
}

// Absent is an Instrument for hosts without a pressure sensor. Every
// subscription fails fast with ErrNoInstrument.
type Absent struct{}

func (Absent) Subscribe() (<-chan float64, func(), error) {
	return nil, nil, ErrNoInstrument
}
