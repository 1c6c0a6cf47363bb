package power

// State is the environment snapshot captured once per sampling attempt.
// Nil pointer fields mean "could not measure", which downstream consumers
// must keep distinct from a measured zero.
type State struct {
	DozeMode       bool
	PowerSaveMode  bool
	BatteryPercent *int
	StandbyBucket  *int
}

// Prober captures the current power state of the host. Implementations are
// pure functions of the environment and must be callable even when later
// steps of the attempt fail or are cancelled.
type Prober interface {
	Capture() State
}
