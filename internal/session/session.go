package session

import "sync/atomic"

// Tracker classifies process provenance with two one-shot latches. It is
// passed through construction rather than held as a package global so tests
// can inject a fresh instance per process-lifetime scenario.
type Tracker struct {
	uiSeen     atomic.Bool
	workerSeen atomic.Bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// MarkUIStarted latches the interactive start. Returns true only on the
// first call in the process lifetime.
func (t *Tracker) MarkUIStarted() bool {
	return t.uiSeen.CompareAndSwap(false, true)
}

// MarkWorkerStart latches the first scheduler invocation. coldStart is true
// when this is the first worker invocation in the process and no
// interactive start has been seen yet. The worker latch is set before the
// ui latch is read so concurrent first invocations classify consistently.
func (t *Tracker) MarkWorkerStart() (firstWorker, coldStart bool) {
	firstWorker = t.workerSeen.CompareAndSwap(false, true)
	coldStart = firstWorker && !t.uiSeen.Load()
	return firstWorker, coldStart
}
