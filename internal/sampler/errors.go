package sampler

import "codeberg.org/mutker/barologd/internal/errors"

const (
	// Persistence Errors
	ErrPersistSample = errors.ErrorCode("sampler_persist_sample_failed")

	// Tick Errors
	ErrTickFailed = errors.ErrRunTick
)
