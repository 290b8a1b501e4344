package engine

import "errors"

// Configuration errors. All of these are fatal at startup: the network
// constructor rejects the configuration before any round executes, and no
// error of this kind can surface during steady-state round execution.
var (
	// ErrNonPositiveMaxAge is returned for a retention window whose
	// maximum age is zero or negative.
	ErrNonPositiveMaxAge = errors.New("retention max age must be positive")

	// ErrNonPositiveSweep is returned for a retention sweep resolution
	// that is zero or negative.
	ErrNonPositiveSweep = errors.New("retention sweep resolution must be positive")

	// ErrSweepExceedsMaxAge is returned when the sweep resolution is
	// coarser than the maximum age it is supposed to enforce.
	ErrSweepExceedsMaxAge = errors.New("retention sweep resolution exceeds max age")

	// ErrNonPositiveRange is returned for a zero or negative
	// communication range.
	ErrNonPositiveRange = errors.New("communication range must be positive")

	// ErrNonPositiveMean is returned for a Weibull schedule with a zero
	// or negative mean interval.
	ErrNonPositiveMean = errors.New("schedule mean must be positive")

	// ErrNonPositiveDev is returned for a Weibull schedule with a zero or
	// negative interval deviation.
	ErrNonPositiveDev = errors.New("schedule deviation must be positive")

	// ErrNonPositivePeriod is returned for a zero or negative observer
	// sample period.
	ErrNonPositivePeriod = errors.New("observer sample period must be positive")

	// ErrNilSchedule is returned when a network is constructed without a
	// round schedule.
	ErrNilSchedule = errors.New("round schedule is required")

	// ErrNilProgram is returned when a network is constructed without a
	// program body.
	ErrNilProgram = errors.New("program with a defined body is required")

	// ErrDuplicateDevice is returned when a device id is added twice.
	ErrDuplicateDevice = errors.New("duplicate device id")
)
