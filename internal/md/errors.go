package md

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidArgument indicates malformed construction input, such as
	// mismatched parameter matrix shapes or a non-positive particle count.
	ErrInvalidArgument = errors.New("mdsim: invalid argument")

	// ErrPotentialDivergence indicates a non-finite accumulated potential
	// energy during force evaluation. The configuration is physically
	// invalid (overlapping particles, excessive timestep) and the run
	// cannot continue.
	ErrPotentialDivergence = errors.New("mdsim: potential energy diverged")

	// ErrBackendFailure indicates an unrecoverable compute backend error.
	ErrBackendFailure = errors.New("mdsim: compute backend failure")
)

// StepError wraps an error with the simulation step it occurred in.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
