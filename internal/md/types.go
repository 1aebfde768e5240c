package md

// Integrator advances positions and velocities by one timestep, split into
// two half-steps. Integrate performs the first half-step and invalidates
// cached forces; the driving loop recomputes forces at the new positions
// before calling Finalize for the second half-step.
type Integrator interface {
	Integrate() error
	Finalize() error
	Timestep() float64
	SetTimestep(dt float64)
}

// Sorter reorders particle storage for cache locality at controlled
// intervals.
type Sorter interface {
	Order() error
}
