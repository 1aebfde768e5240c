// Package sim drives the simulation loop.
package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/observables"
	"github.com/san-kum/mdsim/internal/particle"
	"github.com/san-kum/mdsim/internal/telemetry"
)

// Config controls a run.
type Config struct {
	Steps int
	// SampleInterval is the number of steps between observable samples;
	// zero disables sampling beyond the initial and final state.
	SampleInterval int
	// SortInterval is the number of steps between storage reorderings;
	// zero disables sorting.
	SortInterval int
}

// Sample is one observable record.
type Sample struct {
	Step        uint64
	Time        float64
	EnPot       float64
	EnKin       float64
	EnTot       float64
	Temperature float64
	Pressure    float64
}

// Result summarizes a completed run.
type Result struct {
	Samples     []Sample
	StepsTaken  int
	EnergyDrift float64
	Elapsed     time.Duration
}

// Observer is notified with every recorded sample, e.g. for live views.
type Observer interface {
	OnSample(s Sample)
}

// Runner advances a particle system step by step: first integrator
// half-step, force update at the new positions, second half-step, then
// observables and the occasional storage reordering. One Runner equals
// one logical thread of control; nothing here is safe for concurrent use.
type Runner[V numeric.Vector[V]] struct {
	sys        *particle.System[V]
	box        *box.Box[V]
	integrator md.Integrator
	clock      *observables.Clock
	thermo     *observables.Thermodynamics[V]

	sorter    md.Sorter
	observers []Observer
}

func New[V numeric.Vector[V]](sys *particle.System[V], bx *box.Box[V], integ md.Integrator, clock *observables.Clock, thermo *observables.Thermodynamics[V]) *Runner[V] {
	return &Runner[V]{
		sys:        sys,
		box:        bx,
		integrator: integ,
		clock:      clock,
		thermo:     thermo,
	}
}

// SetSorter installs a storage sorter run every Config.SortInterval steps.
func (r *Runner[V]) SetSorter(s md.Sorter) { r.sorter = s }

func (r *Runner[V]) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run advances the simulation. Cancellation is checked between complete
// steps only; a hard error aborts the run with the step it occurred in.
func (r *Runner[V]) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := r.validate(cfg); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{}

	// settle forces and record the initial state
	r.thermo.PrepareAux()
	if err := r.sys.EnsureForce(true); err != nil {
		return nil, &md.StepError{Step: 0, Wrapped: err}
	}
	s0, err := r.sample()
	if err != nil {
		return nil, &md.StepError{Step: 0, Wrapped: err}
	}
	result.Samples = append(result.Samples, s0)

	dt := r.integrator.Timestep()
	prev := r.sys.Stats()

	for step := 1; step <= cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			result.Elapsed = time.Since(start)
			return result, ctx.Err()
		default:
		}

		stepStart := time.Now()
		sampling := cfg.SampleInterval > 0 && step%cfg.SampleInterval == 0 || step == cfg.Steps

		// an aux request must precede the force update it applies to
		if sampling {
			r.thermo.PrepareAux()
		}

		t := float64(step) * dt
		if err := r.integrator.Integrate(); err != nil {
			return result, &md.StepError{Step: step, Time: t, Wrapped: err}
		}
		if err := r.sys.EnsureForce(false); err != nil {
			return result, &md.StepError{Step: step, Time: t, Wrapped: err}
		}
		if err := r.integrator.Finalize(); err != nil {
			return result, &md.StepError{Step: step, Time: t, Wrapped: err}
		}
		r.clock.Advance()
		result.StepsTaken++

		if sampling {
			s, err := r.sample()
			if err != nil {
				return result, &md.StepError{Step: step, Time: t, Wrapped: err}
			}
			result.Samples = append(result.Samples, s)
			for _, o := range r.observers {
				o.OnSample(s)
			}
		}

		if r.sorter != nil && cfg.SortInterval > 0 && step%cfg.SortInterval == 0 {
			if err := r.sorter.Order(); err != nil {
				return result, &md.StepError{Step: step, Time: t, Wrapped: err}
			}
			telemetry.SortsTotal.Inc()
		}

		stats := r.sys.Stats()
		telemetry.StepsTotal.Inc()
		telemetry.ForceUpdatesTotal.Add(float64(stats.ForceUpdates - prev.ForceUpdates))
		telemetry.AuxUpdatesTotal.Add(float64(stats.AuxUpdates - prev.AuxUpdates))
		telemetry.StepDuration.Observe(time.Since(stepStart).Seconds())
		prev = stats
	}

	result.Elapsed = time.Since(start)
	if len(result.Samples) > 1 {
		e0 := result.Samples[0].EnTot
		eN := result.Samples[len(result.Samples)-1].EnTot
		if e0 != 0 {
			result.EnergyDrift = math.Abs(eN-e0) / math.Abs(e0)
		}
	}
	return result, nil
}

func (r *Runner[V]) validate(cfg Config) error {
	if cfg.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d: %w",
			cfg.Steps, md.ErrInvalidArgument)
	}
	if r.integrator.Timestep() <= 0 {
		return fmt.Errorf("timestep must be positive, got %g: %w",
			r.integrator.Timestep(), md.ErrInvalidArgument)
	}
	return nil
}

func (r *Runner[V]) sample() (Sample, error) {
	enPot, err := r.thermo.EnPot()
	if err != nil {
		return Sample{}, err
	}
	pressure, err := r.thermo.Pressure()
	if err != nil {
		return Sample{}, err
	}
	enKin := r.thermo.EnKin()
	return Sample{
		Step:        r.clock.Step(),
		Time:        float64(r.clock.Step()) * r.integrator.Timestep(),
		EnPot:       enPot,
		EnKin:       enKin,
		EnTot:       enPot + enKin,
		Temperature: r.thermo.Temperature(),
		Pressure:    pressure,
	}, nil
}
