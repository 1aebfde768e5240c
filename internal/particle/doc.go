// Package particle owns the per-particle state arrays and the lazy
// force-recomputation protocol.
//
// A System holds a fixed number of particles whose attributes live in
// named, independently typed arrays. Derived quantities (force, potential
// energy, stress tensor) are cached and recomputed on demand through an
// ordered observer chain: "prepend" observers may flag staleness from
// external state, "force" observers contribute force terms in registration
// order, and "append" observers consume the settled result. No matter how
// many consumers ask for the force during a step, the contributors run at
// most once.
package particle
