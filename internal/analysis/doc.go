// Package analysis provides trajectory correlation functions.
//
// A [Correlator] records per-particle snapshots keyed by particle id, so
// storage reorderings during the run do not scramble identities, and
// derives:
//
//   - [Correlator.MSD]: mean-square displacement over lag time
//   - [Correlator.VACF]: velocity autocorrelation over lag time
//   - [Spectrum]: power spectrum of a correlation series
package analysis
