// Package compute provides the execution backends for bulk per-particle
// kernels.
//
// The best available backend is selected automatically at startup; the CPU
// backend fans kernels out across worker goroutines, the CUDA backend is a
// stub unless built with GPU support. A kernel call is synchronous: it
// returns only once all lanes have completed or failed.
package compute
