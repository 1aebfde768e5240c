package compute

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/san-kum/mdsim/internal/md"
)

type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers: runtime.GOMAXPROCS(0),
	}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

// Run splits [0, n) into fixed contiguous chunks, one per worker, so the
// partitioning is deterministic for a given n and worker count. A panic in
// a kernel is reported as a backend failure naming the operation.
func (c *CPUBackend) Run(op string, n int, kernel func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	workers := c.workers
	if workers > n {
		workers = n
	}
	if workers == 1 {
		return c.invoke(op, 0, n, kernel)
	}

	chunk := (n + workers - 1) / workers
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			errs[w] = c.invoke(op, lo, hi, kernel)
		}(w, lo, hi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *CPUBackend) invoke(op string, lo, hi int, kernel func(lo, hi int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s [%d,%d): panic: %v: %w", op, lo, hi, r, md.ErrBackendFailure)
		}
	}()
	if kerr := kernel(lo, hi); kerr != nil {
		return fmt.Errorf("%s [%d,%d): %w", op, lo, hi, kerr)
	}
	return nil
}
