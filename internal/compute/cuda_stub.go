//go:build !cuda

package compute

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/md"
)

type CUDABackend struct{}

func NewCUDABackend() *CUDABackend {
	return &CUDABackend{}
}

func (c *CUDABackend) Name() string    { return "cuda (not available)" }
func (c *CUDABackend) Available() bool { return false }
func (c *CUDABackend) Cleanup()        {}

func (c *CUDABackend) Run(op string, n int, kernel func(lo, hi int) error) error {
	return fmt.Errorf("%s: not built with CUDA support: %w", op, md.ErrBackendFailure)
}
