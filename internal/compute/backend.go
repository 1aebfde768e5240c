package compute

// Backend executes a kernel over index ranges. Implementations block until
// the whole range has been processed; any lane failure aborts the call.
type Backend interface {
	Name() string
	Available() bool
	// Run partitions [0, n) and invokes kernel once per partition.
	Run(op string, n int, kernel func(lo, hi int) error) error
	Cleanup()
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

func AutoSelectBackend() Backend {
	cuda := NewCUDABackend()
	if cuda.Available() {
		return cuda
	}
	return NewCPUBackend()
}
