package sandbox

import "context"

//go:generate mockgen -destination=mocks/runner.go -package=mocks github.com/programme-lv/executor/internal/sandbox Runner

// Limits describes the resource ceilings of a single sandboxed run.
//
// A zero MaxProcesses (or a negative one) means no process-count limit.
type Limits struct {
	CpuTimeSec   float64
	ExtraTimeSec float64
	WallTimeSec  float64
	MemoryKiB    int64
	FileSizeKiB  int64
	MaxProcesses int
}

// Spec is everything a Runner needs to spawn one process.
type Spec struct {
	// Args is the argument vector, Args[0] being the program name.
	Args []string
	// Executable is the resolved host path of the program.
	Executable string
	// Dirs lists host paths made readable inside the sandbox.
	Dirs []string
	Env  map[string]string
	// WorkDir is a host directory bound read-write into the sandbox and
	// used as the working directory of the process.
	WorkDir string
	Limits  Limits
	Stdin   []byte
}

// Runner spawns a constrained child process and waits for it to finish.
//
// A non-nil error means the sandbox itself failed; limit violations and
// crashes of the child are reported through the Outcome.
type Runner interface {
	Run(ctx context.Context, spec Spec) (*Outcome, error)
}
