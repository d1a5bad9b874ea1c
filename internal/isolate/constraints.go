package isolate

import (
	"fmt"

	"github.com/programme-lv/executor/internal/sandbox"
)

type Constraints struct {
	CpuTimeLimInSec      float64
	ExtraCpuTimeLimInSec float64
	WallTimeLimInSec     float64
	MemoryLimitInKB      int64
	FileSizeLimitInKB    int64
	// MaxProcesses <= 0 lifts the process-count limit.
	MaxProcesses int
	MaxOpenFiles int
}

func DefaultConstraints() Constraints {
	return Constraints{
		CpuTimeLimInSec:      10.0,
		ExtraCpuTimeLimInSec: 0.5,
		WallTimeLimInSec:     20.0,
		MemoryLimitInKB:      262144,
		FileSizeLimitInKB:    65536,
		MaxProcesses:         1,
		MaxOpenFiles:         128,
	}
}

// ConstraintsFromLimits fills zero fields of l with the defaults.
func ConstraintsFromLimits(l sandbox.Limits) Constraints {
	c := DefaultConstraints()
	if l.CpuTimeSec > 0 {
		c.CpuTimeLimInSec = l.CpuTimeSec
		c.WallTimeLimInSec = 2*l.CpuTimeSec + 1
	}
	if l.ExtraTimeSec > 0 {
		c.ExtraCpuTimeLimInSec = l.ExtraTimeSec
	}
	if l.WallTimeSec > 0 {
		c.WallTimeLimInSec = l.WallTimeSec
	}
	if l.MemoryKiB > 0 {
		c.MemoryLimitInKB = l.MemoryKiB
	}
	if l.FileSizeKiB > 0 {
		c.FileSizeLimitInKB = l.FileSizeKiB
	}
	c.MaxProcesses = l.MaxProcesses
	return c
}

func (constraints *Constraints) ToArgs() []string {
	return []string{
		constraints.MemLimArg(),
		constraints.CpuTimeLimArg(),
		constraints.ExtraCpuTimeLimArg(),
		constraints.WallTimeLimArg(),
		constraints.FileSizeLimArg(),
		constraints.MaxProcessesArg(),
		constraints.MaxOpenFilesArg(),
	}
}

// MemLimArg limits the whole control group, so that an OOM kill is
// reported in the meta file as cg-oom-killed.
func (constraints *Constraints) MemLimArg() string {
	return fmt.Sprintf("--cg-mem=%d", constraints.MemoryLimitInKB)
}

func (constraints *Constraints) CpuTimeLimArg() string {
	return fmt.Sprintf("--time=%f", constraints.CpuTimeLimInSec)
}

func (constraints *Constraints) ExtraCpuTimeLimArg() string {
	return fmt.Sprintf("--extra-time=%f", constraints.ExtraCpuTimeLimInSec)
}

func (constraints *Constraints) WallTimeLimArg() string {
	return fmt.Sprintf("--wall-time=%f", constraints.WallTimeLimInSec)
}

func (constraints *Constraints) FileSizeLimArg() string {
	return fmt.Sprintf("--fsize=%d", constraints.FileSizeLimitInKB)
}

func (constraints *Constraints) MaxProcessesArg() string {
	if constraints.MaxProcesses <= 0 {
		return "--processes"
	}
	return fmt.Sprintf("--processes=%d", constraints.MaxProcesses)
}

func (constraints *Constraints) MaxOpenFilesArg() string {
	return fmt.Sprintf("--open-files=%d", constraints.MaxOpenFiles)
}
