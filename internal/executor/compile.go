package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/programme-lv/executor/internal/sandbox"
)

// compiler processes are many (driver, cc1plus, as, ld)
var compileLimits = sandbox.Limits{
	CpuTimeSec:   10,
	WallTimeSec:  20,
	MemoryKiB:    512 * 1024,
	FileSizeKiB:  128 * 1024,
	MaxProcesses: -1,
}

func (e *Executor) compileArgs(compiler string, src string, exe string) []string {
	args := []string{compiler, "-std=" + e.cfg.Std}
	args = append(args, e.cfg.Defines...)
	args = append(args, src, "-o", exe)
	args = append(args, e.cfg.Flags...)
	return args
}

func (e *Executor) compile(ctx context.Context, p *Prepared) error {
	exePath := filepath.Join(p.dir, p.submission.ProblemID())
	args := e.compileArgs(p.runtime, p.codePath, exePath)

	outcome, err := e.deps.Runner.Run(ctx, p.spec(p.runtime, args, compileLimits, nil))
	if err != nil {
		return InternalError("failed to run compiler", err)
	}

	switch {
	case outcome.IsTLE():
		return CompileError("Time Limit Exceeded while compiling")
	case outcome.IsMLE():
		return CompileError("Memory Limit Exceeded while compiling")
	case outcome.IsOLE():
		return CompileError("Output Limit Exceeded while compiling")
	case outcome.ExitCode != 0 || outcome.ExitSignal != nil:
		msg := strings.TrimSpace(string(outcome.Stderr) + string(outcome.Stdout))
		if msg == "" {
			msg = fmt.Sprintf("compiler exited with code %d", outcome.ExitCode)
		}
		return CompileError(msg)
	}

	if _, err := os.Stat(exePath); err != nil {
		return InternalError("compiler produced no executable", err)
	}
	slog.Debug("compiled submission", "executor", e.cfg.ID, "cpu_ms", outcome.CpuMillis)

	p.artifact = exePath
	return nil
}
