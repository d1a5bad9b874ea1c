package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/programme-lv/executor/internal/metrics"
	"github.com/programme-lv/executor/internal/sandbox"
	"github.com/programme-lv/executor/internal/verdict"
)

// validate runs the runtime in check mode under the preflight limits.
// Limit violations and files the runtime calls invalid are the
// submitter's fault; any other failure is ours.
func (e *Executor) validate(ctx context.Context, p *Prepared) error {
	err := e.preflight(ctx, p)
	if err != nil {
		kind := KindOf(err)
		metrics.PreflightFailures.WithLabelValues(e.cfg.ID, kind.String()).Inc()
		slog.Info("submission failed validation",
			"executor", e.cfg.ID,
			"problem", p.submission.ProblemID(),
			"kind", kind.String(),
		)
	}
	return err
}

func (e *Executor) preflight(ctx context.Context, p *Prepared) error {
	pf := e.cfg.Preflight
	invalid := verdict.SubstringReport{Marker: pf.InvalidMarker}

	args := []string{p.runtime}
	args = append(args, pf.Args...)
	args = append(args, p.codePath)
	limits := sandbox.Limits{
		CpuTimeSec:   pf.TimeSec,
		MemoryKiB:    pf.MemoryKiB,
		FileSizeKiB:  e.cfg.FsizeKiB,
		MaxProcesses: e.cfg.maxProcesses(),
	}

	outcome, err := e.deps.Runner.Run(ctx, p.spec(p.runtime, args, limits, nil))
	if err != nil {
		return InternalError(fmt.Sprintf("failed to validate %s file", e.cfg.Name), err)
	}

	switch {
	case outcome.IsTLE():
		return CompileError(fmt.Sprintf("Time Limit Exceeded while validating %s file", e.cfg.Name))
	case outcome.IsMLE():
		return CompileError(fmt.Sprintf("Memory Limit Exceeded while validating %s file", e.cfg.Name))
	case outcome.ExitCode == 0 && outcome.ExitSignal == nil:
		return nil
	case outcome.IsIR() && outcome.ExitCode == 1 && invalid.Reported(outcome.Stderr):
		return CompileError(string(outcome.Stderr))
	}
	return InternalError(fmt.Sprintf("Unknown error while validating %s file", e.cfg.Name), nil)
}
