package executor

import (
	"context"
	"log/slog"

	"github.com/programme-lv/executor/internal/metrics"
	"github.com/programme-lv/executor/internal/sandbox"
	"github.com/programme-lv/executor/internal/verdict"
)

// Result of one judged run.
type Result struct {
	Flags verdict.Flags
	// Feedback is the runtime's own short error message, if any.
	Feedback string
	Outcome  *sandbox.Outcome
}

// Run executes the prepared program once. Time, memory and wall limits come
// from the caller; process count and file size come from the executor.
// Errors are *Error.
func (p *Prepared) Run(ctx context.Context, stdin []byte, limits sandbox.Limits) (*Result, error) {
	e := p.exec
	limits.MaxProcesses = e.cfg.maxProcesses()
	if e.cfg.FsizeKiB > 0 {
		limits.FileSizeKiB = e.cfg.FsizeKiB
	}

	args := p.runArgs()
	outcome, err := e.deps.Runner.Run(ctx, p.spec(args[0], args, limits, stdin))
	if err != nil {
		return nil, InternalError("failed to run submission", err)
	}

	if e.classify.Unexplained(outcome) {
		return nil, p.escalate(ctx, outcome, limits)
	}

	res := &Result{
		Flags:   e.classify.Classify(outcome),
		Outcome: outcome,
	}
	if res.Flags.Has(verdict.RuntimeError) {
		res.Feedback = e.feedback.Extract(outcome.Stderr)
	}

	for _, name := range res.Flags.Names() {
		metrics.Verdicts.WithLabelValues(e.cfg.ID, name).Inc()
	}
	slog.Debug("classified run",
		"executor", e.cfg.ID,
		"problem", p.submission.ProblemID(),
		"flags", res.Flags.String(),
		"exit_code", outcome.ExitCode,
		"cpu_ms", outcome.CpuMillis,
	)
	return res, nil
}

// runArgs is the command line of the program: the binary itself when
// compiled, the runtime with the script otherwise.
func (p *Prepared) runArgs() []string {
	if p.exec.cfg.Compile {
		return []string{p.artifact}
	}
	return []string{p.runtime, p.codePath}
}
