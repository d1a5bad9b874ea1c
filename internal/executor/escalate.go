package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/programme-lv/executor/internal/incident"
	"github.com/programme-lv/executor/internal/metrics"
	"github.com/programme-lv/executor/internal/sandbox"
	"github.com/programme-lv/executor/internal/verdict"
)

// notifyTimeout bounds how long a slow broker can hold back the result.
var notifyTimeout = 5 * time.Second

type executorRecord struct {
	Config
	Runtime string   `json:"runtime"`
	Dirs    []string `json:"dirs"`
}

type judgeRecord struct {
	ProblemID string         `json:"problem_id"`
	Limits    sandbox.Limits `json:"limits"`
	Flags     verdict.Flags  `json:"flags"`
	WorkDir   string         `json:"work_dir"`
	Time      time.Time      `json:"time"`
}

// escalate preserves an unexplained failure for operators and returns the
// error that fails the judged attempt. Capture and notification problems
// are logged and never replace that error.
func (p *Prepared) escalate(ctx context.Context, outcome *sandbox.Outcome, limits sandbox.Limits) *Error {
	e := p.exec
	log := slog.With("executor", e.cfg.ID, "problem", p.submission.ProblemID())
	metrics.Incidents.WithLabelValues(e.cfg.ID).Inc()

	codeFname := "executable"
	if !e.cfg.Compile {
		codeFname = "code." + e.cfg.Ext
	}

	dir := ""
	var captureErr error
	if e.deps.Recorder != nil {
		dir, captureErr = e.deps.Recorder.Record(incident.Artifacts{
			Prefix:    strings.ToLower(e.cfg.ID),
			CodePath:  p.artifact,
			CodeFname: codeFname,
			Process:   outcome,
			Executor: executorRecord{
				Config:  e.cfg,
				Runtime: p.runtime,
				Dirs:    allowList(e.cfg, p.runtime),
			},
			Result: judgeRecord{
				ProblemID: p.submission.ProblemID(),
				Limits:    limits,
				Flags:     e.classify.Classify(outcome),
				WorkDir:   p.dir,
				Time:      time.Now(),
			},
		})
		if captureErr != nil {
			log.Error("failed to capture incident artifacts", "dir", dir, "error", captureErr)
		}
	}

	log.Warn("unexplained failure", "exit_code", outcome.ExitCode, "dir", dir)

	if e.deps.Notifier != nil {
		report := incident.NewReport(e.cfg.ID, p.submission.ProblemID(), dir, outcome.ExitCode, outcome.Stderr)
		nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		if err := e.deps.Notifier.Notify(nctx, report); err != nil {
			log.Error("failed to notify about incident", "error", err)
		}
		cancel()
	}

	saved := fmt.Sprintf("artifacts saved to %q", dir)
	switch {
	case dir == "":
		saved = "artifacts not saved"
	case captureErr != nil:
		saved = fmt.Sprintf("artifacts partially saved to %q", dir)
	}
	msg := fmt.Sprintf("%s exited with code %d, %s, stderr: %s",
		e.cfg.Name, outcome.ExitCode, saved, string(outcome.Stderr))
	return &Error{
		Kind:        InfrastructureError,
		Message:     msg,
		ArtifactDir: dir,
	}
}
