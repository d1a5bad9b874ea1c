package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/programme-lv/executor/internal/fetch"
	"github.com/programme-lv/executor/internal/incident"
	"github.com/programme-lv/executor/internal/sandbox"
	"github.com/programme-lv/executor/internal/verdict"
)

const (
	shimFname   = "setbufsize.so"
	sandboxPath = "/usr/local/bin:/usr/bin:/bin"
)

type SourceFetcher interface {
	Fetch(ctx context.Context, ref string, limit int64) ([]byte, error)
}

// Deps are the collaborators shared by all executors.
type Deps struct {
	Runner   sandbox.Runner
	Fetcher  SourceFetcher
	Recorder *incident.Recorder
	// Notifier is optional.
	Notifier incident.Notifier
	// ShimPath is the host path of the stdout buffering shim preloaded
	// into every program, empty to run without it.
	ShimPath string
	// WorkRoot holds per-submission work directories, defaults to the temp dir.
	WorkRoot string
	// LookPath resolves command names, defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// Executor runs submissions of one language.
type Executor struct {
	cfg      Config
	deps     Deps
	runtimes *runtimes
	classify *verdict.Classifier
	feedback *verdict.FeedbackExtractor
}

func newExecutor(cfg Config, deps Deps, rt *runtimes) *Executor {
	report := cfg.SelfReport()
	return &Executor{
		cfg:      cfg,
		deps:     deps,
		runtimes: rt,
		classify: verdict.NewClassifier(report),
		feedback: verdict.NewFeedbackExtractor(report, cfg.FeedbackCap),
	}
}

func (e *Executor) Config() Config {
	return e.cfg
}

// Runtime returns the resolved host path of the runtime or compiler.
func (e *Executor) Runtime() (string, error) {
	return e.runtimes.resolve(e.cfg)
}

// Prepared is a submission written to disk, compiled and validated as
// its executor requires, ready to be run any number of times.
type Prepared struct {
	exec       *Executor
	submission Submission
	runtime    string
	dir        string
	codePath   string
	// artifact is what gets executed: the compiled binary or the script.
	artifact string
}

// Prepare turns a submission into a runnable one. Errors are *Error.
func (e *Executor) Prepare(ctx context.Context, sub Submission) (*Prepared, error) {
	log := slog.With("executor", e.cfg.ID, "problem", sub.ProblemID())

	runtime, err := e.runtimes.resolve(e.cfg)
	if err != nil {
		return nil, InternalError("runtime is not installed", err)
	}

	source, err := e.source(ctx, sub)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(e.deps.WorkRoot, "executor-")
	if err != nil {
		return nil, InternalError("failed to create work directory", err)
	}
	// the sandboxed user differs from ours
	if err := os.Chmod(dir, 0777); err != nil {
		os.RemoveAll(dir)
		return nil, InternalError("failed to open up work directory", err)
	}

	p := &Prepared{
		exec:       e,
		submission: sub,
		runtime:    runtime,
		dir:        dir,
		codePath:   filepath.Join(dir, sub.ProblemID()+"."+e.cfg.Ext),
	}
	p.artifact = p.codePath

	if err := p.createFiles(source); err != nil {
		p.Close()
		return nil, err
	}

	if e.cfg.Compile {
		log.Debug("compiling submission")
		if err := e.compile(ctx, p); err != nil {
			p.Close()
			return nil, err
		}
	}

	if e.cfg.Preflight != nil {
		log.Debug("validating submission")
		if err := e.validate(ctx, p); err != nil {
			p.Close()
			return nil, err
		}
	}

	return p, nil
}

// source returns the submission bytes, downloading them when the
// submission only references its file.
func (e *Executor) source(ctx context.Context, sub Submission) ([]byte, error) {
	isTest := sub.ProblemID() == TestName && e.cfg.TestProgramURL
	if !isTest && !sub.Meta().FileOnly {
		return sub.Source(), nil
	}
	if e.deps.Fetcher == nil {
		return nil, InternalError("no source fetcher configured", nil)
	}

	limitMiB := sub.Meta().FileSizeLimitMiB
	if isTest {
		limitMiB = 1
	}
	data, err := e.deps.Fetcher.Fetch(ctx, string(sub.Source()), int64(limitMiB)<<20)
	if errors.Is(err, fetch.ErrTooLarge) {
		return nil, CompileError(fmt.Sprintf("Submission file is larger than %d MiB", limitMiB))
	}
	if err != nil {
		return nil, InternalError("failed to download submission file", err)
	}
	return data, nil
}

func (p *Prepared) createFiles(source []byte) error {
	if err := os.WriteFile(p.codePath, source, 0644); err != nil {
		return InternalError("failed to write source code", err)
	}
	if p.exec.deps.ShimPath != "" {
		if err := copyFile(p.exec.deps.ShimPath, filepath.Join(p.dir, shimFname)); err != nil {
			return InternalError("failed to copy buffering shim", err)
		}
	}
	return nil
}

// Dir is the work directory of the submission.
func (p *Prepared) Dir() string {
	return p.dir
}

func (p *Prepared) Close() error {
	return os.RemoveAll(p.dir)
}

// spec assembles the spawn request shared by every run of the submission.
func (p *Prepared) spec(executable string, args []string, limits sandbox.Limits, stdin []byte) sandbox.Spec {
	env := map[string]string{
		"PATH":            sandboxPath,
		"HOME":            p.dir,
		"LD_LIBRARY_PATH": os.Getenv("LD_LIBRARY_PATH"),
	}
	if p.exec.deps.ShimPath != "" {
		env["LD_PRELOAD"] = filepath.Join(p.dir, shimFname)
	}

	return sandbox.Spec{
		Args:       args,
		Executable: executable,
		Dirs:       allowList(p.exec.cfg, p.runtime),
		Env:        env,
		WorkDir:    p.dir,
		Limits:     limits,
		Stdin:      stdin,
	}
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
