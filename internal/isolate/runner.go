package isolate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/programme-lv/executor/internal/sandbox"
)

// DefaultMaxCapture bounds how much of each output stream is kept.
const DefaultMaxCapture = 16 << 20

// Runner runs every Spec in a fresh isolate box.
type Runner struct {
	isolate    *Isolate
	maxCapture int64
}

var _ sandbox.Runner = (*Runner)(nil)

func NewRunner(isolate *Isolate, maxCapture int64) *Runner {
	if maxCapture <= 0 {
		maxCapture = DefaultMaxCapture
	}
	return &Runner{isolate: isolate, maxCapture: maxCapture}
}

func (r *Runner) Run(ctx context.Context, spec sandbox.Spec) (*sandbox.Outcome, error) {
	box, err := r.isolate.NewBox(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create isolate box: %w", err)
	}
	defer func() {
		if err := box.Close(); err != nil {
			slog.Warn("failed to close isolate box", "box", box.Id(), "error", err)
		}
	}()

	cmd, err := box.Command(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to create isolate command: %w", err)
	}
	slog.Debug("running isolate command", "cmd", cmd.String())

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	var stdout, stderr []byte
	g := new(errgroup.Group)
	g.Go(func() error {
		stdin := cmd.Stdin()
		defer stdin.Close()
		// the program may exit without reading its input
		if _, err := stdin.Write(spec.Stdin); err != nil {
			slog.Debug("stdin write interrupted", "error", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		stdout, err = r.capture(cmd.Stdout())
		if err != nil {
			return fmt.Errorf("failed to read stdout: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		stderr, err = r.capture(cmd.Stderr())
		if err != nil {
			return fmt.Errorf("failed to read stderr: %w", err)
		}
		return nil
	})
	readErr := g.Wait()

	metrics, err := cmd.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to wait for process: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}
	if metrics.Status == StatusInternalError {
		return nil, fmt.Errorf("isolate internal error: %s", metrics.Message)
	}

	outcome := metrics.Outcome()
	outcome.Stdout = stdout
	outcome.Stderr = stderr
	return outcome, nil
}

// capture keeps at most maxCapture bytes and drains the rest, so that a
// chatty program never blocks on a full pipe.
func (r *Runner) capture(rd io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(rd, r.maxCapture)); err != nil {
		return nil, err
	}
	if _, err := io.Copy(io.Discard, rd); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
