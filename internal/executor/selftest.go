package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/programme-lv/executor/internal/sandbox"
)

const testMessage = "echo: Hello, World!"

var testLimits = sandbox.Limits{
	CpuTimeSec: 10,
	MemoryKiB:  262144,
}

// SelfTest prepares the executor's test program and checks that it echoes
// its input. output is what the program printed, for diagnosing a failure.
// err is only set when the test could not be carried out at all.
func (e *Executor) SelfTest(ctx context.Context) (ok bool, output string, err error) {
	sub, err := NewSubmission(TestName, []byte(e.cfg.TestProgram), Meta{})
	if err != nil {
		return false, "", err
	}

	p, err := e.Prepare(ctx, sub)
	if err != nil {
		return false, "", fmt.Errorf("failed to prepare test program: %w", err)
	}
	defer p.Close()

	res, err := p.Run(ctx, []byte(testMessage+"\n"), testLimits)
	if err != nil {
		return false, "", fmt.Errorf("failed to run test program: %w", err)
	}

	stdout := strings.TrimSpace(string(res.Outcome.Stdout))
	stderr := string(res.Outcome.Stderr)
	ok = stdout == testMessage && stderr == ""
	return ok, stdout + stderr, nil
}
