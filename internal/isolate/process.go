package isolate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

type Cmd struct {
	cmd          *exec.Cmd
	stdin        io.WriteCloser
	stdout       io.ReadCloser
	stderr       io.ReadCloser
	started      bool
	metaFilePath string
	Constraints  Constraints
}

func (process *Cmd) String() string {
	return strings.Join(process.cmd.Args, " ")
}

// Start launches isolate. On failure the meta file is removed, since Wait
// will never be called.
func (process *Cmd) Start() (err error) {
	if process.started {
		panic("process should not be started twice")
	}
	process.started = true
	defer func() {
		if err != nil {
			os.Remove(process.metaFilePath)
		}
	}()

	process.stdin, err = process.cmd.StdinPipe()
	if err != nil {
		return err
	}

	process.stdout, err = process.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	process.stderr, err = process.cmd.StderrPipe()
	if err != nil {
		return err
	}
	return process.cmd.Start()
}

// Wait waits for isolate to exit and parses its meta file. The pipes must
// be drained before calling Wait.
func (process *Cmd) Wait() (*Metrics, error) {
	if !process.started {
		panic("process should be started before waiting")
	}
	defer os.Remove(process.metaFilePath)

	err := process.cmd.Wait()
	if err != nil {
		// isolate exits with 1 whenever the program fails, the details
		// are in the meta file
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
	}

	metaFileBytes, err := os.ReadFile(process.metaFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read meta file: %w", err)
	}

	metrics, err := parseMetaFile(metaFileBytes)
	if err != nil {
		return nil, err
	}

	return metrics, nil
}

func (process *Cmd) Stdin() io.WriteCloser {
	if process.stdin == nil {
		panic("process should be started before retrieving stdin")
	}
	return process.stdin
}

func (process *Cmd) Stdout() io.ReadCloser {
	if process.stdout == nil {
		panic("process should be started before retrieving stdout")
	}
	return process.stdout
}

func (process *Cmd) Stderr() io.ReadCloser {
	if process.stderr == nil {
		panic("process should be started before retrieving stderr")
	}
	return process.stderr
}
