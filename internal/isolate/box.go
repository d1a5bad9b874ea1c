package isolate

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/programme-lv/executor/internal/sandbox"
)

type Box struct {
	id      int
	path    string
	isolate *Isolate
}

func newIsolateBox(isolate *Isolate, id int, path string) *Box {
	return &Box{
		id:      id,
		path:    path,
		isolate: isolate,
	}
}

func (box *Box) Id() int {
	return box.id
}

func (box *Box) Path() string {
	return box.path
}

func (box *Box) Close() error {
	return box.isolate.eraseBox(box.id)
}

// Command prepares, but does not start, an isolate invocation of spec
// inside the box.
func (box *Box) Command(ctx context.Context, spec sandbox.Spec) (*Cmd, error) {
	if len(spec.Args) == 0 {
		return nil, fmt.Errorf("empty argument vector")
	}
	if spec.Executable == "" {
		return nil, fmt.Errorf("executable of %q is not resolved", spec.Args[0])
	}

	metaFilePath, err := newTempIsolateFilePath()
	if err != nil {
		return nil, err
	}

	constraints := ConstraintsFromLimits(spec.Limits)
	args := runArgs(box.id, metaFilePath, constraints, spec)

	return &Cmd{
		cmd:          exec.CommandContext(ctx, box.isolate.bin, args...),
		metaFilePath: metaFilePath,
		Constraints:  constraints,
	}, nil
}

// runArgs builds the isolate argument list. The work directory is bound
// at its host path so that paths handed to the program (including the
// environment) mean the same thing inside and outside the box.
func runArgs(boxId int, metaFilePath string, constraints Constraints, spec sandbox.Spec) []string {
	args := []string{
		"--cg",
		fmt.Sprintf("--box-id=%d", boxId),
		"--silent",
		"--meta=" + metaFilePath,
	}
	args = append(args, constraints.ToArgs()...)

	if spec.WorkDir != "" {
		args = append(args,
			fmt.Sprintf("--dir=%s=%s:rw", spec.WorkDir, spec.WorkDir),
			"--chdir="+spec.WorkDir,
		)
	}
	for _, dir := range spec.Dirs {
		args = append(args, fmt.Sprintf("--dir=%s=%s:maybe", dir, dir))
	}

	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, fmt.Sprintf("--env=%s=%s", k, spec.Env[k]))
	}

	args = append(args, "--run", "--", spec.Executable)
	args = append(args, spec.Args[1:]...)
	return args
}

func newTempIsolateFilePath() (string, error) {
	file, err := os.CreateTemp("", "isolate.*.txt")
	if err != nil {
		return "", err
	}
	err = file.Close()
	if err != nil {
		return "", err
	}
	return file.Name(), nil
}
