package incident

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File names inside an incident directory.
const (
	ProcessFname  = "process.json"
	ExecutorFname = "executor.json"
	ResultFname   = "result.json"
)

// Artifacts is what gets preserved about one unexplained failure.
type Artifacts struct {
	// Prefix starts the directory name, e.g. the executor id.
	Prefix string
	// CodePath is the host path of the submission artifact, copied in as CodeFname.
	CodePath  string
	CodeFname string

	Process  any
	Executor any
	Result   any
}

// Recorder writes incident directories under a base directory.
type Recorder struct {
	baseDir string
}

// NewRecorder uses the system temp directory when baseDir is empty.
func NewRecorder(baseDir string) *Recorder {
	return &Recorder{baseDir: baseDir}
}

func (r *Recorder) BaseDir() string {
	if r.baseDir == "" {
		return os.TempDir()
	}
	return r.baseDir
}

// Record creates a fresh directory and fills it. Every file is attempted
// even if an earlier one failed, and the directory path is returned
// whenever it was created.
func (r *Recorder) Record(a Artifacts) (string, error) {
	err := os.MkdirAll(r.BaseDir(), 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create incident base directory: %w", err)
	}

	dir, err := os.MkdirTemp(r.BaseDir(), a.Prefix+"-")
	if err != nil {
		return "", fmt.Errorf("failed to create incident directory: %w", err)
	}

	var errs []error
	if a.CodePath != "" {
		err = copyFile(a.CodePath, filepath.Join(dir, a.CodeFname))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to copy submission artifact: %w", err))
		}
	}

	records := []struct {
		fname string
		value any
	}{
		{ProcessFname, a.Process},
		{ExecutorFname, a.Executor},
		{ResultFname, a.Result},
	}
	for _, rec := range records {
		b, err := json.MarshalIndent(rec.value, "", "  ")
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to marshal %s: %w", rec.fname, err))
			continue
		}
		err = os.WriteFile(filepath.Join(dir, rec.fname), b, 0644)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to write %s: %w", rec.fname, err))
		}
	}

	return dir, errors.Join(errs...)
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
