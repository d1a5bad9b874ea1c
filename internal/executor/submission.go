package executor

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TestName is the problem id under which self-tests run.
const TestName = "self_test"

const DefaultFileSizeLimitMiB = 1

var problemIDPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// Meta holds the optional behaviours of a submission.
type Meta struct {
	// FileOnly means Source is a reference (URL) to the actual file.
	FileOnly bool
	// FileSizeLimitMiB caps a fetched file, defaults to 1.
	FileSizeLimitMiB int
}

// Submission is one judged attempt. Build it with NewSubmission.
type Submission struct {
	problemID string
	source    []byte
	meta      Meta
}

func NewSubmission(problemID string, source []byte, meta Meta) (Submission, error) {
	if meta.FileSizeLimitMiB == 0 {
		meta.FileSizeLimitMiB = DefaultFileSizeLimitMiB
	}
	err := validation.Errors{
		"problem_id":          validation.Validate(problemID, validation.Required, validation.Match(problemIDPattern)),
		"file_size_limit_mib": validation.Validate(meta.FileSizeLimitMiB, validation.Min(1)),
	}.Filter()
	if err != nil {
		return Submission{}, err
	}

	return Submission{
		problemID: problemID,
		source:    append([]byte(nil), source...),
		meta:      meta,
	}, nil
}

func (s Submission) ProblemID() string {
	return s.problemID
}

func (s Submission) Source() []byte {
	return append([]byte(nil), s.source...)
}

func (s Submission) Meta() Meta {
	return s.meta
}
