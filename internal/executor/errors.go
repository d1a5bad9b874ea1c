package executor

import "errors"

// Kind tells who is to blame for a failed judged attempt.
type Kind int

const (
	// SubmitterError is shown to the user: invalid submission, compile error.
	SubmitterError Kind = iota + 1
	// InfrastructureError is escalated to operators.
	InfrastructureError
)

func (k Kind) String() string {
	switch k {
	case SubmitterError:
		return "compile_error"
	case InfrastructureError:
		return "internal_error"
	}
	return "none"
}

// Error is the only error type the executor returns from Prepare and Run.
type Error struct {
	Kind    Kind
	Message string
	// ArtifactDir is set when debug artifacts were captured.
	ArtifactDir string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func CompileError(msg string) *Error {
	return &Error{Kind: SubmitterError, Message: msg}
}

func InternalError(msg string, err error) *Error {
	return &Error{Kind: InfrastructureError, Message: msg, Err: err}
}

// KindOf classifies any error; errors not produced by this package are
// infrastructure errors.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InfrastructureError
}
