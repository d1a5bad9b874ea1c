package verdict

import "github.com/programme-lv/executor/internal/sandbox"

// Classifier turns a sandbox outcome into result flags.
type Classifier struct {
	report SelfReport
}

// NewClassifier returns a classifier for a runtime with the given
// self-report protocol; nil means the runtime has none.
func NewClassifier(report SelfReport) *Classifier {
	if report == nil {
		report = noReport{}
	}
	return &Classifier{report: report}
}

// Unexplained reports a failed run that neither a limit nor the runtime's
// own report accounts for. Only runtimes with a self-report protocol can
// produce one; such runs must be escalated instead of classified.
func (c *Classifier) Unexplained(o *sandbox.Outcome) bool {
	if _, none := c.report.(noReport); none {
		return false
	}
	ambiguous := (o.IsIR() || o.IsRTE()) && !o.LimitExceeded()
	return ambiguous && !c.report.Reported(o.Stderr)
}

// Classify never fails. Limit flags are independent of each other and of
// a self-reported runtime error, which is added even when a limit was hit
// in the same run. A plain crash is only a runtime error when no limit
// explains it.
func (c *Classifier) Classify(o *sandbox.Outcome) Flags {
	var flags Flags
	if o.IsTLE() {
		flags |= TimeLimitExceeded
	}
	if o.IsMLE() {
		flags |= MemoryLimitExceeded
	}
	if o.IsOLE() {
		flags |= OutputLimitExceeded
	}

	if (o.IsIR() || o.IsRTE()) && !o.LimitExceeded() {
		flags |= RuntimeError
	}
	if o.IsIR() && c.report.Reported(o.Stderr) {
		flags |= RuntimeError
	}

	if flags == 0 {
		flags = Accepted
	}
	return flags
}
