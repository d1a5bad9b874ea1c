package verdict

import (
	"strings"
	"unicode/utf8"
)

const DefaultFeedbackCap = 50

// FeedbackExtractor derives a short display-safe message from stderr.
// It is only meaningful on raw stderr, never on its own output.
type FeedbackExtractor struct {
	report SelfReport
	cap    int
}

func NewFeedbackExtractor(report SelfReport, cap int) *FeedbackExtractor {
	if report == nil {
		report = noReport{}
	}
	if cap <= 0 {
		cap = DefaultFeedbackCap
	}
	return &FeedbackExtractor{report: report, cap: cap}
}

// Extract returns the runtime's self-reported message, or "" when there is
// none or when it is longer than the cap. Overlong reports are dropped,
// not truncated.
func (f *FeedbackExtractor) Extract(stderr []byte) string {
	if len(stderr) == 0 || !f.report.Reported(stderr) {
		return ""
	}
	msg := f.report.Strip(strings.ToValidUTF8(string(stderr), "�"))
	if utf8.RuneCountInString(msg) > f.cap {
		return ""
	}
	return msg
}
