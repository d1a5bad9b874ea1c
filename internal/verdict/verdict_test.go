package verdict_test

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/executor/internal/sandbox"
	"github.com/programme-lv/executor/internal/verdict"
)

var scratchReport = verdict.SubstringReport{Marker: "scratch-vm encountered an error"}

func signal(s int64) *int64 { return &s }

func TestClassify(t *testing.T) {
	scratch := verdict.NewClassifier(scratchReport)
	cpp := verdict.NewClassifier(nil)

	tests := []struct {
		name        string
		classifier  *verdict.Classifier
		outcome     sandbox.Outcome
		want        verdict.Flags
		unexplained bool
	}{
		{
			name:       "clean exit",
			classifier: scratch,
			outcome:    sandbox.Outcome{},
			want:       verdict.Accepted,
		},
		{
			name:       "timeout with killed process",
			classifier: scratch,
			outcome:    sandbox.Outcome{TimedOut: true, ExitSignal: signal(9)},
			want:       verdict.TimeLimitExceeded,
		},
		{
			name:       "timeout with unrelated stderr",
			classifier: scratch,
			outcome:    sandbox.Outcome{TimedOut: true, ExitCode: 1, Stderr: []byte("segfault")},
			want:       verdict.TimeLimitExceeded,
		},
		{
			name:       "timeout racing a self-reported error",
			classifier: scratch,
			outcome:    sandbox.Outcome{TimedOut: true, ExitCode: 1, Stderr: []byte("scratch-vm encountered an error: x")},
			want:       verdict.TimeLimitExceeded | verdict.RuntimeError,
		},
		{
			name:       "all limits at once",
			classifier: cpp,
			outcome:    sandbox.Outcome{TimedOut: true, MemoryExceeded: true, OutputExceeded: true, ExitSignal: signal(9)},
			want:       verdict.TimeLimitExceeded | verdict.MemoryLimitExceeded | verdict.OutputLimitExceeded,
		},
		{
			name:       "self-reported runtime error",
			classifier: scratch,
			outcome:    sandbox.Outcome{ExitCode: 1, Stderr: []byte("scratch-vm encountered an error: bad opcode")},
			want:       verdict.RuntimeError,
		},
		{
			name:        "non-zero exit without report",
			classifier:  scratch,
			outcome:     sandbox.Outcome{ExitCode: 1},
			want:        verdict.RuntimeError,
			unexplained: true,
		},
		{
			name:        "signal without report",
			classifier:  scratch,
			outcome:     sandbox.Outcome{ExitSignal: signal(11), Stderr: []byte("Segmentation fault")},
			want:        verdict.RuntimeError,
			unexplained: true,
		},
		{
			name:       "memory limit hides the missing report",
			classifier: scratch,
			outcome:    sandbox.Outcome{MemoryExceeded: true, ExitSignal: signal(9)},
			want:       verdict.MemoryLimitExceeded,
		},
		{
			name:       "compiled program crash",
			classifier: cpp,
			outcome:    sandbox.Outcome{ExitSignal: signal(6), Stderr: []byte("terminate called")},
			want:       verdict.RuntimeError,
		},
		{
			name:       "compiled program non-zero exit",
			classifier: cpp,
			outcome:    sandbox.Outcome{ExitCode: 3},
			want:       verdict.RuntimeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.classifier.Classify(&tt.outcome))
			assert.Equal(t, tt.unexplained, tt.classifier.Unexplained(&tt.outcome))
		})
	}
}

func TestClassifyTimeoutAlwaysFlagged(t *testing.T) {
	c := verdict.NewClassifier(scratchReport)
	for _, code := range []int64{0, 1, 2, 137} {
		for _, stderr := range []string{"", "scratch-vm encountered an error: x", "noise"} {
			o := sandbox.Outcome{TimedOut: true, ExitCode: code, Stderr: []byte(stderr)}
			assert.True(t, c.Classify(&o).Has(verdict.TimeLimitExceeded), "exit %d stderr %q", code, stderr)
			assert.False(t, c.Unexplained(&o))
		}
	}
}

func TestFeedbackExtract(t *testing.T) {
	f := verdict.NewFeedbackExtractor(scratchReport, verdict.DefaultFeedbackCap)

	assert.Equal(t, "", f.Extract(nil))
	assert.Equal(t, "bad opcode", f.Extract([]byte("scratch-vm encountered an error: bad opcode\n")))
	assert.Equal(t, "", f.Extract([]byte("Segmentation fault")))

	long := "scratch-vm encountered an error: " + strings.Repeat("x", 51)
	assert.Equal(t, "", f.Extract([]byte(long)))

	exact := "scratch-vm encountered an error: " + strings.Repeat("é", 50)
	assert.Equal(t, strings.Repeat("é", 50), f.Extract([]byte(exact)))

	invalid := []byte("scratch-vm encountered an error: \xff\xfe")
	got := f.Extract(invalid)
	assert.True(t, utf8.ValidString(got))
}

func TestFeedbackNeverExceedsCap(t *testing.T) {
	f := verdict.NewFeedbackExtractor(scratchReport, 10)
	for n := 0; n < 30; n++ {
		got := f.Extract([]byte("scratch-vm encountered an error: " + strings.Repeat("y", n)))
		assert.LessOrEqual(t, utf8.RuneCountInString(got), 10)
	}
}

func TestFeedbackWithoutProtocol(t *testing.T) {
	f := verdict.NewFeedbackExtractor(nil, 0)
	assert.Equal(t, "", f.Extract([]byte("terminate called after throwing")))
}

func TestFlagsString(t *testing.T) {
	assert.Equal(t, "AC", verdict.Accepted.String())
	assert.Equal(t, "RTE|TLE", (verdict.TimeLimitExceeded | verdict.RuntimeError).String())
	assert.Equal(t, "-", verdict.Flags(0).String())
	assert.False(t, verdict.Accepted.Failed())
	assert.True(t, verdict.InternalError.Failed())

	b, err := json.Marshal(verdict.MemoryLimitExceeded | verdict.OutputLimitExceeded)
	require.NoError(t, err)
	assert.JSONEq(t, `["MLE","OLE"]`, string(b))
}
