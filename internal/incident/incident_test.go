package incident

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	base := t.TempDir()
	code := filepath.Join(t.TempDir(), "main.sb3")
	require.NoError(t, os.WriteFile(code, []byte("PK\x03\x04"), 0644))

	r := NewRecorder(filepath.Join(base, "incidents"))
	a := Artifacts{
		Prefix:    "SCRATCH",
		CodePath:  code,
		CodeFname: "code.sb3",
		Process:   map[string]int{"exit_code": 1},
		Executor:  map[string]string{"id": "SCRATCH"},
		Result:    map[string]string{"problem": "aplusb"},
	}

	dir1, err := r.Record(a)
	require.NoError(t, err)
	dir2, err := r.Record(a)
	require.NoError(t, err)
	assert.NotEqual(t, dir1, dir2)
	assert.True(t, strings.HasPrefix(filepath.Base(dir1), "SCRATCH-"))

	for _, fname := range []string{"code.sb3", ProcessFname, ExecutorFname, ResultFname} {
		assert.FileExists(t, filepath.Join(dir1, fname))
	}

	b, err := os.ReadFile(filepath.Join(dir1, ProcessFname))
	require.NoError(t, err)
	assert.JSONEq(t, `{"exit_code":1}`, string(b))
}

func TestRecordFailures(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := NewRecorder(blocker).Record(Artifacts{Prefix: "x"})
	require.Error(t, err)

	dir, err := NewRecorder(t.TempDir()).Record(Artifacts{
		Prefix:    "x",
		CodePath:  filepath.Join(t.TempDir(), "missing.sb3"),
		CodeFname: "code.sb3",
		Process:   map[string]int{"exit_code": 139},
	})
	require.ErrorContains(t, err, "failed to copy submission artifact")
	assert.DirExists(t, dir)
	assert.NoFileExists(t, filepath.Join(dir, "code.sb3"))
	for _, fname := range []string{ProcessFname, ExecutorFname, ResultFname} {
		assert.FileExists(t, filepath.Join(dir, fname))
	}
	b, err := os.ReadFile(filepath.Join(dir, ProcessFname))
	require.NoError(t, err)
	assert.JSONEq(t, `{"exit_code":139}`, string(b))
}

type fakePublisher struct {
	subject string
	data    []byte
}

func (f *fakePublisher) Publish(subj string, data []byte) error {
	f.subject = subj
	f.data = data
	return nil
}

type fakeSqs struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSqs) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	return &sqs.SendMessageOutput{}, f.err
}

func TestNotifiers(t *testing.T) {
	stderr := strings.Repeat("e", 150) + "\n" + strings.Repeat("line\n", 20)
	r := NewReport("SCRATCH", "aplusb", "/tmp/SCRATCH-1", 1, []byte(stderr))
	assert.NotEmpty(t, r.ID)
	lines := strings.Split(r.Stderr, "\n")
	assert.Len(t, lines, maxStderrHeight+1)
	assert.Equal(t, strings.Repeat("e", maxStderrWidth)+"[...]", lines[0])

	pub := &fakePublisher{}
	require.NoError(t, NewNatsNotifier(pub, "executor.incidents").Notify(t.Context(), r))
	assert.Equal(t, "executor.incidents", pub.subject)
	var got Report
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, r.Dir, got.Dir)

	q := &fakeSqs{}
	require.NoError(t, NewSqsNotifier(q, "https://sqs.example/incidents").Notify(t.Context(), r))
	assert.Equal(t, "https://sqs.example/incidents", *q.input.QueueUrl)
	assert.Contains(t, *q.input.MessageBody, `"executor":"SCRATCH"`)

	q.err = errors.New("throttled")
	require.Error(t, NewSqsNotifier(q, "u").Notify(t.Context(), r))

	require.NoError(t, LogNotifier{}.Notify(t.Context(), r))
}

func TestNotifiersFanOut(t *testing.T) {
	r := NewReport("SCRATCH", "aplusb", "/tmp/SCRATCH-1", 1, nil)
	pub := &fakePublisher{}
	q := &fakeSqs{err: errors.New("throttled")}

	err := Notifiers{LogNotifier{}, NewSqsNotifier(q, "u"), NewNatsNotifier(pub, "incidents")}.Notify(t.Context(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.Equal(t, "incidents", pub.subject)

	assert.NoError(t, Notifiers{}.Notify(t.Context(), r))
}
