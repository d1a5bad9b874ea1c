package behave

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/executor/api"
)

func TestParse(t *testing.T) {
	cases, err := Parse(filepath.Join("testdata", "scenarios.toml"))
	require.NoError(t, err)
	require.Len(t, cases, 5)

	echo := cases[0]
	assert.Equal(t, "C++ echo is accepted", echo.Name)
	assert.Equal(t, "CPP20", echo.Request.Executor)
	assert.Equal(t, "echo", echo.Request.ProblemID)
	assert.Equal(t, "42\n", echo.Request.Stdin)
	assert.Equal(t, 2000, echo.Request.CpuMillis)
	assert.Equal(t, int64(262144), echo.Request.MemoryKiB)
	assert.NotEmpty(t, echo.Request.ExecUuid)
	assert.Equal(t, []string{"AC"}, echo.Expect.Flags)
	require.NotNil(t, echo.Expect.Stdout)
	assert.Nil(t, echo.Expect.Feedback)

	assert.Equal(t, "main", cases[1].Request.ProblemID)
	assert.Equal(t, 500, cases[3].Request.CpuMillis)
	require.NotNil(t, cases[2].Expect.Feedback)
	assert.Empty(t, *cases[2].Expect.Feedback)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(filepath.Join("testdata", "missing.toml"))
	assert.Error(t, err)

	_, err = ParseBytes([]byte("[[scenarios]]\ndescription = \"x\""))
	assert.ErrorContains(t, err, "missing request block")

	_, err = ParseBytes([]byte("[[scenarios]]\ndescription = \"x\"\n[[scenarios.request]]\nexecutor = \"CPP20\""))
	assert.ErrorContains(t, err, "no expected status")
}

func TestCheck(t *testing.T) {
	out := "42"
	empty := ""
	expect := SpecExpect{Status: "success", Flags: []string{"TLE", "RTE"}, Feedback: &empty, Stdout: &out}

	resp := api.ExecResponse{
		Status:  api.Success,
		Flags:   []string{"RTE", "TLE"},
		Runtime: &api.RuntimeData{Stdout: "42\n"},
	}
	assert.NoError(t, expect.Check(resp))

	resp.Flags = []string{"TLE"}
	resp.Feedback = "bad opcode"
	err := expect.Check(resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flags")
	assert.Contains(t, err.Error(), "feedback")

	msg := "Not a valid Scratch file"
	ce := SpecExpect{Status: "compile_error", ErrorContains: "valid Scratch"}
	assert.NoError(t, ce.Check(api.ExecResponse{Status: api.CompileError, ErrorMessage: &msg}))
	assert.Error(t, ce.Check(api.ExecResponse{Status: api.CompileError}))
}
