package behave

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/programme-lv/executor/api"
)

// SpecLimits describes resource limits for a scenario request
type SpecLimits struct {
	CpuMs     int   `toml:"cpu_ms"`
	MemoryKiB int64 `toml:"memory_kib"`
}

// SpecRequest represents a request block inside a scenario entry
type SpecRequest struct {
	Executor  string     `toml:"executor"`
	ProblemID string     `toml:"problem_id"`
	Code      string     `toml:"code"`
	FileOnly  bool       `toml:"file_only"`
	Stdin     string     `toml:"stdin"`
	Limits    SpecLimits `toml:"limits"`
}

// SpecExpect describes the expected response. Unset fields are not checked.
type SpecExpect struct {
	Status        string   `toml:"status"`
	Flags         []string `toml:"flags"`
	Feedback      *string  `toml:"feedback"`
	Stdout        *string  `toml:"stdout"`
	ErrorContains string   `toml:"error_contains"`
}

// specSuite maps to [[scenarios]] entries. The request is written as an
// array-of-table so we model it as a slice and use the first element.
type specSuite struct {
	Description string        `toml:"description"`
	RequestAOT  []SpecRequest `toml:"request"`
	Expect      SpecExpect    `toml:"expect"`
}

type specRoot struct {
	Suites []specSuite `toml:"scenarios"`
}

// Case is a runnable scenario converted from TOML
type Case struct {
	Name    string
	Request api.ExecReq
	Expect  SpecExpect
}

// Parse reads a behaviour TOML file and converts it to runnable cases
func Parse(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read behaviour file: %w", err)
	}
	return ParseBytes(data)
}

func ParseBytes(data []byte) ([]Case, error) {
	var root specRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cases := make([]Case, 0, len(root.Suites))
	for _, suite := range root.Suites {
		if len(suite.RequestAOT) == 0 {
			return nil, fmt.Errorf("scenario %q is missing request block", suite.Description)
		}
		reqSpec := suite.RequestAOT[0]
		if reqSpec.Executor == "" {
			return nil, fmt.Errorf("scenario %q has no executor", suite.Description)
		}
		if suite.Expect.Status == "" {
			return nil, fmt.Errorf("scenario %q has no expected status", suite.Description)
		}

		// Apply limits with sensible defaults if not provided
		cpuMs := reqSpec.Limits.CpuMs
		if cpuMs == 0 {
			cpuMs = 2000
		}
		memKiB := reqSpec.Limits.MemoryKiB
		if memKiB == 0 {
			memKiB = 256 * 1024
		}
		problem := reqSpec.ProblemID
		if problem == "" {
			problem = "main"
		}

		cases = append(cases, Case{
			Name: suite.Description,
			Request: api.ExecReq{
				ExecUuid:  uuid.NewString(),
				Executor:  reqSpec.Executor,
				ProblemID: problem,
				Code:      reqSpec.Code,
				FileOnly:  reqSpec.FileOnly,
				Stdin:     reqSpec.Stdin,
				CpuMillis: cpuMs,
				MemoryKiB: memKiB,
			},
			Expect: suite.Expect,
		})
	}

	return cases, nil
}

// Check compares a response with the expectation and describes every mismatch.
func (e SpecExpect) Check(resp api.ExecResponse) error {
	var diffs []string
	if string(resp.Status) != e.Status {
		diffs = append(diffs, fmt.Sprintf("status %s, want %s", resp.Status, e.Status))
	}
	if e.Flags != nil {
		got := slices.Sorted(slices.Values(resp.Flags))
		want := slices.Sorted(slices.Values(e.Flags))
		if !slices.Equal(got, want) {
			diffs = append(diffs, fmt.Sprintf("flags %v, want %v", got, want))
		}
	}
	if e.Feedback != nil && resp.Feedback != *e.Feedback {
		diffs = append(diffs, fmt.Sprintf("feedback %q, want %q", resp.Feedback, *e.Feedback))
	}
	if e.Stdout != nil {
		got := ""
		if resp.Runtime != nil {
			got = resp.Runtime.Stdout
		}
		if strings.TrimSpace(got) != strings.TrimSpace(*e.Stdout) {
			diffs = append(diffs, fmt.Sprintf("stdout %q, want %q", got, *e.Stdout))
		}
	}
	if e.ErrorContains != "" {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		if !strings.Contains(msg, e.ErrorContains) {
			diffs = append(diffs, fmt.Sprintf("error %q does not contain %q", msg, e.ErrorContains))
		}
	}

	if len(diffs) > 0 {
		return fmt.Errorf("%s", strings.Join(diffs, "; "))
	}
	return nil
}
