package executor

import (
	_ "embed"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/programme-lv/executor/internal/verdict"
)

//go:embed executors.toml
var defaultExecutorsToml []byte

// Config declares how one language is compiled, validated and run.
type Config struct {
	ID      string `toml:"id" json:"id"`
	Name    string `toml:"name" json:"name"`
	Extends string `toml:"extends" json:"extends,omitempty"`
	Ext     string `toml:"ext" json:"ext"`

	// Command names the runtime; CommandPaths are looked up on the host
	// in order and the first hit is used.
	Command      string   `toml:"command" json:"command"`
	CommandPaths []string `toml:"command_paths" json:"command_paths"`

	Std     string   `toml:"std" json:"std,omitempty"`
	Defines []string `toml:"defines" json:"defines,omitempty"`
	// ExtraDefines are put in front of the base defines when extending.
	ExtraDefines []string `toml:"extra_defines" json:"-"`
	Flags        []string `toml:"flags" json:"flags,omitempty"`
	Compile      bool     `toml:"compile" json:"compile"`

	ExtraFs   []string `toml:"extra_fs" json:"extra_fs,omitempty"`
	FsRuntime bool     `toml:"fs_runtime" json:"fs_runtime"`

	// Nproc of 0 allows a single process, a negative value lifts the limit.
	Nproc    int   `toml:"nproc" json:"nproc"`
	FsizeKiB int64 `toml:"fsize_kib" json:"fsize_kib"`

	TestProgram    string `toml:"test_program" json:"-"`
	TestProgramURL bool   `toml:"test_program_url" json:"test_program_url"`

	SelfReportMarker string `toml:"self_report_marker" json:"self_report_marker,omitempty"`
	SelfReportPrefix string `toml:"self_report_prefix" json:"self_report_prefix,omitempty"`
	FeedbackCap      int    `toml:"feedback_cap" json:"feedback_cap"`

	Preflight *Preflight `toml:"preflight" json:"preflight,omitempty"`
}

// Preflight is a cheap check run on the submission before it is accepted.
type Preflight struct {
	Args      []string `toml:"args" json:"args"`
	TimeSec   float64  `toml:"time_sec" json:"time_sec"`
	MemoryKiB int64    `toml:"memory_kib" json:"memory_kib"`
	// InvalidMarker on stderr with exit code 1 means the file is malformed.
	InvalidMarker string `toml:"invalid_marker" json:"invalid_marker"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Ext, validation.Required),
		validation.Field(&c.Command, validation.Required),
		validation.Field(&c.CommandPaths, validation.Required),
		validation.Field(&c.Std, validation.When(c.Compile, validation.Required)),
		validation.Field(&c.FeedbackCap, validation.Min(1)),
		validation.Field(&c.Preflight),
	)
}

func (p Preflight) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Args, validation.Required),
		validation.Field(&p.TimeSec, validation.Required, validation.Min(0.0)),
		validation.Field(&p.MemoryKiB, validation.Required, validation.Min(1)),
	)
}

// SelfReport returns the runtime's self-report predicate, nil if it has none.
func (c Config) SelfReport() verdict.SelfReport {
	if c.SelfReportMarker == "" {
		return nil
	}
	return verdict.SubstringReport{Marker: c.SelfReportMarker, Prefix: c.SelfReportPrefix}
}

func (c Config) maxProcesses() int {
	if c.Nproc == 0 {
		return 1
	}
	return c.Nproc
}

type configFile struct {
	Executors []Config `toml:"executors"`
}

// DefaultConfigs returns the built-in executors.
func DefaultConfigs() ([]Config, error) {
	return ParseConfigs(defaultExecutorsToml)
}

// LoadConfigs reads executors from path, or the built-in ones when path is empty.
func LoadConfigs(path string) ([]Config, error) {
	if path == "" {
		return DefaultConfigs()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read executors file: %w", err)
	}
	return ParseConfigs(data)
}

// ParseConfigs decodes a TOML document, resolves extends and validates
// every resulting config.
func ParseConfigs(data []byte) ([]Config, error) {
	var file configFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	byID := make(map[string]Config, len(file.Executors))
	for _, c := range file.Executors {
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate executor id: %s", c.ID)
		}
		byID[c.ID] = c
	}

	resolved := make([]Config, 0, len(file.Executors))
	for _, c := range file.Executors {
		eff, err := resolveExtends(c, byID, map[string]bool{})
		if err != nil {
			return nil, err
		}
		if eff.FeedbackCap == 0 {
			eff.FeedbackCap = verdict.DefaultFeedbackCap
		}
		if err := eff.Validate(); err != nil {
			return nil, fmt.Errorf("executor %q: %w", c.ID, err)
		}
		resolved = append(resolved, eff)
	}
	return resolved, nil
}

func resolveExtends(c Config, byID map[string]Config, visiting map[string]bool) (Config, error) {
	if c.Extends == "" {
		c.Defines = append(append([]string{}, c.ExtraDefines...), c.Defines...)
		c.ExtraDefines = nil
		return c, nil
	}
	if visiting[c.ID] {
		return Config{}, fmt.Errorf("executor %q is part of an extends cycle", c.ID)
	}
	visiting[c.ID] = true

	raw, ok := byID[c.Extends]
	if !ok {
		return Config{}, fmt.Errorf("executor %q extends unknown executor %q", c.ID, c.Extends)
	}
	base, err := resolveExtends(raw, byID, visiting)
	if err != nil {
		return Config{}, err
	}
	return overlay(base, c), nil
}

// overlay starts from base and takes every field child sets. Defines and
// filesystem additions are composed, not replaced.
func overlay(base Config, child Config) Config {
	eff := base
	eff.ID = child.ID
	eff.Extends = child.Extends
	if child.Name != "" {
		eff.Name = child.Name
	}
	if child.Ext != "" {
		eff.Ext = child.Ext
	}
	if child.Command != "" {
		eff.Command = child.Command
	}
	if child.CommandPaths != nil {
		eff.CommandPaths = child.CommandPaths
	}
	if child.Std != "" {
		eff.Std = child.Std
	}
	if child.Defines != nil {
		eff.Defines = child.Defines
	}
	eff.Defines = append(append([]string{}, child.ExtraDefines...), eff.Defines...)
	eff.ExtraDefines = nil
	if child.Flags != nil {
		eff.Flags = child.Flags
	}
	eff.Compile = base.Compile || child.Compile
	eff.ExtraFs = append(append([]string{}, base.ExtraFs...), child.ExtraFs...)
	eff.FsRuntime = base.FsRuntime || child.FsRuntime
	if child.Nproc != 0 {
		eff.Nproc = child.Nproc
	}
	if child.FsizeKiB != 0 {
		eff.FsizeKiB = child.FsizeKiB
	}
	if child.TestProgram != "" {
		eff.TestProgram = child.TestProgram
		eff.TestProgramURL = child.TestProgramURL
	}
	if child.SelfReportMarker != "" {
		eff.SelfReportMarker = child.SelfReportMarker
		eff.SelfReportPrefix = child.SelfReportPrefix
	}
	if child.FeedbackCap != 0 {
		eff.FeedbackCap = child.FeedbackCap
	}
	if child.Preflight != nil {
		eff.Preflight = child.Preflight
	}
	return eff
}
