package sandbox

// Outcome is what a Runner reports about one finished process.
type Outcome struct {
	ExitCode   int64  `json:"exit_code"`
	ExitSignal *int64 `json:"exit_signal"`

	TimedOut       bool `json:"timed_out"`
	MemoryExceeded bool `json:"memory_exceeded"`
	OutputExceeded bool `json:"output_exceeded"`

	Stdout []byte `json:"stdout"`
	Stderr []byte `json:"stderr"`

	CpuMillis  int64 `json:"cpu_ms"`
	WallMillis int64 `json:"wall_ms"`
	MemoryKiB  int64 `json:"mem_kib"`

	// Status and Message are the raw verdict of the sandbox tool.
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (o *Outcome) IsTLE() bool {
	return o.TimedOut
}

func (o *Outcome) IsMLE() bool {
	return o.MemoryExceeded
}

func (o *Outcome) IsOLE() bool {
	return o.OutputExceeded
}

// IsIR reports an invalid return: the process exited on its own with a
// non-zero exit code.
func (o *Outcome) IsIR() bool {
	return o.ExitSignal == nil && o.ExitCode != 0
}

// IsRTE reports a process killed by a signal that no limit accounts for.
func (o *Outcome) IsRTE() bool {
	return o.ExitSignal != nil && !o.OutputExceeded && !o.MemoryExceeded && !o.TimedOut
}

// LimitExceeded is true when any resource ceiling was hit.
func (o *Outcome) LimitExceeded() bool {
	return o.TimedOut || o.MemoryExceeded || o.OutputExceeded
}
