package api

// Runtime data size constraints
const (
	MaxRuntimeDataHeight = 40
	MaxRuntimeDataWidth  = 80
)

// RuntimeData contains execution information for a process
type RuntimeData struct {
	Stdout   string `json:"out"`
	Stderr   string `json:"err"`
	ExitCode int64  `json:"exit"`

	CpuMillis     int64 `json:"cpu_ms"`
	WallMillis    int64 `json:"wall_ms"`
	MemoryKiBytes int64 `json:"mem_kib"`

	ExitSignal    *int64  `json:"signal"`
	IsolateStatus *string `json:"isolate_status"`
	IsolateMsg    *string `json:"isolate_msg"`
}

// NewRuntimeData trims the captured output to the wire limits.
func NewRuntimeData(stdout, stderr []byte, exitCode int64, exitSignal *int64,
	cpuMillis, wallMillis, memKiB int64, status, msg string) *RuntimeData {
	rd := &RuntimeData{
		Stdout:        TrimStrToRect(string(stdout), MaxRuntimeDataHeight, MaxRuntimeDataWidth),
		Stderr:        TrimStrToRect(string(stderr), MaxRuntimeDataHeight, MaxRuntimeDataWidth),
		ExitCode:      exitCode,
		CpuMillis:     cpuMillis,
		WallMillis:    wallMillis,
		MemoryKiBytes: memKiB,
		ExitSignal:    exitSignal,
	}
	if status != "" {
		rd.IsolateStatus = &status
	}
	if msg != "" {
		rd.IsolateMsg = &msg
	}
	return rd
}
