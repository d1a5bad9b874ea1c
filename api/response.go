package api

type ExecStatus string

const (
	Success       ExecStatus = "success"
	CompileError  ExecStatus = "compile_error"
	InternalError ExecStatus = "internal_error"
)

// ExecResponse is a complete response for one judged run
type ExecResponse struct {
	ExecUuid string `json:"exec_uuid"`

	// Overall execution status
	Status ExecStatus `json:"status"`

	// Result flags (AC, RTE, TLE, MLE, OLE), empty unless Status is success
	Flags []string `json:"flags"`
	// Feedback is the runtime's own short error message
	Feedback string `json:"feedback,omitempty"`

	Runtime *RuntimeData `json:"runtime,omitempty"`

	// Error message for compile and internal errors
	ErrorMessage *string `json:"error_message,omitempty"`
	// ArtifactDir locates debug artifacts of an escalated failure
	ArtifactDir *string `json:"artifact_dir,omitempty"`

	StartTime   string `json:"start_time"`
	FinishTime  string `json:"finish_time"`
	TotalTimeMs int64  `json:"total_time_ms"`
}

// SelfTestResult reports the toolchain check of one executor
type SelfTestResult struct {
	Executor string  `json:"executor"`
	Ok       bool    `json:"ok"`
	Output   string  `json:"output,omitempty"`
	Error    *string `json:"error,omitempty"`
}
