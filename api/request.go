package api

// ExecReq asks for one submission to be run once.
type ExecReq struct {
	ExecUuid string `json:"exec_uuid"`

	Executor  string `json:"executor"`
	ProblemID string `json:"problem_id"`
	// Code is the source, or a reference to it when FileOnly is set.
	Code             string `json:"code"`
	FileOnly         bool   `json:"file_only"`
	FileSizeLimitMiB int    `json:"file_size_limit_mib"`

	Stdin string `json:"stdin"`

	CpuMillis int   `json:"cpu_millis"`
	MemoryKiB int64 `json:"memory_kib"`
}
