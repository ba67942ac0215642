package client

// UploadResult is the body returned by POST /upload.
type UploadResult struct {
	Columns  []string `json:"columns"`
	FilePath string   `json:"file_path"`
}

// ProcessResult is the body returned by POST /process.
type ProcessResult struct {
	TaskID string `json:"task_id"`
}

// ProgressResult is the body returned by GET /progress/{task_id}.
// Progress is a percentage; the server reports -1 for a failed task.
type ProgressResult struct {
	Progress float64 `json:"progress"`
}

// Done reports whether the task has finished.
func (p ProgressResult) Done() bool { return p.Progress >= 100 }

// Failed reports whether the server gave up on the task.
func (p ProgressResult) Failed() bool { return p.Progress < 0 }

// IdentifyResult is the body returned by POST /identify.
type IdentifyResult struct {
	Email string `json:"email"`
	ESP   string `json:"esp"`
}

type processRequest struct {
	FilePath    string `json:"file_path"`
	EmailColumn string `json:"email_column"`
}

type identifyRequest struct {
	Email string `json:"email"`
}

// errorBody captures the "error" field every endpoint may return.
type errorBody struct {
	Error string `json:"error"`
}
