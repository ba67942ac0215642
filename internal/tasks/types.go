package tasks

import "time"

// Status is the lifecycle state of a processing task.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// FailedProgress is the progress value reported for a failed task.
const FailedProgress = -1

// Task is one ESP identification run over an uploaded file.
type Task struct {
	ID          string    `json:"id"`
	FilePath    string    `json:"file_path"`
	EmailColumn string    `json:"email_column"`
	Progress    float64   `json:"progress"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	OutputName  string    `json:"output_name,omitempty"`
	TotalRows   int       `json:"total_rows"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
