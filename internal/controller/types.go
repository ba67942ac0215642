package controller

import (
	"context"
	"io"
	"strings"

	"github.com/ziadkadry99/esp-finder/internal/client"
)

// State is the position of the controller in one upload/process cycle.
type State int

const (
	StateIdle State = iota
	StateFileSelected
	StateUploaded
	StateProcessing
	StatePolling
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileSelected:
		return "file-selected"
	case StateUploaded:
		return "uploaded"
	case StateProcessing:
		return "processing"
	case StatePolling:
		return "polling"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// AlertKind selects how an alert is styled.
type AlertKind string

const (
	AlertDanger  AlertKind = "danger"
	AlertSuccess AlertKind = "success"
)

// Alert is a message shown in a result area. Lines are rendered one per row.
type Alert struct {
	Kind  AlertKind
	Lines []string
}

// Text joins the alert lines with newlines.
func (a Alert) Text() string {
	return strings.Join(a.Lines, "\n")
}

// View is everything the controller draws on. Implementations own their
// widgets; the controller never reaches past this interface.
type View interface {
	// Init prepares the view and writes the footer year.
	Init(year int)
	// SetFileName sets the selected-file label.
	SetFileName(label string)
	// SetColumns replaces the column selector options.
	SetColumns(columns []string)
	// ShowColumnSelection reveals the column selector and process button.
	ShowColumnSelection()
	// ShowProgress reveals the progress container.
	ShowProgress()
	// SetProgress sets the progress bar width in percent.
	SetProgress(percent float64)
	// HideProgress hides the progress container.
	HideProgress()
	// ShowResult replaces the content of the upload result area.
	ShowResult(a Alert)
	// ShowDownloadLink clears the upload result area and shows a link.
	ShowDownloadLink(label, href string)
	// ShowSingleResult replaces the content of the single-email result area.
	ShowSingleResult(a Alert)
}

// Backend is the server API the controller drives. *client.Client satisfies it.
type Backend interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*client.UploadResult, error)
	Process(ctx context.Context, filePath, emailColumn string) (*client.ProcessResult, error)
	Progress(ctx context.Context, taskID string) (*client.ProgressResult, error)
	Identify(ctx context.Context, email string) (*client.IdentifyResult, error)
	DownloadURL(name string) string
	Download(ctx context.Context, name string, w io.Writer) (int64, error)
}
