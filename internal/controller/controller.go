package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/esp-finder/internal/client"
)

const (
	// NoFileSelected is shown in place of a file name when nothing is selected.
	NoFileSelected = "No file selected"

	// DownloadLabel is the text of the result link.
	DownloadLabel = "Download Processed CSV"

	// ProcessingFailed is shown when the server marks a task as failed.
	ProcessingFailed = "Processing failed"
)

var (
	// ErrNotUploaded is returned by Process before a successful upload.
	ErrNotUploaded = errors.New("no uploaded file to process")

	// ErrNotComplete is returned by Download before processing has finished.
	ErrNotComplete = errors.New("processing has not completed")

	// ErrTaskFailed is returned when the server reports a failed task.
	ErrTaskFailed = errors.New("task failed on the server")
)

// Options tunes timing and I/O. Zero values select the defaults.
type Options struct {
	// PollInterval is the delay between progress polls. Default 1s.
	PollInterval time.Duration
	// HideDelay is how long the full bar stays visible. Default 500ms.
	HideDelay time.Duration
	// Now returns the current time; used for the footer year.
	Now func() time.Time
	// Open opens the selected file for upload.
	Open func(path string) (io.ReadCloser, error)
}

// Controller binds user actions to the backend and keeps the view in sync.
// It is not safe for concurrent use; actions run one at a time.
type Controller struct {
	backend Backend
	view    View
	opts    Options
	log     *logrus.Entry

	state        State
	selected     string
	upload       *client.UploadResult
	taskID       string
	downloadName string

	// processFn is registered by a successful upload.
	processFn func(ctx context.Context, column string) error
}

// New creates a Controller in the Idle state.
func New(backend Backend, view View, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.HideDelay < 0 {
		opts.HideDelay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Open == nil {
		opts.Open = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}
	return &Controller{
		backend: backend,
		view:    view,
		opts:    opts,
		log:     logrus.WithField("component", "controller"),
		state:   StateIdle,
	}
}

// State returns the current cycle state.
func (c *Controller) State() State { return c.state }

// FilePath returns the server-side path of the uploaded file, if any.
func (c *Controller) FilePath() string {
	if c.upload == nil {
		return ""
	}
	return c.upload.FilePath
}

// Columns returns the columns reported by the last successful upload.
func (c *Controller) Columns() []string {
	if c.upload == nil {
		return nil
	}
	return c.upload.Columns
}

// TaskID returns the identifier of the running or finished task.
func (c *Controller) TaskID() string { return c.taskID }

// DownloadName returns the result file name once processing is complete.
func (c *Controller) DownloadName() string { return c.downloadName }

func (c *Controller) setState(s State) {
	if s != c.state {
		c.log.WithFields(logrus.Fields{"from": c.state, "to": s}).Debug("state change")
	}
	c.state = s
}

// Init prepares the view and sets the footer year.
func (c *Controller) Init() {
	c.view.Init(c.opts.Now().Year())
}

// SelectFile records the file to upload and updates the file-name label.
// An empty path clears the selection.
func (c *Controller) SelectFile(path string) {
	c.selected = path
	name := NoFileSelected
	if path != "" {
		name = filepath.Base(path)
	}
	c.view.SetFileName("Selected file: " + name)

	if path == "" {
		c.setState(StateIdle)
	} else {
		c.setState(StateFileSelected)
	}
}

// Upload sends the selected file. On success the column selector is filled
// and the process trigger becomes available. A server-reported error is
// shown in the result area and returned.
func (c *Controller) Upload(ctx context.Context) error {
	c.processFn = nil
	c.upload = nil
	c.taskID = ""
	c.downloadName = ""

	var (
		r    io.Reader
		name string
	)
	if c.selected != "" {
		f, err := c.opts.Open(c.selected)
		if err != nil {
			c.setState(StateFailed)
			return fmt.Errorf("opening %s: %w", c.selected, err)
		}
		defer f.Close()
		r = f
		name = filepath.Base(c.selected)
	}

	res, err := c.backend.Upload(ctx, name, r)
	if err != nil {
		return c.fail(err, c.view.ShowResult)
	}

	c.upload = res
	c.view.SetColumns(res.Columns)
	c.view.ShowColumnSelection()
	c.processFn = c.process
	c.setState(StateUploaded)

	c.log.WithFields(logrus.Fields{
		"file_path": res.FilePath,
		"columns":   len(res.Columns),
	}).Info("file uploaded")
	return nil
}

// Process triggers server-side processing of column and polls until the
// task completes. It is only available after a successful Upload.
func (c *Controller) Process(ctx context.Context, column string) error {
	if c.processFn == nil {
		return ErrNotUploaded
	}
	return c.processFn(ctx, column)
}

func (c *Controller) process(ctx context.Context, column string) error {
	c.view.ShowProgress()
	c.view.SetProgress(0)

	res, err := c.backend.Process(ctx, c.upload.FilePath, column)
	if err != nil {
		return c.fail(err, c.view.ShowResult)
	}

	c.taskID = res.TaskID
	c.setState(StateProcessing)
	c.log.WithFields(logrus.Fields{"task_id": res.TaskID, "column": column}).Info("processing started")

	return c.poll(ctx)
}

// poll asks for progress once per interval until the task is done.
func (c *Controller) poll(ctx context.Context) error {
	c.setState(StatePolling)

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		p, err := c.backend.Progress(ctx, c.taskID)
		if err != nil {
			return c.fail(err, c.view.ShowResult)
		}

		c.log.WithField("progress", p.Progress).Debug("poll")

		switch {
		case p.Failed():
			c.view.ShowResult(Alert{Kind: AlertDanger, Lines: []string{ProcessingFailed}})
			c.setState(StateFailed)
			return ErrTaskFailed
		case p.Done():
			return c.complete(ctx)
		default:
			c.view.SetProgress(p.Progress)
		}
	}
}

func (c *Controller) complete(ctx context.Context) error {
	c.view.SetProgress(100)

	c.downloadName = DownloadName(c.upload.FilePath)
	c.view.ShowDownloadLink(DownloadLabel, c.backend.DownloadURL(c.downloadName))
	c.setState(StateComplete)

	c.log.WithField("download", c.downloadName).Info("processing complete")

	timer := time.NewTimer(c.opts.HideDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	c.view.HideProgress()
	return nil
}

// Identify looks up the ESP of a single address and shows the result.
func (c *Controller) Identify(ctx context.Context, email string) error {
	res, err := c.backend.Identify(ctx, email)
	if err != nil {
		if be, ok := client.AsBackendError(err); ok {
			c.view.ShowSingleResult(dangerAlert(be))
		}
		return err
	}

	c.view.ShowSingleResult(Alert{
		Kind:  AlertSuccess,
		Lines: []string{"Email: " + res.Email, "ESP: " + res.ESP},
	})
	return nil
}

// Download saves the processed file into dir and returns its path.
func (c *Controller) Download(ctx context.Context, dir string) (string, error) {
	if c.state != StateComplete {
		return "", ErrNotComplete
	}

	dest := filepath.Join(dir, c.downloadName)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}

	n, err := c.backend.Download(ctx, c.downloadName, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		// The link stays valid for another attempt, so the state is kept.
		if be, ok := client.AsBackendError(err); ok {
			c.view.ShowResult(dangerAlert(be))
		}
		return "", err
	}

	c.log.WithFields(logrus.Fields{"path": dest, "bytes": n}).Info("result downloaded")
	return dest, nil
}

// fail moves to Failed and renders a server-reported error with show.
// Transport errors are returned without touching the view.
func (c *Controller) fail(err error, show func(Alert)) error {
	c.setState(StateFailed)
	if be, ok := client.AsBackendError(err); ok {
		show(dangerAlert(be))
	}
	return err
}

func dangerAlert(be *client.BackendError) Alert {
	return Alert{Kind: AlertDanger, Lines: []string{be.Message}}
}
