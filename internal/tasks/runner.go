package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/esp-finder/internal/sheet"
)

// OutputSuffix is appended to the stem of an uploaded file to name its result.
const OutputSuffix = "-esp.csv"

// ESPColumn is the header of the column added to result files.
const ESPColumn = "ESP"

// Identifier names the ESP of an address.
type Identifier interface {
	Identify(ctx context.Context, email string) string
}

// Runner executes tasks in background goroutines, one per task.
type Runner struct {
	store         *Store
	uploadDir     string
	processedDir  string
	newIdentifier func() Identifier
	log           *logrus.Entry

	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewRunner creates a Runner. Workers run under baseCtx, so they outlive
// the request that submitted them and stop when baseCtx is cancelled.
func NewRunner(baseCtx context.Context, store *Store, uploadDir, processedDir string, newIdentifier func() Identifier) *Runner {
	return &Runner{
		store:         store,
		uploadDir:     uploadDir,
		processedDir:  processedDir,
		newIdentifier: newIdentifier,
		log:           logrus.WithField("component", "runner"),
		baseCtx:       baseCtx,
	}
}

// OutputName derives the result file name from an uploaded file name.
func OutputName(filePath string) string {
	base := filepath.Base(filePath)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + OutputSuffix
}

// Submit records a new task and starts processing it in the background.
func (r *Runner) Submit(ctx context.Context, filePath, emailColumn string) (*Task, error) {
	t, err := r.store.Create(ctx, filePath, emailColumn)
	if err != nil {
		return nil, err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.Run(r.baseCtx, t); err != nil {
			r.log.WithError(err).WithField("task_id", t.ID).Warn("task failed")
		}
	}()
	return t, nil
}

// Wait blocks until all submitted tasks have finished.
func (r *Runner) Wait() { r.wg.Wait() }

// Run processes t synchronously. Problems with the input mark the task
// failed and are also returned.
func (r *Runner) Run(ctx context.Context, t *Task) error {
	log := r.log.WithField("task_id", t.ID)

	table, err := sheet.Read(filepath.Join(r.uploadDir, t.FilePath))
	if err != nil {
		return r.fail(t, fmt.Sprintf("reading %s: %v", t.FilePath, err))
	}

	col := table.Column(t.EmailColumn)
	if col < 0 {
		return r.fail(t, fmt.Sprintf("column %q not found", t.EmailColumn))
	}

	total := len(table.Rows)
	if err := r.store.Start(ctx, t.ID, total); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"rows": total, "column": t.EmailColumn}).Info("task started")

	id := r.newIdentifier()
	out := make([][]string, 0, total)
	lastPct := 0
	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return r.fail(t, "server shutting down")
		}

		out = append(out, append(append([]string(nil), row...), id.Identify(ctx, row[col])))

		// Only whole-percent changes are written; 100 waits for the file.
		pct := (i + 1) * 100 / total
		if pct > lastPct && pct < 100 {
			lastPct = pct
			if err := r.store.SetProgress(ctx, t.ID, float64(pct)); err != nil {
				log.WithError(err).Warn("recording progress")
			}
		}
	}

	name := OutputName(t.FilePath)
	headers := append(append([]string(nil), table.Headers...), ESPColumn)
	if err := r.writeOutput(name, headers, out); err != nil {
		return r.fail(t, err.Error())
	}

	if err := r.store.Complete(ctx, t.ID, name); err != nil {
		return err
	}
	log.WithField("output", name).Info("task complete")
	return nil
}

// writeOutput publishes the result file atomically via a temporary file.
func (r *Runner) writeOutput(name string, headers []string, rows [][]string) error {
	if err := os.MkdirAll(r.processedDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	tmp, err := os.CreateTemp(r.processedDir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := sheet.WriteCSV(tmp, headers, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(r.processedDir, name)); err != nil {
		return fmt.Errorf("publishing output: %w", err)
	}
	return nil
}

func (r *Runner) fail(t *Task, reason string) error {
	// The task row must be updated even if the run was cancelled.
	if err := r.store.Fail(context.Background(), t.ID, reason); err != nil {
		r.log.WithError(err).WithField("task_id", t.ID).Error("recording failure")
	}
	return fmt.Errorf("task %s: %s", t.ID, reason)
}
