package progress

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter draws the progress of a server-side task as a percentage.
type Reporter interface {
	Start(description string)
	Set(percent float64)
	Finish()
}

// NewReporter returns a TerminalReporter when interactive is true, or a
// CIReporter if not or if the CI environment variable is set.
func NewReporter(w io.Writer, interactive bool) Reporter {
	if !interactive || os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{w: w, last: -1}
	}
	return &TerminalReporter{w: w}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(description string) {
	r.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Set(percent float64) {
	if r.bar != nil {
		_ = r.bar.Set(clamp(percent))
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}

// CIReporter prints one line per change, suitable for logs and pipes.
type CIReporter struct {
	w           io.Writer
	description string
	last        int
}

func (r *CIReporter) Start(description string) {
	r.description = description
	r.last = -1
}

func (r *CIReporter) Set(percent float64) {
	p := clamp(percent)
	if p == r.last {
		return
	}
	r.last = p
	fmt.Fprintf(r.w, "[%3d%%] %s\n", p, r.description)
}

func (r *CIReporter) Finish() {
	r.last = -1
}

// clamp converts a percentage to a whole number in [0, 100].
func clamp(percent float64) int {
	if math.IsNaN(percent) || percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return int(percent)
}
