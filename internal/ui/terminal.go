package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/ziadkadry99/esp-finder/internal/controller"
	"github.com/ziadkadry99/esp-finder/internal/progress"
)

// ProgressDescription labels the progress bar.
const ProgressDescription = "Identifying ESPs"

// Terminal renders the controller's view on a terminal or pipe.
type Terminal struct {
	out         io.Writer
	interactive bool
	newReporter func() progress.Reporter

	year           int
	fileLabel      string
	columns        []string
	columnsVisible bool
	reporter       progress.Reporter

	danger  *color.Color
	success *color.Color
	link    *color.Color
}

// NewTerminal creates a view writing to out. Progress is drawn as a bar
// when out is a terminal and as plain lines otherwise.
func NewTerminal(out io.Writer) *Terminal {
	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	t := &Terminal{
		out:         out,
		interactive: interactive,
		danger:      color.New(color.FgRed),
		success:     color.New(color.FgGreen),
		link:        color.New(color.FgCyan, color.Underline),
	}
	t.newReporter = func() progress.Reporter { return progress.NewReporter(out, t.interactive) }
	return t
}

var _ controller.View = (*Terminal)(nil)

// Interactive reports whether the view is attached to a terminal.
func (t *Terminal) Interactive() bool { return t.interactive }

func (t *Terminal) Init(year int) {
	t.year = year
}

func (t *Terminal) SetFileName(label string) {
	t.fileLabel = label
	fmt.Fprintln(t.out, label)
}

// FileLabel returns the current selected-file label.
func (t *Terminal) FileLabel() string { return t.fileLabel }

func (t *Terminal) SetColumns(columns []string) {
	t.columns = append(t.columns[:0], columns...)
}

// Columns returns the options of the column selector.
func (t *Terminal) Columns() []string { return t.columns }

func (t *Terminal) ShowColumnSelection() {
	t.columnsVisible = true
	fmt.Fprintf(t.out, "Columns (%d):\n", len(t.columns))
	for i, c := range t.columns {
		fmt.Fprintf(t.out, "  %d. %s\n", i+1, c)
	}
}

// ColumnsVisible reports whether the column selector has been revealed.
func (t *Terminal) ColumnsVisible() bool { return t.columnsVisible }

// ChooseColumn asks the user to pick an email column. The first column
// is returned without asking when the view is not interactive.
func (t *Terminal) ChooseColumn() (string, error) {
	if len(t.columns) == 0 {
		return "", fmt.Errorf("no columns to choose from")
	}
	if !t.interactive {
		return t.columns[0], nil
	}
	prompt := promptui.Select{
		Label: "Select the email column",
		Items: t.columns,
		Size:  10,
	}
	_, col, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("column selection: %w", err)
	}
	return col, nil
}

func (t *Terminal) ShowProgress() {
	t.reporter = t.newReporter()
	t.reporter.Start(ProgressDescription)
}

func (t *Terminal) SetProgress(percent float64) {
	if t.reporter != nil {
		t.reporter.Set(percent)
	}
}

func (t *Terminal) HideProgress() {
	if t.reporter != nil {
		t.reporter.Finish()
		t.reporter = nil
	}
}

func (t *Terminal) ShowResult(a controller.Alert) {
	t.HideProgress()
	t.printAlert(a)
}

func (t *Terminal) ShowDownloadLink(label, href string) {
	// An active bar leaves the cursor at the end of its line.
	if t.reporter != nil && t.interactive {
		fmt.Fprintln(t.out)
	}
	fmt.Fprintf(t.out, "%s: %s\n", label, t.link.Sprint(href))
}

func (t *Terminal) ShowSingleResult(a controller.Alert) {
	t.printAlert(a)
}

func (t *Terminal) printAlert(a controller.Alert) {
	c, mark := t.success, "✓"
	if a.Kind == controller.AlertDanger {
		c, mark = t.danger, "✗"
	}
	for i, line := range a.Lines {
		prefix := "  "
		if i == 0 {
			prefix = mark + " "
		}
		c.Fprintln(t.out, prefix+line)
	}
}

// Footer returns the footer text for the year set by Init.
func (t *Terminal) Footer() string {
	return fmt.Sprintf("espfinder © %d", t.year)
}

// Close prints the footer.
func (t *Terminal) Close() {
	fmt.Fprintln(t.out, color.New(color.Faint).Sprint(t.Footer()))
}
