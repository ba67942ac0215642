package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ziadkadry99/esp-finder/internal/controller"
	"github.com/ziadkadry99/esp-finder/internal/progress"
)

func newTestTerminal(t *testing.T) (*Terminal, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	t.Setenv("CI", "")
	var buf bytes.Buffer
	return NewTerminal(&buf), &buf
}

func TestBufferIsNotInteractive(t *testing.T) {
	term, _ := newTestTerminal(t)
	if term.Interactive() {
		t.Error("a buffer should not be treated as a terminal")
	}
}

func TestDangerAlertContainsMessage(t *testing.T) {
	term, buf := newTestTerminal(t)
	term.ShowResult(controller.Alert{Kind: controller.AlertDanger, Lines: []string{"X"}})
	if got := buf.String(); got != "✗ X\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestSuccessAlertLines(t *testing.T) {
	term, buf := newTestTerminal(t)
	term.ShowSingleResult(controller.Alert{
		Kind:  controller.AlertSuccess,
		Lines: []string{"Email: a@b.com", "ESP: Google"},
	})
	want := "✓ Email: a@b.com\n  ESP: Google\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestColumnsReplacedAndShown(t *testing.T) {
	term, buf := newTestTerminal(t)
	term.SetColumns([]string{"old"})
	term.SetColumns([]string{"a", "b"})
	term.ShowColumnSelection()

	cols := term.Columns()
	if len(cols) != 2 || cols[0] != "a" || cols[1] != "b" {
		t.Errorf("unexpected columns %v", cols)
	}
	if !term.ColumnsVisible() {
		t.Error("expected columns to be visible")
	}
	if !strings.Contains(buf.String(), "1. a") || !strings.Contains(buf.String(), "2. b") {
		t.Errorf("columns not listed: %q", buf.String())
	}

	col, err := term.ChooseColumn()
	if err != nil || col != "a" {
		t.Errorf("ChooseColumn() = %q, %v", col, err)
	}
}

func TestChooseColumnEmpty(t *testing.T) {
	term, _ := newTestTerminal(t)
	if _, err := term.ChooseColumn(); err == nil {
		t.Error("expected error with no columns")
	}
}

func TestProgressLines(t *testing.T) {
	term, buf := newTestTerminal(t)
	term.ShowProgress()
	term.SetProgress(0)
	term.SetProgress(10)
	term.SetProgress(55)
	term.SetProgress(100)
	term.HideProgress()

	out := buf.String()
	for _, want := range []string{"[  0%]", "[ 10%]", "[ 55%]", "[100%]"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestFileLabelAndFooter(t *testing.T) {
	term, buf := newTestTerminal(t)
	term.Init(2026)
	term.SetFileName("Selected file: No file selected")
	term.Close()

	if term.FileLabel() != "Selected file: No file selected" {
		t.Errorf("unexpected label %q", term.FileLabel())
	}
	if !strings.HasSuffix(buf.String(), "espfinder © 2026\n") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestDownloadLink(t *testing.T) {
	term, buf := newTestTerminal(t)
	term.ShowDownloadLink("Download Processed CSV", "http://localhost:5000/download/data-esp.csv")
	want := "Download Processed CSV: http://localhost:5000/download/data-esp.csv\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

type stubReporter struct{ finished bool }

func (r *stubReporter) Start(string) {}
func (r *stubReporter) Set(float64) {}
func (r *stubReporter) Finish() { r.finished = true }

func TestDownloadLinkStartsBelowActiveBar(t *testing.T) {
	term, buf := newTestTerminal(t)
	term.interactive = true
	bar := &stubReporter{}
	term.newReporter = func() progress.Reporter { return bar }

	term.ShowProgress()
	term.SetProgress(100)
	term.ShowDownloadLink("Download Processed CSV", "http://localhost:5000/download/data-esp.csv")
	want := "\nDownload Processed CSV: http://localhost:5000/download/data-esp.csv\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	term.HideProgress()
	if !bar.finished {
		t.Error("expected the bar to be finished")
	}
}
