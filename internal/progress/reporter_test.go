package progress

import (
	"bytes"
	"math"
	"testing"
)

func TestCIReporterPrintsChanges(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)
	r.Start("Processing")
	r.Set(0)
	r.Set(10.4)
	r.Set(10.9)
	r.Set(100)
	r.Finish()

	want := "[  0%] Processing\n[ 10%] Processing\n[100%] Processing\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestNewReporterCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter(&bytes.Buffer{}, true).(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestTerminalReporterWritesBar(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	var buf bytes.Buffer
	r := NewReporter(&buf, true)
	if _, ok := r.(*TerminalReporter); !ok {
		t.Fatalf("expected TerminalReporter, got %T", r)
	}
	r.Start("Processing")
	r.Set(55)
	r.Finish()
	if buf.Len() == 0 {
		t.Error("expected the bar to write output")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-1, 0},
		{0, 0},
		{55.7, 55},
		{100, 100},
		{250, 100},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := clamp(tt.in); got != tt.want {
			t.Errorf("clamp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
