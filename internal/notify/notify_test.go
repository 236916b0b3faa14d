package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestWriter(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	n := NewWriter(&buf)

	n.Success("Feature created")
	n.Error("Failed to load")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if lines[0] != "✓ Feature created" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "✗ Failed to load" {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestChannelDropsWhenFull(t *testing.T) {
	c := NewChannel(1)
	c.Info("first")
	c.Info("second")

	got := <-c.C
	if got.Message != "first" || got.Level != LevelInfo {
		t.Errorf("unexpected notification %+v", got)
	}
	select {
	case n := <-c.C:
		t.Errorf("expected dropped notification, got %+v", n)
	default:
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	if _, ok := r.Last(); ok {
		t.Error("empty recorder should have no last")
	}
	r.Success("a")
	r.Error("b")
	last, ok := r.Last()
	if !ok || last.Level != LevelError || last.Message != "b" {
		t.Errorf("Last = %+v", last)
	}
	if len(r.All()) != 2 {
		t.Errorf("All = %v", r.All())
	}
}
