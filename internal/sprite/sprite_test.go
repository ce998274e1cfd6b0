package sprite

import (
	"strings"
	"testing"
)

func TestVTTProducesContinuousEntries(t *testing.T) {
	g := &Generator{ThumbWidth: 10, ThumbHeight: 10, Interval: 1, Cols: 2, Rows: 2}

	out := string(g.vtt(3.0, 2, "http://sprites/%d.jpg"))

	if !strings.Contains(out, "WEBVTT") {
		t.Fatalf("missing header: %s", out)
	}
	if !strings.Contains(out, "00:00:00.000 --> 00:00:01.000") || !strings.Contains(out, "00:00:02.000 --> 00:00:03.000") {
		t.Fatalf("expected sequential cues, got %s", out)
	}
	if strings.Contains(out, "00:00:03.000 --> 00:00:04.000") {
		t.Fatalf("should not exceed duration: %s", out)
	}
}

func TestFormatVTTTime(t *testing.T) {
	if got := formatVTTTime(3661.789); got != "01:01:01.789" {
		t.Fatalf("unexpected time format: %s", got)
	}
}

func TestNewGeneratorDefaults(t *testing.T) {
	g := NewGenerator()
	if g.Cols != defaultCols || g.Rows != defaultRows || g.Interval != defaultInterval {
		t.Fatalf("unexpected defaults: %#v", g)
	}
}
