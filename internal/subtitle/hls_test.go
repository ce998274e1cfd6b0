package subtitle

import (
	"strings"
	"testing"
)

const sampleVTT = `WEBVTT

00:00:00.000 --> 00:00:02.000
Hello there

00:00:03.500 --> 00:00:05.000
Split across segments

00:00:07.000 --> 00:00:08.000
Last line
`

func TestSplitIntoSegments_ClipsCuesAtBoundaries(t *testing.T) {
	segments := SplitIntoSegments([]byte(sampleVTT), 4.0, 8.0)

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments for 8s of cues at 4s windows, got %d", len(segments))
	}

	first := string(segments[0])
	if !strings.Contains(first, "Hello there") {
		t.Fatalf("first segment missing first cue: %s", first)
	}
	if !strings.Contains(first, "Split across segments") {
		t.Fatalf("first segment should contain the cue clipped to its boundary: %s", first)
	}
	if strings.Contains(first, "00:00:03.500 --> 00:00:04.000") == false {
		t.Fatalf("cue spanning the boundary should be clipped to segment end: %s", first)
	}

	second := string(segments[1])
	if !strings.Contains(second, "Last line") {
		t.Fatalf("second segment missing its cue: %s", second)
	}
}

func TestSplitIntoSegments_ZeroDurationReturnsWholeFile(t *testing.T) {
	out := SplitIntoSegments([]byte(sampleVTT), 0, 8.0)
	if len(out) != 1 || string(out[0]) != sampleVTT {
		t.Fatalf("expected passthrough for non-positive segment duration")
	}
}

// Cues can end well before the real media duration (silent outro, trailing
// music past the last subtitle); the segment count must still reach the
// true end instead of stopping at the last cue (spec §8 "Σ of EXTINF
// durations equals media duration to within one segment length").
func TestSplitIntoSegments_CoversMediaDurationPastLastCue(t *testing.T) {
	segments := SplitIntoSegments([]byte(sampleVTT), 4.0, 30.0)

	if len(segments) != 8 {
		t.Fatalf("expected ceil(30/4)=8 segments driven by media duration, got %d", len(segments))
	}
}

func TestSplitIntoSegments_NoCuesStillCoversMediaDuration(t *testing.T) {
	segments := SplitIntoSegments([]byte("WEBVTT\n\n"), 4.0, 10.0)
	if len(segments) != 3 {
		t.Fatalf("expected ceil(10/4)=3 segments even with no cues, got %d", len(segments))
	}
}

func TestParseVTTTime(t *testing.T) {
	got, ok := parseVTTTime("01:02:03.456")
	if !ok {
		t.Fatalf("expected successful parse")
	}
	want := 3723.456
	if got < want-0.001 || got > want+0.001 {
		t.Fatalf("unexpected parsed seconds: %f", got)
	}
}
