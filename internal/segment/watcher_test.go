package segment

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSegment(t *testing.T, dir string, index int, ext string) {
	t.Helper()
	path := filepath.Join(dir, "segment-"+padIndex(index)+"."+ext)
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write segment: %v", err)
	}
}

func padIndex(i int) string {
	s := "00000"
	digits := []rune{}
	for i > 0 || len(digits) == 0 {
		digits = append([]rune{rune('0' + i%10)}, digits...)
		i /= 10
	}
	if len(digits) >= len(s) {
		return string(digits)
	}
	return s[:len(s)-len(digits)] + string(digits)
}

func TestWatcher_ExistsAfterFileAppears(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if w.Exists(0) {
		t.Fatalf("segment 0 should not exist yet")
	}

	writeSegment(t, dir, 0, "ts")

	deadline := time.Now().Add(2 * time.Second)
	for !w.Exists(0) {
		if time.Now().After(deadline) {
			t.Fatalf("segment 0 never became visible")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatcher_WaitSegmentTimesOut(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	err = w.WaitSegment(context.Background(), 3, 50*time.Millisecond)
	if err == nil {
		t.Fatalf("expected timeout error for a segment that never appears")
	}
}

func TestWatcher_WaitSegmentReturnsWhenFileAlreadyPresent(t *testing.T) {
	dir := t.TempDir()
	writeSegment(t, dir, 1, "m4s")

	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := w.WaitSegment(context.Background(), 1, time.Second); err != nil {
		t.Fatalf("expected immediate success for pre-existing segment: %v", err)
	}
}

func TestParseSegmentIndex(t *testing.T) {
	idx, ok := parseSegmentIndex("/tmp/job/segment-00042.ts")
	if !ok || idx != 42 {
		t.Fatalf("expected index 42, got %d ok=%v", idx, ok)
	}
	if _, ok := parseSegmentIndex("/tmp/job/init.mp4"); ok {
		t.Fatalf("init segment should not parse as numbered segment")
	}
}
