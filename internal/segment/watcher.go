// Package segment detects when an encoder worker has finished writing a
// segment file. Per spec §4.C, the manager never trusts the toolchain's
// stdout for this — readiness is file existence plus a short stability
// delay, so this package watches an output directory with fsnotify
// instead of the teacher's push-based storage-decorator notification
// (which assumed an in-process Storage write, not an external process).
package segment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var segmentFileRE = regexp.MustCompile(`segment-(\d+)\.\w+$`)

// StabilityDelay is how long a segment file's size must stay unchanged
// before it is considered fully written (guards against serving a partial
// write if the encoder is still flushing).
const StabilityDelay = 150 * time.Millisecond

// Watcher tracks segment readiness for one job's output directory.
type Watcher struct {
	dir string
	fsw *fsnotify.Watcher

	mu      sync.Mutex
	ready   map[int]struct{}
	waiters map[int][]chan struct{}
	closed  bool
}

// NewWatcher starts watching dir for segment file creation. The caller
// must call Close when the job's output directory is retired.
func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("segment: new watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("segment: watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:     dir,
		fsw:     fsw,
		ready:   make(map[int]struct{}),
		waiters: make(map[int][]chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for event := range w.fsw.Events {
		if event.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) == 0 {
			continue
		}
		idx, ok := parseSegmentIndex(event.Name)
		if !ok {
			continue
		}
		path := event.Name
		go w.confirmStable(idx, path)
	}
}

// confirmStable waits for the file's size to stop changing before marking
// the segment ready; an encoder still writing a segment will otherwise
// trigger a premature "ready" on the initial Create event.
func (w *Watcher) confirmStable(idx int, path string) {
	last, err := fileSize(path)
	if err != nil {
		return
	}
	time.Sleep(StabilityDelay)
	cur, err := fileSize(path)
	if err != nil {
		return
	}
	if cur != last || cur == 0 {
		// still growing (or vanished); rely on the next Write event to retry
		return
	}
	w.markReady(idx)
}

func (w *Watcher) markReady(idx int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.ready[idx] = struct{}{}
	for _, ch := range w.waiters[idx] {
		close(ch)
	}
	delete(w.waiters, idx)
}

// WaitSegment blocks until segment idx is ready, ctx is done, or deadline
// elapses, whichever comes first. A segment that Exists reports returns
// immediately without registering a waiter; a file found by Exists'
// directory scan counts as ready without the stability delay.
func (w *Watcher) WaitSegment(ctx context.Context, idx int, deadline time.Duration) error {
	if w.Exists(idx) {
		return nil
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return fmt.Errorf("segment: watcher closed")
	}
	ch := make(chan struct{})
	w.waiters[idx] = append(w.waiters[idx], ch)
	w.mu.Unlock()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case <-ch:
		return nil
	case <-timer.C:
		return fmt.Errorf("segment: wait for segment %d timed out after %s", idx, deadline)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exists reports whether idx has already been observed ready, checking the
// filesystem directly as a fallback for segments written before the
// watcher started (e.g. a resumed job).
func (w *Watcher) Exists(idx int) bool {
	w.mu.Lock()
	_, ok := w.ready[idx]
	w.mu.Unlock()
	if ok {
		return true
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if i, ok := parseSegmentIndex(e.Name()); ok && i == idx {
			w.markReady(idx)
			return true
		}
	}
	return false
}

// Highest returns the greatest segment index confirmed ready, or false if
// none have been confirmed yet — the manager treats this as "current
// segment index unknown" (spec §4.C).
func (w *Watcher) Highest() (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	highest := -1
	for idx := range w.ready {
		if idx > highest {
			highest = idx
		}
	}
	if highest < 0 {
		return 0, false
	}
	return highest, true
}

// Close stops watching and releases anyone still waiting.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for _, chs := range w.waiters {
		for _, ch := range chs {
			close(ch)
		}
	}
	w.waiters = nil
	w.mu.Unlock()
	return w.fsw.Close()
}

func parseSegmentIndex(path string) (int, bool) {
	m := segmentFileRE.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return idx, true
}

func fileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
