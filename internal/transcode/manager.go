package transcode

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/nx-media/playcore/internal/domain"
	"github.com/nx-media/playcore/internal/ffmpeg"
	"github.com/nx-media/playcore/internal/keyframe"
	xlog "github.com/nx-media/playcore/internal/log"
	"github.com/nx-media/playcore/internal/segment"
)

// jobKey identifies one cached job: a single (part, variant) pair can be
// shared by every session that resolved the same plan for that part.
type jobKey struct {
	PartID     string
	VariantKey domain.VariantKey
}

func (k jobKey) String() string { return k.PartID + "|" + string(k.VariantKey) }

// VariantKeyFor derives the job-cache key component from a resolved plan,
// so two sessions landing on the same target codecs/bitrate/resolution/
// protocol for the same part reuse one encoder (spec §4.C).
func VariantKeyFor(plan domain.StreamPlan) domain.VariantKey {
	return domain.VariantKey(fmt.Sprintf("%s-%s-%s-%dx%d-%d-%dch",
		plan.Protocol,
		plan.TargetVideoCodec,
		plan.TargetAudioCodec,
		plan.TargetWidth,
		plan.TargetHeight,
		plan.TargetBitrate,
		plan.TargetChannels,
	))
}

type jobEntry struct {
	mu        sync.Mutex
	job       domain.TranscodeJob
	worker    *Worker
	watcher   *segment.Watcher
	plan      domain.StreamPlan
	sourceURL string
	keyframes keyframe.Index
}

// Manager owns the set of live encoder workers, one per (part, variant).
// Grounded on the teacher's Pool (a fixed group of goroutines driving
// ffmpeg processes off a job queue), generalized from a subscribe/ack
// queue into an on-demand lookup-or-create model matching the manifest and
// segment endpoints of spec §4.C. The job cache is a recency-ordered map
// (`hashicorp/golang-lru`, used here for its `Keys()`/`Get` recency
// tracking rather than its own size-triggered eviction, since eviction
// must skip any job pinged within the active window — something a plain
// LRU cache can't express) guarded by restart coalescing
// (`golang.org/x/sync/singleflight`) and an encoder-health circuit breaker
// (`github.com/sony/gobreaker/v2`).
type Manager struct {
	root       string
	cmdBuilder *ffmpeg.CommandBuilder
	maxJobs    int

	mu    sync.Mutex
	cache *lru.Cache[jobKey, *jobEntry]

	restarts singleflight.Group
	breaker  *gobreaker.CircuitBreaker[struct{}]

	recorder JobRecorder
}

// JobRecorder persists job lifecycle records for observability (spec §6
// "Persistence"). The live LRU cache above remains authoritative for
// in-process decisions; a nil recorder simply disables the write.
type JobRecorder interface {
	Save(ctx context.Context, job domain.TranscodeJob) error
}

// SetRecorder wires a JobRecorder after construction, so tests that don't
// care about persistence can leave it nil.
func (m *Manager) SetRecorder(r JobRecorder) { m.recorder = r }

func (m *Manager) record(ctx context.Context, entry *jobEntry) {
	if m.recorder == nil {
		return
	}
	entry.mu.Lock()
	job := entry.job
	entry.mu.Unlock()
	if err := m.recorder.Save(ctx, job); err != nil {
		xlog.With("transcode").Warn().Err(err).Str("jobId", job.ID).Msg("job record persist failed")
	}
}

func NewManager(root string, cmdBuilder *ffmpeg.CommandBuilder, maxJobs int) (*Manager, error) {
	if maxJobs <= 0 {
		maxJobs = 32
	}
	// The underlying cache is sized far above maxJobs: capacity enforcement
	// and eviction candidate selection are done explicitly in reclaimLocked
	// so the active-window rule (spec §4.C) can veto the cache's own choice
	// of oldest entry.
	cache, err := lru.New[jobKey, *jobEntry](maxJobs * 8)
	if err != nil {
		return nil, fmt.Errorf("transcode: new job cache: %w", err)
	}

	m := &Manager{root: root, cmdBuilder: cmdBuilder, maxJobs: maxJobs, cache: cache}
	m.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "transcode-encoder-start",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return m, nil
}

// ManifestResult is the rendered manifest plus the true start offset the
// client should align its presentation clock to (spec §4.C).
type ManifestResult struct {
	Body          []byte
	ContentType   string
	ActualStartMs int64
}

// Manifest looks up or creates the job for facts+plan, optionally seeking
// it, and returns the manifest document.
func (m *Manager) Manifest(ctx context.Context, facts domain.SourceFacts, plan domain.StreamPlan, kf keyframe.Index, seekMs int64) (ManifestResult, error) {
	key := jobKey{PartID: facts.PartID, VariantKey: VariantKeyFor(plan)}

	entry, err := m.getOrCreate(ctx, key, facts, plan, kf)
	if err != nil {
		return ManifestResult{}, err
	}

	var actualStartMs int64
	if seekMs > 0 {
		startSeconds := float64(seekMs) / 1000.0
		segIdx, actualSeconds := kf.SegmentIndex(startSeconds, domain.DefaultSegmentDurationSeconds)
		if err := m.restart(ctx, key, entry, actualSeconds, segIdx); err != nil {
			return ManifestResult{}, err
		}
		actualStartMs = int64(actualSeconds * 1000)
	}

	body, contentType, err := m.renderManifest(entry)
	if err != nil {
		return ManifestResult{}, err
	}
	return ManifestResult{Body: body, ContentType: contentType, ActualStartMs: actualStartMs}, nil
}

// SegmentResult is the resolved filesystem path of a ready segment.
type SegmentResult struct {
	Path string
}

// Segment serves one segment file of a job, applying the smart-segment
// restart policy from spec §4.C: a request too far ahead or behind the
// job's current write position restarts the encoder there; a request
// within reach waits for the file.
func (m *Manager) Segment(ctx context.Context, facts domain.SourceFacts, plan domain.StreamPlan, kf keyframe.Index, filename string) (SegmentResult, error) {
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		return SegmentResult{}, domain.InvalidInput("transcode: invalid segment filename")
	}

	key := jobKey{PartID: facts.PartID, VariantKey: VariantKeyFor(plan)}
	entry, err := m.getOrCreate(ctx, key, facts, plan, kf)
	if err != nil {
		return SegmentResult{}, err
	}
	m.touch(key)

	entry.mu.Lock()
	entry.job.LastPingAt = time.Now()
	outputDir := entry.job.OutputDir
	entry.mu.Unlock()

	requestedIndex, ok := parseSegmentIndex(filename)
	if !ok {
		// init segments and any other named asset are served as soon as the
		// job's directory exists; they aren't numbered and never restart.
		return SegmentResult{Path: filepath.Join(outputDir, filename)}, nil
	}

	entry.mu.Lock()
	watcher := entry.watcher
	entry.mu.Unlock()

	if watcher.Exists(requestedIndex) {
		return SegmentResult{Path: filepath.Join(outputDir, filename)}, nil
	}

	current, known := watcher.Highest()
	threshold := int(math.Floor(24.0 / domain.DefaultSegmentDurationSeconds))

	restartNeeded := !known || requestedIndex < current || (requestedIndex-current) > threshold
	if restartNeeded {
		approxSeconds := float64(requestedIndex) * domain.DefaultSegmentDurationSeconds
		actualSeconds := kf.Nearest(approxSeconds)
		if err := m.restart(ctx, key, entry, actualSeconds, requestedIndex); err != nil {
			return SegmentResult{}, err
		}
		entry.mu.Lock()
		watcher = entry.watcher
		outputDir = entry.job.OutputDir
		entry.mu.Unlock()
	}

	waitCtx, cancel := context.WithTimeout(ctx, domain.RestartDeadline)
	defer cancel()
	if err := watcher.WaitSegment(waitCtx, requestedIndex, domain.RestartDeadline); err != nil {
		return SegmentResult{}, domain.NotFound(fmt.Sprintf("transcode: segment %d not found", requestedIndex))
	}

	return SegmentResult{Path: filepath.Join(outputDir, filename)}, nil
}

// Close stops every live worker and removes every job's output directory.
// Used on server shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	keys := m.cache.Keys()
	m.mu.Unlock()

	for _, key := range keys {
		m.mu.Lock()
		entry, ok := m.cache.Peek(key)
		m.cache.Remove(key)
		m.mu.Unlock()
		if ok {
			m.stopAndCleanup(entry)
		}
	}
}

func (m *Manager) getOrCreate(ctx context.Context, key jobKey, facts domain.SourceFacts, plan domain.StreamPlan, kf keyframe.Index) (*jobEntry, error) {
	m.mu.Lock()
	if entry, ok := m.cache.Get(key); ok {
		m.mu.Unlock()
		return entry, nil
	}
	if err := m.reclaimLocked(); err != nil {
		m.mu.Unlock()
		return nil, err
	}

	entry := &jobEntry{
		job: domain.TranscodeJob{
			ID:                  uuid.NewString(),
			SessionID:           "",
			PartID:              key.PartID,
			VariantKey:          key.VariantKey,
			Protocol:            plan.Protocol,
			State:               domain.JobStarting,
			CurrentSegmentIndex: -1,
			LastPingAt:          time.Now(),
		},
		plan:      plan,
		sourceURL: facts.DirectURL,
		keyframes: kf,
	}
	m.cache.Add(key, entry)
	m.mu.Unlock()

	if err := m.startLocked(ctx, key, entry, 0, 0); err != nil {
		m.mu.Lock()
		m.cache.Remove(key)
		m.mu.Unlock()
		return nil, err
	}
	m.record(ctx, entry)
	return entry, nil
}

func (m *Manager) touch(key jobKey) {
	m.mu.Lock()
	m.cache.Get(key)
	m.mu.Unlock()
}

// reclaimLocked evicts the least-recently-used job whose lastPingAt is
// outside the active window, if the cache is at its configured capacity.
// Must be called with m.mu held. Returns ResourceExhausted when every
// entry is still active — the manager refuses to create new jobs rather
// than starve a session in progress (spec §4.C).
func (m *Manager) reclaimLocked() error {
	if m.cache.Len() < m.maxJobs {
		return nil
	}

	now := time.Now()
	for _, key := range m.cache.Keys() {
		entry, ok := m.cache.Peek(key)
		if !ok {
			continue
		}
		entry.mu.Lock()
		lastPing := entry.job.LastPingAt
		entry.mu.Unlock()

		if now.Sub(lastPing) < domain.ActiveWindow {
			continue
		}

		m.cache.Remove(key)
		m.stopAndCleanup(entry)
		return nil
	}

	return domain.ResourceExhausted("transcode: job cache full, no evictable entries")
}

func (m *Manager) stopAndCleanup(entry *jobEntry) {
	entry.mu.Lock()
	worker := entry.worker
	watcher := entry.watcher
	outputDir := entry.job.OutputDir
	entry.job.State = domain.JobFinished
	entry.mu.Unlock()

	if worker != nil {
		worker.Stop()
	}
	if watcher != nil {
		_ = watcher.Close()
	}
	if outputDir != "" {
		_ = os.RemoveAll(outputDir)
	}
	m.record(context.Background(), entry)
}

// startLocked creates the job's output directory and starts its worker and
// segment watcher at the given offset. It acquires entry.mu itself; the
// manager-level lock must not be held by the caller.
func (m *Manager) startLocked(ctx context.Context, key jobKey, entry *jobEntry, startSeconds float64, startSegment int) error {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	outputDir := filepath.Join(m.root, sanitizeComponent(string(key.VariantKey)), sanitizeComponent(key.PartID))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return domain.EncoderFailed("transcode: create output dir", err)
	}

	watcher, err := segment.NewWatcher(outputDir)
	if err != nil {
		return domain.EncoderFailed("transcode: watch output dir", err)
	}

	worker := NewWorker(m.cmdBuilder)
	params := ffmpeg.Params{
		InputURL:       entry.sourceURL,
		Plan:           entry.plan,
		StartSeconds:   startSeconds,
		StartSegment:   startSegment,
		SegmentSeconds: domain.DefaultSegmentDurationSeconds,
		KeyframeTimes:  entry.keyframes.After(startSeconds),
		OutputDir:      outputDir,
	}

	_, breakerErr := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, worker.Start(ctx, params)
	})
	if breakerErr != nil {
		_ = watcher.Close()
		entry.job.State = domain.JobFailed
		entry.job.Error = breakerErr.Error()
		return domain.EncoderFailed("transcode: start encoder", breakerErr)
	}

	entry.worker = worker
	entry.watcher = watcher
	entry.job.OutputDir = outputDir
	entry.job.State = domain.JobRunning
	entry.job.CurrentSegmentIndex = startSegment
	entry.job.LastPingAt = time.Now()
	entry.job.Error = ""
	return nil
}

// restart stops the current worker, clears the output directory, and
// starts fresh at startSeconds/startSegment. Concurrent restart requests
// for the same job coalesce into one actual restart (spec §4.C:
// "restarts are idempotent").
func (m *Manager) restart(ctx context.Context, key jobKey, entry *jobEntry, startSeconds float64, startSegment int) error {
	_, err, _ := m.restarts.Do(key.String(), func() (interface{}, error) {
		entry.mu.Lock()
		worker := entry.worker
		watcher := entry.watcher
		outputDir := entry.job.OutputDir
		entry.mu.Unlock()

		if worker != nil {
			worker.Stop()
		}
		if watcher != nil {
			_ = watcher.Close()
		}
		if outputDir != "" {
			dirEntries, _ := os.ReadDir(outputDir)
			for _, de := range dirEntries {
				_ = os.Remove(filepath.Join(outputDir, de.Name()))
			}
		}

		return nil, m.startLocked(ctx, key, entry, startSeconds, startSegment)
	})
	return err
}

func parseSegmentIndex(filename string) (int, bool) {
	name := filename
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[:dot]
	}
	dash := strings.LastIndex(name, "-")
	if dash < 0 {
		return 0, false
	}
	idx, err := strconv.Atoi(name[dash+1:])
	if err != nil {
		return 0, false
	}
	return idx, true
}

func sanitizeComponent(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return replacer.Replace(s)
}
