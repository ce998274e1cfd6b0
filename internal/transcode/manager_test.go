package transcode

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nx-media/playcore/internal/domain"
	"github.com/nx-media/playcore/internal/ffmpeg"
	"github.com/nx-media/playcore/internal/keyframe"
)

func newTestManager(t *testing.T, maxJobs int) *Manager {
	t.Helper()
	builder := ffmpeg.NewCommandBuilder(&domain.HWAccelConfig{
		EncodeFlags:  []string{"-c:v", "libx264"},
		KeyframeFlag: "-force_key_frames",
		ScaleFilter:  "scale=%d:%d",
	})
	m, err := NewManager(t.TempDir(), builder, maxJobs)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func testPlan() domain.StreamPlan {
	return domain.StreamPlan{
		Mode:             domain.ModeDirectStream,
		Protocol:         domain.ProtocolHls,
		CopyVideo:        true,
		CopyAudio:        true,
		VideoStreamIndex: 0,
		AudioStreamIndex: 0,
		TargetVideoCodec: "h264",
		TargetAudioCodec: "aac",
	}
}

func testFacts(partID string) domain.SourceFacts {
	return domain.SourceFacts{
		PartID:    partID,
		Container: "mp4",
		Duration:  60_000,
		DirectURL: "file:///input-" + partID,
	}
}

func TestManager_ManifestCreatesJobAndReturnsPlaylist(t *testing.T) {
	withFakeFFmpeg(t, writesSegmentsScript)
	m := newTestManager(t, 8)

	res, err := m.Manifest(context.Background(), testFacts("part-1"), testPlan(), keyframe.NewIndex(nil), 0)
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if len(res.Body) == 0 {
		t.Fatalf("expected non-empty manifest body")
	}
	if res.ContentType != "application/vnd.apple.mpegurl" {
		t.Fatalf("unexpected content type: %s", res.ContentType)
	}
}

func TestManager_SharesJobAcrossSameVariant(t *testing.T) {
	withFakeFFmpeg(t, writesSegmentsScript)
	m := newTestManager(t, 8)

	facts := testFacts("part-1")
	plan := testPlan()

	key := jobKey{PartID: facts.PartID, VariantKey: VariantKeyFor(plan)}
	entry1, err := m.getOrCreate(context.Background(), key, facts, plan, keyframe.NewIndex(nil))
	if err != nil {
		t.Fatalf("first getOrCreate: %v", err)
	}
	entry2, err := m.getOrCreate(context.Background(), key, facts, plan, keyframe.NewIndex(nil))
	if err != nil {
		t.Fatalf("second getOrCreate: %v", err)
	}
	if entry1 != entry2 {
		t.Fatalf("expected the same job entry to be reused for identical (part, variant)")
	}
}

func TestManager_SegmentServesExistingFileWithoutRestart(t *testing.T) {
	withFakeFFmpeg(t, writesSegmentsScript)
	m := newTestManager(t, 8)

	facts := testFacts("part-1")
	plan := testPlan()

	deadline := time.Now().Add(2 * time.Second)
	var path string
	for {
		res, err := m.Segment(context.Background(), facts, plan, keyframe.NewIndex(nil), "segment-00000.ts")
		if err == nil {
			path = res.Path
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("segment never became available: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected resolved segment path to exist: %v", err)
	}
}

func TestManager_ReclaimRefusesWhenEverythingActive(t *testing.T) {
	withFakeFFmpeg(t, writesSegmentsScript)
	m := newTestManager(t, 1)

	ctx := context.Background()
	if _, err := m.Manifest(ctx, testFacts("part-1"), testPlan(), keyframe.NewIndex(nil), 0); err != nil {
		t.Fatalf("first manifest: %v", err)
	}

	_, err := m.Manifest(ctx, testFacts("part-2"), testPlan(), keyframe.NewIndex(nil), 0)
	if domain.KindOf(err) != domain.KindResourceExhausted {
		t.Fatalf("expected ResourceExhausted when the one active job can't be evicted, got %v", err)
	}
}

func TestParseSegmentIndex(t *testing.T) {
	cases := map[string]struct {
		idx int
		ok  bool
	}{
		"segment-00042.ts":  {42, true},
		"segment-00000.m4s": {0, true},
		"init.mp4":           {0, false},
		"not-a-segment":      {0, false},
	}
	for name, want := range cases {
		idx, ok := parseSegmentIndex(name)
		if ok != want.ok || (ok && idx != want.idx) {
			t.Fatalf("parseSegmentIndex(%q) = (%d, %v), want (%d, %v)", name, idx, ok, want.idx, want.ok)
		}
	}
}
