package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nx-media/playcore/internal/capability"
	"github.com/nx-media/playcore/internal/domain"
	"github.com/nx-media/playcore/internal/ffmpeg"
	"github.com/nx-media/playcore/internal/keyframe"
	"github.com/nx-media/playcore/internal/planner"
	"github.com/nx-media/playcore/internal/session"
	"github.com/nx-media/playcore/internal/store"
	"github.com/nx-media/playcore/internal/subtitle"
	"github.com/nx-media/playcore/internal/transcode"
)

var extinfPattern = regexp.MustCompile(`#EXTINF:([0-9.]+),`)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.Event) {}

type fakeCatalog struct {
	items []string
	parts map[string][]string
	facts map[string]domain.SourceFacts
	views map[string]domain.PlaylistItemView
}

func newFakeCatalog(n int) *fakeCatalog {
	c := &fakeCatalog{parts: map[string][]string{}, facts: map[string]domain.SourceFacts{}, views: map[string]domain.PlaylistItemView{}}
	for i := 0; i < n; i++ {
		itemID := fmt.Sprintf("item-%d", i)
		partID := fmt.Sprintf("part-%d", i)
		c.items = append(c.items, itemID)
		c.parts[itemID] = []string{partID}
		c.facts[partID] = domain.SourceFacts{
			PartID:    partID,
			Container: "mp4",
			Duration:  60_000,
			MediaType: domain.MediaVideo,
			Video:     []domain.MediaStreamFacts{{Index: 0, Type: domain.MediaVideo, Codec: "h264", Bitrate: 2_000_000, Width: 1280, Height: 720}},
			Audio:     []domain.MediaStreamFacts{{Index: 1, Type: domain.MediaAudio, Codec: "aac", Bitrate: 128_000, Channels: 2}},
			DirectURL: "https://media.example/" + partID,
		}
		c.views[itemID] = domain.PlaylistItemView{ItemID: itemID, Title: "Title " + itemID, DurationMs: 60_000}
	}
	return c
}

func (f *fakeCatalog) MediaFacts(ctx context.Context, partID string) (domain.SourceFacts, error) {
	facts, ok := f.facts[partID]
	if !ok {
		return domain.SourceFacts{}, domain.NotFound("part not found")
	}
	return facts, nil
}

func (f *fakeCatalog) ItemParts(ctx context.Context, itemID string) ([]string, error) {
	return f.parts[itemID], nil
}

func (f *fakeCatalog) ResolveSeed(ctx context.Context, seed domain.Seed, offset, limit int) ([]string, int, error) {
	if seed.OriginatorID != "" {
		if _, ok := f.parts[seed.OriginatorID]; !ok {
			return nil, 0, domain.NotFound("originator not found")
		}
	}
	if offset >= len(f.items) {
		return nil, len(f.items), nil
	}
	end := offset + limit
	if end > len(f.items) {
		end = len(f.items)
	}
	return f.items[offset:end], len(f.items), nil
}

func (f *fakeCatalog) ItemView(ctx context.Context, itemID string) (domain.PlaylistItemView, error) {
	v, ok := f.views[itemID]
	if !ok {
		return domain.PlaylistItemView{}, domain.NotFound("item not found")
	}
	return v, nil
}

type fakeKeyframeSource struct{}

func (fakeKeyframeSource) Keyframes(ctx context.Context, sourceURL string) ([]float64, error) {
	return []float64{0, 2, 4, 6, 8, 10}, nil
}

func directPlayCapability() domain.Capabilities {
	caps := domain.DefaultCapabilities()
	caps.DirectPlayProfiles = []domain.DirectPlayProfile{
		{MediaType: domain.MediaVideo, Container: []string{"mp4"}, VideoCodec: []string{"h264"}, AudioCodec: []string{"aac"}},
	}
	return caps
}

// newTestHandler wires a real Orchestrator (against fakes, following the
// session package's own test fixtures) behind the full httpapi router, so
// these tests exercise request decoding, handler dispatch and response
// encoding rather than re-testing the orchestrator itself.
func newTestHandler(t *testing.T, n int) http.Handler {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sessions, err := store.NewSessions(db)
	require.NoError(t, err)
	generators, err := store.NewGenerators(db)
	require.NoError(t, err)
	capStore, err := capability.New(db)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	kfCache := keyframe.NewCache(fakeKeyframeSource{})

	o := session.New(sessions, generators, capStore, newFakeCatalog(n), noopPublisher{}, clock, kfCache, planner.Options{})
	o.BaseURL = "/media"

	cmdBuilder := ffmpeg.NewCommandBuilder(nil)
	mgr, err := transcode.NewManager(t.TempDir(), cmdBuilder, 8)
	require.NoError(t, err)
	t.Cleanup(mgr.Close)

	return New(o, mgr, subtitle.NewConverter())
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-User-Id", "user-1")
	req.Header.Set("X-Device-Id", "device-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestStartPlaybackDirectPlay(t *testing.T) {
	handler := newTestHandler(t, 3)
	caps := directPlayCapability()

	rec := doJSON(t, handler, http.MethodPost, "/rpc/startPlayback", startPlaybackRequest{
		ItemID:     "item-0",
		Seed:       &seedRequest{Type: string(domain.SeedLibrary)},
		Capability: &caps,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp startPlaybackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, domain.ModeDirectPlay, resp.Plan.Mode)
	require.Equal(t, "item-0", resp.ItemID)
	require.NotEmpty(t, resp.SessionID)
}

func TestStartPlaybackUnknownItemIsNotFound(t *testing.T) {
	handler := newTestHandler(t, 1)

	rec := doJSON(t, handler, http.MethodPost, "/rpc/startPlayback", startPlaybackRequest{ItemID: "missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "not_found", resp.Code)
}

func TestStartPlaybackMalformedBodyIsBadRequest(t *testing.T) {
	handler := newTestHandler(t, 1)

	req := httptest.NewRequest(http.MethodPost, "/rpc/startPlayback", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHeartbeatReportsCapabilityMismatch(t *testing.T) {
	handler := newTestHandler(t, 1)
	caps := directPlayCapability()

	startRec := doJSON(t, handler, http.MethodPost, "/rpc/startPlayback", startPlaybackRequest{
		ItemID:     "item-0",
		Capability: &caps,
	})
	require.Equal(t, http.StatusOK, startRec.Code)
	var start startPlaybackResponse
	require.NoError(t, json.Unmarshal(startRec.Body.Bytes(), &start))

	stale := 0
	hbRec := doJSON(t, handler, http.MethodPost, "/rpc/heartbeat", heartbeatRequest{
		SessionID:         start.SessionID,
		PlayheadMs:        1000,
		State:             domain.SessionPlaying,
		CapabilityVersion: &stale,
	})
	require.Equal(t, http.StatusOK, hbRec.Code)

	var hb heartbeatResponse
	require.NoError(t, json.Unmarshal(hbRec.Body.Bytes(), &hb))
	require.True(t, hb.Mismatch)
}

func TestSeekSnapsToKeyframe(t *testing.T) {
	handler := newTestHandler(t, 1)
	caps := directPlayCapability()

	startRec := doJSON(t, handler, http.MethodPost, "/rpc/startPlayback", startPlaybackRequest{
		ItemID:     "item-0",
		Capability: &caps,
	})
	var start startPlaybackResponse
	require.NoError(t, json.Unmarshal(startRec.Body.Bytes(), &start))

	seekRec := doJSON(t, handler, http.MethodPost, "/rpc/seek", seekRequest{
		SessionID:   start.SessionID,
		TargetMs:    5500,
		MediaPartID: start.PartID,
	})
	require.Equal(t, http.StatusOK, seekRec.Code)

	var seek seekResponse
	require.NoError(t, json.Unmarshal(seekRec.Body.Bytes(), &seek))
	require.True(t, seek.HasGopIndex)
	require.Equal(t, int64(4000), seek.KeyframeMs)
}

func TestStopUnknownSessionIsNotFound(t *testing.T) {
	handler := newTestHandler(t, 1)

	rec := doJSON(t, handler, http.MethodPost, "/rpc/stop", stopRequest{SessionID: "does-not-exist"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashSegmentRejectsPathTraversal(t *testing.T) {
	handler := newTestHandler(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/part/part-0/dash/../../etc/passwd?sessionId=s1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	// chi normalizes ".." path segments away before routing reaches the
	// fileName param in most cases; the request goes through the full
	// router, and the assertion pins only that it is not served with 200.
	require.NotEqual(t, http.StatusOK, rec.Code)
}

func TestManifestRequiresSessionID(t *testing.T) {
	handler := newTestHandler(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/part/part-0/dash/manifest.mpd", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// Spec §8 "Subtitle HLS playlist": Σ of EXTINF durations equals media
// duration to within one segment length, and the last segment's end
// position equals total duration — exercised here with cues that end well
// before the part's actual media duration (silent outro past the last
// subtitle line), the exact case that masked a real duration mismatch
// before segment counts were driven off facts.Duration.
func TestRenderSubtitlePlaylist_DurationSumMatchesMediaDuration(t *testing.T) {
	const sampleVTT = `WEBVTT

00:00:00.000 --> 00:00:02.000
Hello there

00:00:03.500 --> 00:00:05.000
Cues end early
`
	const segmentLength = 4.0
	const totalSeconds = 27.0

	segments := subtitle.SplitIntoSegments([]byte(sampleVTT), segmentLength, totalSeconds)
	body := renderSubtitlePlaylist(segments, segmentLength, totalSeconds, 0, "s1")

	matches := extinfPattern.FindAllStringSubmatch(string(body), -1)
	require.NotEmpty(t, matches)

	var sum float64
	for _, m := range matches {
		d, err := strconv.ParseFloat(m[1], 64)
		require.NoError(t, err)
		sum += d
	}

	require.InDelta(t, totalSeconds, sum, segmentLength)
	require.Contains(t, string(body), "#EXT-X-ENDLIST")
}

func TestSubtitleStreamRejectsUnsupportedFormat(t *testing.T) {
	handler := newTestHandler(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/subtitle/part/part-0/stream/0/stream.txt?sessionId=s1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusForMapsEveryKind(t *testing.T) {
	cases := map[domain.ErrorKind]int{
		domain.KindNotFound:           http.StatusNotFound,
		domain.KindInvalidInput:       http.StatusBadRequest,
		domain.KindPlanUnavailable:    http.StatusUnprocessableEntity,
		domain.KindResourceExhausted:  http.StatusServiceUnavailable,
		domain.KindTimeout:            http.StatusGatewayTimeout,
		domain.KindConcurrencyConflict: http.StatusConflict,
		domain.KindEncoderFailed:      http.StatusNotFound,
		domain.ErrorKind(""):          http.StatusInternalServerError,
	}
	for kind, want := range cases {
		require.Equal(t, want, statusFor(kind), "kind=%s", kind)
	}
}
