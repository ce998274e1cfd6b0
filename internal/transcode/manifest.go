package transcode

import (
	"fmt"
	"os"
	"sort"

	"github.com/nx-media/playcore/internal/domain"
)

// renderManifest picks the protocol-appropriate manifest writer for
// entry's current state. Called with entry's mutex free; it takes its own
// snapshot under lock before building the document.
func (m *Manager) renderManifest(entry *jobEntry) (body []byte, contentType string, err error) {
	entry.mu.Lock()
	job := entry.job
	plan := entry.plan
	entry.mu.Unlock()

	segments, err := listSegments(job.OutputDir)
	if err != nil {
		return nil, "", domain.EncoderFailed("transcode: list segments", err)
	}

	switch plan.Protocol {
	case domain.ProtocolHls:
		b, err := buildHLSManifest(job, segments, domain.DefaultSegmentDurationSeconds)
		return b, "application/vnd.apple.mpegurl", err
	case domain.ProtocolDash:
		b, err := buildDASHManifest(job, plan, segments, domain.DefaultSegmentDurationSeconds)
		return b, "application/dash+xml", err
	default:
		return nil, "", domain.InvalidInput(fmt.Sprintf("transcode: unsupported manifest protocol %q", plan.Protocol))
	}
}

// listSegments enumerates the numbered segment files currently present in
// dir, in index order. It reads the directory directly rather than
// consulting the watcher so a freshly-restarted job (whose watcher hasn't
// replayed fsnotify events yet) still reports what's actually on disk.
func listSegments(dir string) ([]domain.Segment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var segments []domain.Segment
	for _, e := range entries {
		idx, ok := parseSegmentIndex(e.Name())
		if !ok {
			continue
		}
		segments = append(segments, domain.Segment{Index: idx})
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Index < segments[j].Index })

	durationMs := int64(domain.DefaultSegmentDurationSeconds * 1000)
	for i := range segments {
		segments[i].StartMs = int64(segments[i].Index) * durationMs
		segments[i].DurationMs = durationMs
		segments[i].EndMs = segments[i].StartMs + durationMs
	}
	return segments, nil
}

func segmentExtension(protocol domain.Protocol) string {
	if protocol == domain.ProtocolDash {
		return "m4s"
	}
	return "ts"
}

func segmentFilename(protocol domain.Protocol, index int) string {
	return fmt.Sprintf("segment-%05d.%s", index, segmentExtension(protocol))
}
