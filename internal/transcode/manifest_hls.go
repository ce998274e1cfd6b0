package transcode

import (
	"fmt"
	"math"

	"github.com/mogiioin/hls-m3u8/m3u8"

	"github.com/nx-media/playcore/internal/domain"
)

// buildHLSManifest renders a media playlist covering the segments currently
// on disk for job. A job still running is encoded as an EVENT playlist (no
// EXT-X-ENDLIST) so a player keeps reloading it; a finished job is closed.
func buildHLSManifest(job domain.TranscodeJob, segments []domain.Segment, segmentSeconds float64) ([]byte, error) {
	capacity := uint(len(segments))
	if capacity == 0 {
		capacity = 1
	}

	playlist, err := m3u8.NewMediaPlaylist(0, capacity)
	if err != nil {
		return nil, fmt.Errorf("transcode: new media playlist: %w", err)
	}

	playlist.TargetDuration = uint(math.Ceil(segmentSeconds))
	if job.State == domain.JobFinished {
		playlist.MediaType = m3u8.VOD
	} else {
		playlist.MediaType = m3u8.EVENT
	}

	for _, seg := range segments {
		uri := segmentFilename(domain.ProtocolHls, seg.Index)
		if err := playlist.Append(uri, float64(seg.DurationMs)/1000.0, ""); err != nil {
			return nil, fmt.Errorf("transcode: append segment %d: %w", seg.Index, err)
		}
	}

	if job.State == domain.JobFinished {
		playlist.Close()
	}

	return playlist.Encode().Bytes(), nil
}
