package domain

import "time"

// JobState is the lifecycle of one transcode worker process (spec §3).
type JobState string

const (
	JobStarting JobState = "starting"
	JobRunning  JobState = "running"
	JobPaused   JobState = "paused"
	JobFinished JobState = "finished"
	JobFailed   JobState = "failed"
)

// VariantKey names a reusable transcode output directory: it's derived
// from a plan's target codecs/bitrate/resolution/protocol so that two
// sessions requesting the same effective rendition of the same part share
// one job (spec §6 "Variant key").
type VariantKey string

// TranscodeJob is one live (or recently live) encoder worker, scoped to a
// single (PartID, VariantKey) (spec §3, §4.C).
type TranscodeJob struct {
	ID          string
	SessionID   string
	PartID      string
	VariantKey  VariantKey
	Protocol    Protocol
	State       JobState
	OutputDir   string
	LastPingAt  time.Time
	Error       string
	CurrentSegmentIndex int // -1 = unknown
}

// Segment describes one fixed-duration output chunk produced by an
// encoder worker.
type Segment struct {
	Index    int
	StartMs  int64
	EndMs    int64
	DurationMs int64
}

// DefaultSegmentDurationSeconds is the target duration of one DASH/HLS
// segment (spec §4.C).
const DefaultSegmentDurationSeconds = 4.0

// ActiveWindow is how recently a job must have been pinged to be immune
// from LRU eviction (spec §4.C, §5).
const ActiveWindow = 30 * time.Second

// RestartDeadline bounds how long a segment/manifest wait may run before
// the caller gets a timeout (spec §4.C).
const RestartDeadline = 30 * time.Second

// WorkerStopGrace bounds how long a worker's cooperative stop may take
// before it is killed outright (spec §5).
const WorkerStopGrace = 5 * time.Second
