package session

import "github.com/nx-media/playcore/internal/domain"

// PlaybackStartPayload is returned by Start (spec §4.E, §6 "startPlayback").
type PlaybackStartPayload struct {
	SessionID         string
	GeneratorID       string
	ItemID            string
	PartID            string
	CapabilityVersion int
	Plan              domain.StreamPlan
	PlaybackURL       string
	TrickplayURL      string
	DurationMs        int64
	PlaylistIndex     int
	PlaylistTotal     int
	Shuffle           bool
	Repeat            bool
}

// PlaybackResumePayload is returned by Resume (spec §6 "resumePlayback").
type PlaybackResumePayload struct {
	SessionID         string
	ItemID            string
	PartID            string
	PlayheadMs        int64
	State             domain.SessionState
	Plan              domain.StreamPlan
	PlaybackURL       string
	CapabilityVersion int
	Mismatch          bool
}

// HeartbeatResult is returned by Heartbeat (spec §6 "heartbeat").
type HeartbeatResult struct {
	CapabilityVersion int
	Mismatch          bool
}

// DecideResult is returned by Decide (spec §6 "decide").
type DecideResult struct {
	Action            domain.NavigateAction
	Plan              *domain.StreamPlan
	NextItemID        string
	PlaybackURL       string
	TrickplayURL      string
	CapabilityVersion int
	Mismatch          bool
}

// SeekResult is returned by Seek (spec §6 "seek"). It never itself restarts
// a transcode job — that happens lazily on the next segment request (spec
// §4.E "Does not restart the transcode directly").
type SeekResult struct {
	KeyframeMs       int64
	GopDurationMs    int64
	HasGopIndex      bool
	OriginalTargetMs int64
}

// NavigatePayload is returned by chunk/navigate/jump/mode (spec §6
// "PlaylistNavigatePayload").
type NavigatePayload struct {
	Items         []domain.PlaylistItemView
	CurrentIndex  int
	TotalCount    int
	HasMore       bool
	Shuffle       bool
	Repeat        bool
}
