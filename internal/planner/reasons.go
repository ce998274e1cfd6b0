package planner

import "github.com/nx-media/playcore/internal/domain"

// reasonForProperty maps a failed condition's property name to the
// transcodeReasons bit it sets (spec §4.B step 3, §3 bitfield list).
var reasonForProperty = map[string]domain.TranscodeReason{
	"container":     domain.ReasonContainer,
	"videocodec":    domain.ReasonVideoCodec,
	"audiocodec":    domain.ReasonAudioCodec,
	"subtitlecodec": domain.ReasonSubtitleCodec,
	"videobitrate":  domain.ReasonVideoBitrate,
	"audiobitrate":  domain.ReasonAudioBitrate,
	"width":         domain.ReasonResolution,
	"height":        domain.ReasonResolution,
	"videolevel":    domain.ReasonVideoLevel,
	"videoprofile":  domain.ReasonVideoProfile,
	"refframes":     domain.ReasonRefFrames,
	"bitdepth":      domain.ReasonBitDepth,
	"channels":      domain.ReasonAudioChannels,
	"samplerate":    domain.ReasonSampleRate,
}

func reasonsFor(failed []domain.ProfileCondition) domain.TranscodeReason {
	var r domain.TranscodeReason
	for _, c := range failed {
		if flag, ok := reasonForProperty[c.Property]; ok {
			r |= flag
		}
	}
	return r
}
