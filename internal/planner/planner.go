// Package planner implements the Stream Planner (Component B): a pure
// function from (source facts, capability profile) to a StreamPlan. It
// has no side effects and no collaborators — identical inputs always
// produce an identical plan, as spec §4.B requires.
package planner

import (
	"sort"
	"strconv"

	"github.com/nx-media/playcore/internal/domain"
)

// Options carries the deployment-level policy the pure decision procedure
// still needs: whether hardware acceleration may be used at all, and which
// accelerator (if any) this host actually has available. Both are supplied
// by the caller (internal/hwaccel's detection result), not derived here.
type Options struct {
	AllowHardwareAcceleration bool
	AvailableAccelerator      domain.Accelerator
}

// Plan computes the StreamPlan for one playback request. It never returns
// a plan that fails (*StreamPlan).Validate(); the one error path is
// PlanUnavailable when nothing in the capability matches at all.
func Plan(facts domain.SourceFacts, profile domain.CapabilityProfile, opts Options) (domain.StreamPlan, error) {
	caps := profile.Capabilities

	if plan, ok := tryDirectPlay(facts, caps); ok {
		return plan, nil
	}
	if plan, ok := tryDirectStream(facts, caps); ok {
		return plan, nil
	}
	plan, ok := tryTranscode(facts, caps, opts)
	if !ok {
		return domain.StreamPlan{}, domain.PlanUnavailable("no capability profile matches this source")
	}
	plan.Subtitle = planSubtitle(facts, caps)
	return plan, nil
}

// tryDirectPlay implements spec §4.B step 1.
func tryDirectPlay(facts domain.SourceFacts, caps domain.Capabilities) (domain.StreamPlan, bool) {
	video, hasVideo := facts.PrimaryVideo()
	audio, hasAudio := facts.PrimaryAudio()

	for _, dp := range caps.DirectPlayProfiles {
		if dp.MediaType != facts.MediaType {
			continue
		}
		if !containerListContains(dp.Container, facts.Container) {
			continue
		}
		if hasVideo && !codecListContains(dp.VideoCodec, video.Codec) {
			continue
		}
		if hasAudio && !codecListContains(dp.AudioCodec, audio.Codec) {
			continue
		}

		attrs := Merge(
			ContainerAttributes(facts.Container, video.Bitrate+audio.Bitrate),
			VideoAttributes(video),
			AudioAttributes(audio),
		)
		if !evaluateContainerAndCodecConditions(caps, facts.Container, video.Codec, audio.Codec, attrs, requiredGate) {
			continue
		}

		if video.Bitrate+audio.Bitrate > caps.MaxStreamingBitrate {
			continue
		}

		return domain.StreamPlan{
			Mode:                domain.ModeDirectPlay,
			Protocol:            domain.ProtocolProgressive,
			PartID:              facts.PartID,
			Container:           facts.Container,
			DirectURL:           facts.DirectURL,
			VideoStreamIndex:    video.Index,
			AudioStreamIndex:    audio.Index,
			SubtitleStreamIndex: -1,
			CopyVideo:           true,
			CopyAudio:           true,
		}, true
	}
	return domain.StreamPlan{}, false
}

// tryDirectStream implements spec §4.B step 2: same checks as direct play,
// but the output container may be a transcoding profile's container, as
// long as the source codecs are allowed for copy by that profile.
func tryDirectStream(facts domain.SourceFacts, caps domain.Capabilities) (domain.StreamPlan, bool) {
	video, hasVideo := facts.PrimaryVideo()
	audio, hasAudio := facts.PrimaryAudio()
	if !hasVideo && !hasAudio {
		return domain.StreamPlan{}, false
	}

	candidates := sortedTranscodingProfiles(caps.TranscodingProfiles)
	for _, profile := range candidates {
		if hasVideo && !codecListContains(profile.VideoCodec, video.Codec) {
			continue
		}
		if hasAudio && !codecListContains(profile.AudioCodec, audio.Codec) {
			continue
		}

		attrs := Merge(
			ContainerAttributes(profile.Container, video.Bitrate+audio.Bitrate),
			VideoAttributes(video),
			AudioAttributes(audio),
		)
		if !evaluateContainerAndCodecConditions(caps, profile.Container, video.Codec, audio.Codec, attrs, requiredGate) {
			continue
		}
		if video.Bitrate+audio.Bitrate > caps.MaxStreamingBitrate {
			continue
		}

		return domain.StreamPlan{
			Mode:                domain.ModeDirectStream,
			Protocol:            profile.Protocol,
			PartID:              facts.PartID,
			Container:           profile.Container,
			DirectURL:           facts.DirectURL,
			VideoStreamIndex:    video.Index,
			AudioStreamIndex:    audio.Index,
			SubtitleStreamIndex: -1,
			CopyVideo:           true,
			CopyAudio:           true,
		}, true
	}
	return domain.StreamPlan{}, false
}

// fallbackTranscodingProfile is synthesized when a capability declares no
// transcoding profiles at all (domain.DefaultCapabilities' shape). Without
// it the Transcode trial would have nothing to iterate and every playback
// request against a session with no declared capability would fail
// PlanUnavailable — contradicting spec §4.A's "the planner will route to
// Transcode for any real content" for exactly that profile. Resolved as an
// Open Question decision; see DESIGN.md.
//
// Its Conditions are required-for-transcoding gates against the same
// h264/aac/mp4 target it transcodes to, plus the capability's own
// streaming bitrate cap, so a mismatched source still records real
// transcodeReasons bits instead of only the generic container fallback
// (spec §8 scenario 3).
func fallbackTranscodingProfile(caps domain.Capabilities) domain.TranscodingProfile {
	return domain.TranscodingProfile{
		Container:        "mp4",
		Protocol:         domain.ProtocolDash,
		VideoCodec:       []string{"h264"},
		AudioCodec:       []string{"aac"},
		MaxAudioChannels: 2,
		Priority:         0,
		Conditions: []domain.ProfileCondition{
			{Property: "container", Operator: domain.OpEquals, Value: "mp4", IsRequiredForTranscoding: true},
			{Property: "videocodec", Operator: domain.OpEquals, Value: "h264", IsRequiredForTranscoding: true},
			{Property: "audiocodec", Operator: domain.OpEquals, Value: "aac", IsRequiredForTranscoding: true},
			{Property: "videobitrate", Operator: domain.OpLessThanEqual, Value: strconv.FormatInt(caps.MaxStreamingBitrate, 10), IsRequiredForTranscoding: true},
		},
	}
}

// tryTranscode implements spec §4.B step 3.
func tryTranscode(facts domain.SourceFacts, caps domain.Capabilities, opts Options) (domain.StreamPlan, bool) {
	video, hasVideo := facts.PrimaryVideo()
	audio, hasAudio := facts.PrimaryAudio()

	profiles := sortedTranscodingProfiles(caps.TranscodingProfiles)
	var profile domain.TranscodingProfile
	if len(profiles) == 0 {
		profile = fallbackTranscodingProfile(caps)
	} else {
		profile = profiles[0]
	}

	// applyConditions are evaluated against the source's own attributes
	// (spec §4.B step 3: "evaluate applyConditions ... against source
	// attributes"), not the target profile's — the profile's container is
	// what we're transcoding *to*, and comparing it to itself could never
	// surface a Container mismatch.
	attrs := Merge(
		ContainerAttributes(facts.Container, video.Bitrate+audio.Bitrate),
		VideoAttributes(video),
		AudioAttributes(audio),
	)
	_, failed := EvaluateGate(profile.Conditions, attrs, transcodeGate)
	reasons := reasonsFor(failed)
	if reasons == 0 {
		// Nothing failed: still a transcode (caller only reaches this
		// branch after DirectPlay/DirectStream were exhausted), so record
		// the container mismatch that sent us here at minimum.
		reasons = domain.ReasonContainer
	}

	targetVideoCodec := pickCodec(profile.VideoCodec, video.Codec, failed, "videocodec")
	targetAudioCodec := pickCodec(profile.AudioCodec, audio.Codec, failed, "audiocodec")

	targetHeight := 0
	targetWidth := 0
	targetBitrate := int64(0)
	if hasVideo {
		capMaxHeight := capMaxHeightFromConditions(profile.Conditions)
		targetHeight = capHeight(video.Height, capMaxHeight)
		targetWidth = widthForHeight(video.Width, video.Height, targetHeight)
		targetBitrate = clampBitrateForHeight(targetHeight, min64(video.Bitrate, caps.MaxStreamingBitrate))
	}

	targetChannels := 0
	if hasAudio {
		targetChannels = audio.Channels
		if profile.MaxAudioChannels > 0 {
			targetChannels = minInt(targetChannels, profile.MaxAudioChannels)
		}
	}

	useHW := opts.AllowHardwareAcceleration && opts.AvailableAccelerator != domain.AccelNone && opts.AvailableAccelerator != ""
	toneMap := hasVideo && video.IsHDR() && !caps.SupportsHdr && caps.SupportsToneMapping

	return domain.StreamPlan{
		Mode:                    domain.ModeTranscode,
		Protocol:                profile.Protocol,
		PartID:                  facts.PartID,
		Container:               profile.Container,
		ManifestURL:             "", // populated by the HTTP layer once the job exists
		VideoStreamIndex:        indexOr(video, hasVideo),
		AudioStreamIndex:        indexOr(audio, hasAudio),
		SubtitleStreamIndex:     -1,
		TargetVideoCodec:        targetVideoCodec,
		TargetAudioCodec:        targetAudioCodec,
		CopyVideo:               false,
		CopyAudio:               false,
		EnableToneMapping:       toneMap,
		UseHardwareAcceleration: useHW,
		TranscodeReasons:        reasons,
		TargetBitrate:           targetBitrate,
		TargetWidth:             targetWidth,
		TargetHeight:            targetHeight,
		TargetChannels:          targetChannels,
	}, true
}

func indexOr(s domain.MediaStreamFacts, has bool) int {
	if !has {
		return -1
	}
	return s.Index
}

// pickCodec keeps the source codec when allowed is empty, or when no failed
// condition concerns property and the source codec is in allowed;
// otherwise it returns the first allowed codec.
func pickCodec(allowed []string, sourceCodec string, failed []domain.ProfileCondition, property string) string {
	if len(allowed) == 0 {
		return sourceCodec
	}
	codecFailed := false
	for _, c := range failed {
		if c.Property == property {
			codecFailed = true
		}
	}
	if !codecFailed && codecListContains(allowed, sourceCodec) {
		return sourceCodec
	}
	return allowed[0]
}

// capMaxHeightFromConditions extracts a "height lessThanEqual N" condition
// if the profile declares one, 0 otherwise (no cap).
func capMaxHeightFromConditions(conds []domain.ProfileCondition) int {
	for _, c := range conds {
		if c.Property == "height" && c.Operator == domain.OpLessThanEqual {
			if v, ok := parseFloat(c.Value); ok {
				return int(v)
			}
		}
	}
	return 0
}

func sortedTranscodingProfiles(profiles []domain.TranscodingProfile) []domain.TranscodingProfile {
	out := append([]domain.TranscodingProfile(nil), profiles...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

func evaluateContainerAndCodecConditions(caps domain.Capabilities, container, videoCodec, audioCodec string, attrs Attributes, gate func(domain.ProfileCondition) bool) bool {
	for _, cp := range caps.ContainerProfiles {
		if !containerListContains(cp.Container, container) {
			continue
		}
		if ok, _ := EvaluateGate(cp.Conditions, attrs, gate); !ok {
			return false
		}
	}
	for _, cp := range caps.CodecProfiles {
		if !containerListContains(cp.Container, container) {
			continue
		}
		if !codecListContains(cp.Codec, videoCodec) && !codecListContains(cp.Codec, audioCodec) {
			continue
		}
		if ok, _ := EvaluateGate(cp.Conditions, attrs, gate); !ok {
			return false
		}
	}
	return true
}
