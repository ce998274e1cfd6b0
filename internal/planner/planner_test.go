package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nx-media/playcore/internal/domain"
)

func directPlayCapability() domain.Capabilities {
	return domain.Capabilities{
		MaxStreamingBitrate: 60_000_000,
		DirectPlayProfiles: []domain.DirectPlayProfile{
			{MediaType: domain.MediaVideo, Container: []string{"mp4"}, VideoCodec: []string{"h264"}, AudioCodec: []string{"aac"}},
		},
	}
}

func scenario1Facts() domain.SourceFacts {
	return domain.SourceFacts{
		PartID:    "part-1",
		Container: "mp4",
		MediaType: domain.MediaVideo,
		DirectURL: "https://media.example/part-1",
		Video:     []domain.MediaStreamFacts{{Index: 0, Codec: "h264", Bitrate: 3_500_000, Width: 1920, Height: 1080}},
		Audio:     []domain.MediaStreamFacts{{Index: 1, Codec: "aac", Bitrate: 500_000, Channels: 2}},
	}
}

// Spec §8 scenario 1: direct play straight-through.
func TestPlan_Scenario1_DirectPlayStraightThrough(t *testing.T) {
	facts := scenario1Facts()
	caps := directPlayCapability()

	plan, err := Plan(facts, domain.CapabilityProfile{Capabilities: caps}, Options{})
	require.NoError(t, err)

	require.Equal(t, domain.ModeDirectPlay, plan.Mode)
	require.Equal(t, domain.ProtocolProgressive, plan.Protocol)
	require.Equal(t, domain.TranscodeReason(0), plan.TranscodeReasons)
	require.Equal(t, facts.DirectURL, plan.DirectURL)
	require.True(t, plan.CopyVideo)
	require.True(t, plan.CopyAudio)
	require.NoError(t, plan.Validate())
}

// Spec §8 scenario 2: container change only (mkv source, mp4 direct-play
// profile doesn't match container, but an mp4 transcoding profile allows
// copying the source codecs into a remux).
func TestPlan_Scenario2_ContainerChangeOnly(t *testing.T) {
	facts := domain.SourceFacts{
		PartID:    "part-2",
		Container: "mkv",
		MediaType: domain.MediaVideo,
		DirectURL: "https://media.example/part-2",
		Video:     []domain.MediaStreamFacts{{Index: 0, Codec: "h264", Bitrate: 3_500_000, Width: 1920, Height: 1080}},
		Audio:     []domain.MediaStreamFacts{{Index: 1, Codec: "aac", Bitrate: 500_000, Channels: 2}},
	}
	caps := domain.Capabilities{
		MaxStreamingBitrate: 60_000_000,
		DirectPlayProfiles: []domain.DirectPlayProfile{
			{MediaType: domain.MediaVideo, Container: []string{"mp4"}, VideoCodec: []string{"h264"}, AudioCodec: []string{"aac"}},
		},
		TranscodingProfiles: []domain.TranscodingProfile{
			{Container: "mp4", Protocol: domain.ProtocolDash, VideoCodec: []string{"h264"}, AudioCodec: []string{"aac"}},
		},
	}

	plan, err := Plan(facts, domain.CapabilityProfile{Capabilities: caps}, Options{})
	require.NoError(t, err)

	require.Equal(t, domain.ModeDirectStream, plan.Mode)
	require.Equal(t, domain.ProtocolDash, plan.Protocol)
	require.True(t, plan.CopyVideo)
	require.True(t, plan.CopyAudio)
	require.Equal(t, domain.TranscodeReason(0), plan.TranscodeReasons)
	require.NoError(t, plan.Validate())
}

// Spec §8 scenario 3: codec transcode. Source mkv/hevc/dtshd against a
// capability that only declares a direct-play mp4/h264/aac profile (no
// declared transcoding profile, so the synthesized fallback applies) with
// a 20 Mbps streaming cap against a 30 Mbps source video stream.
func TestPlan_Scenario3_CodecTranscode(t *testing.T) {
	facts := domain.SourceFacts{
		PartID:    "part-3",
		Container: "mkv",
		MediaType: domain.MediaVideo,
		DirectURL: "https://media.example/part-3",
		Video:     []domain.MediaStreamFacts{{Index: 0, Codec: "hevc", Bitrate: 30_000_000, Width: 3840, Height: 2160}},
		Audio:     []domain.MediaStreamFacts{{Index: 1, Codec: "dtshd", Bitrate: 10_000_000, Channels: 6}},
	}
	caps := domain.Capabilities{
		MaxStreamingBitrate: 20_000_000,
		DirectPlayProfiles: []domain.DirectPlayProfile{
			{MediaType: domain.MediaVideo, Container: []string{"mp4"}, VideoCodec: []string{"h264"}, AudioCodec: []string{"aac"}},
		},
	}

	plan, err := Plan(facts, domain.CapabilityProfile{Capabilities: caps}, Options{})
	require.NoError(t, err)

	require.Equal(t, domain.ModeTranscode, plan.Mode)
	const want = domain.ReasonContainer | domain.ReasonVideoCodec | domain.ReasonAudioCodec | domain.ReasonVideoBitrate
	require.Equal(t, domain.TranscodeReason(23), want, "sanity: bitmask literal matches spec §8 scenario 3's 23")
	require.Equal(t, want, plan.TranscodeReasons)
	require.Equal(t, "h264", plan.TargetVideoCodec)
	require.Equal(t, "aac", plan.TargetAudioCodec)
	require.LessOrEqual(t, plan.TargetBitrate, caps.MaxStreamingBitrate)
	require.NoError(t, plan.Validate())
}

// Planner determinism (spec §8): identical inputs always produce a
// structurally equal plan.
func TestPlan_Determinism(t *testing.T) {
	facts := scenario1Facts()
	caps := directPlayCapability()
	profile := domain.CapabilityProfile{Capabilities: caps}

	first, err := Plan(facts, profile, Options{})
	require.NoError(t, err)
	second, err := Plan(facts, profile, Options{})
	require.NoError(t, err)

	require.Equal(t, first, second)
}

// Planner monotonicity on capability (spec §8): expanding a capability by
// adding a matching direct-play profile never downgrades the plan from
// DirectPlay to Transcode.
func TestPlan_Monotonicity_ExpandingDirectPlayNeverDowngrades(t *testing.T) {
	facts := scenario1Facts()

	narrow := domain.Capabilities{
		MaxStreamingBitrate: 60_000_000,
		TranscodingProfiles: []domain.TranscodingProfile{
			{Container: "mp4", Protocol: domain.ProtocolDash, VideoCodec: []string{"h264"}, AudioCodec: []string{"aac"}},
		},
	}
	before, err := Plan(facts, domain.CapabilityProfile{Capabilities: narrow}, Options{})
	require.NoError(t, err)
	require.NotEqual(t, domain.ModeDirectPlay, before.Mode)

	expanded := narrow
	expanded.DirectPlayProfiles = []domain.DirectPlayProfile{
		{MediaType: domain.MediaVideo, Container: []string{"mp4"}, VideoCodec: []string{"h264"}, AudioCodec: []string{"aac"}},
	}
	after, err := Plan(facts, domain.CapabilityProfile{Capabilities: expanded}, Options{})
	require.NoError(t, err)
	require.Equal(t, domain.ModeDirectPlay, after.Mode)
}

// Transcode reasons soundness (spec §8): mode == Transcode iff
// transcodeReasons != 0, across a spread of fixtures that exercise every
// trial outcome.
func TestPlan_TranscodeReasonsSoundness(t *testing.T) {
	cases := []struct {
		name  string
		facts domain.SourceFacts
		caps  domain.Capabilities
	}{
		{"direct play", scenario1Facts(), directPlayCapability()},
		{"default capability, no declarations", scenario1Facts(), domain.DefaultCapabilities()},
		{
			"codec mismatch forces transcode",
			domain.SourceFacts{
				PartID: "p", Container: "mkv", MediaType: domain.MediaVideo,
				Video: []domain.MediaStreamFacts{{Index: 0, Codec: "hevc", Bitrate: 5_000_000, Width: 1920, Height: 1080}},
				Audio: []domain.MediaStreamFacts{{Index: 1, Codec: "dtshd", Bitrate: 500_000}},
			},
			domain.Capabilities{MaxStreamingBitrate: 60_000_000},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := Plan(tc.facts, domain.CapabilityProfile{Capabilities: tc.caps}, Options{})
			require.NoError(t, err)
			require.Equal(t, plan.Mode == domain.ModeTranscode, plan.TranscodeReasons != 0)
			require.NoError(t, plan.Validate())
		})
	}
}
