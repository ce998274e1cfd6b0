package ffmpeg

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/nx-media/playcore/internal/domain"
)

var testHW = &domain.HWAccelConfig{
	Accelerator:  domain.AccelNone,
	DecodeFlags:  []string{"-hwaccel", "none"},
	EncodeFlags:  []string{"-c:v", "libx264"},
	Encoder:      "libx264",
	KeyframeFlag: "-force_key_frames",
	ScaleFilter:  "scale=%d:%d",
}

func TestBuild_TranscodeHLSIncludesScaleAndSegmentTimes(t *testing.T) {
	builder := NewCommandBuilder(testHW)
	plan := domain.StreamPlan{
		Mode:             domain.ModeTranscode,
		Protocol:         domain.ProtocolHls,
		VideoStreamIndex: 0,
		AudioStreamIndex: 0,
		TargetAudioCodec: "aac",
		TargetChannels:   2,
		TargetWidth:      1280,
		TargetHeight:     720,
		TargetBitrate:    2_000_000,
		TranscodeReasons: domain.ReasonVideoCodec,
	}

	args := builder.Build(Params{
		InputURL:       "input.mp4",
		Plan:           plan,
		StartSeconds:   12.0,
		StartSegment:   0,
		SegmentSeconds: 4.0,
		KeyframeTimes:  []float64{12.0, 18.5, 24.0},
		OutputDir:      "/tmp/out",
	})

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-vf scale=1280:720") {
		t.Fatalf("missing scale filter: %s", joined)
	}
	if !strings.Contains(joined, "-segment_times 0.000000,6.500000,12.000000") {
		t.Fatalf("expected relative segment times, got %s", joined)
	}
	if !strings.Contains(joined, filepath.Join("/tmp/out", "segment-%05d.ts")) {
		t.Fatalf("output pattern missing: %s", joined)
	}
	if !strings.Contains(joined, "-segment_format mpegts") {
		t.Fatalf("expected mpegts muxer for hls: %s", joined)
	}
}

func TestBuild_DirectStreamCopiesBothStreams(t *testing.T) {
	builder := NewCommandBuilder(testHW)
	plan := domain.StreamPlan{
		Mode:             domain.ModeDirectStream,
		Protocol:         domain.ProtocolDash,
		VideoStreamIndex: 0,
		AudioStreamIndex: 0,
		CopyVideo:        true,
		CopyAudio:        true,
	}

	args := builder.Build(Params{
		InputURL:       "input.mkv",
		Plan:           plan,
		StartSeconds:   29.5,
		StartSegment:   5,
		SegmentSeconds: 6.0,
		OutputDir:      "/tmp/out",
	})

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-c:v copy") || !strings.Contains(joined, "-c:a copy") {
		t.Fatalf("direct stream should copy both streams: %s", joined)
	}
	if !strings.Contains(joined, "-segment_format mp4") {
		t.Fatalf("expected fragmented mp4 muxer for dash: %s", joined)
	}
	if !strings.Contains(joined, "-segment_start_number 5") {
		t.Fatalf("missing start segment number: %s", joined)
	}
}

func TestBuild_ToneMappingAddedWhenEnabled(t *testing.T) {
	builder := NewCommandBuilder(testHW)
	plan := domain.StreamPlan{
		Protocol:          domain.ProtocolHls,
		VideoStreamIndex:  0,
		AudioStreamIndex:  -1,
		TargetWidth:       1920,
		TargetHeight:      1080,
		TargetBitrate:     8_000_000,
		EnableToneMapping: true,
	}

	args := builder.Build(Params{Plan: plan, OutputDir: "/tmp/out", SegmentSeconds: 4})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "tonemap=hable") {
		t.Fatalf("expected tonemap filter when EnableToneMapping is set: %s", joined)
	}
}

func TestBuild_CUDAForcesIDR(t *testing.T) {
	builder := NewCommandBuilder(&domain.HWAccelConfig{
		Accelerator:  domain.AccelCUDA,
		DecodeFlags:  []string{"-hwaccel", "cuda"},
		EncodeFlags:  []string{"-c:v", "h264_nvenc"},
		Encoder:      "h264_nvenc",
		KeyframeFlag: "-force_key_frames",
		ScaleFilter:  "scale_cuda=%d:%d:format=nv12",
	})

	plan := domain.StreamPlan{
		Protocol:         domain.ProtocolHls,
		VideoStreamIndex: 2,
		AudioStreamIndex: -1,
		TargetWidth:      640,
		TargetHeight:     360,
		TargetBitrate:    600_000,
	}

	args := builder.Build(Params{
		Plan:          plan,
		OutputDir:     "/tmp/out",
		KeyframeTimes: []float64{0, 2.5, 5.0},
		SegmentSeconds: 4,
	})

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-forced-idr 1") {
		t.Fatalf("cuda should force idr frames: %s", joined)
	}
	if !strings.Contains(joined, "-vf scale_cuda=640:360:format=nv12") {
		t.Fatalf("cuda scale missing: %s", joined)
	}
}

func TestFormatKeyframeTimes(t *testing.T) {
	if got := formatKeyframeTimes(nil, 0); got != "" {
		t.Fatalf("expected empty for no keyframes, got %q", got)
	}
	if got := formatKeyframeTimes([]float64{5, 8, 11}, 4); got != "1.000000,4.000000,7.000000" {
		t.Fatalf("unexpected offset times %q", got)
	}
}
