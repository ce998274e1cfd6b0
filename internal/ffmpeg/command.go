// Package ffmpeg builds the argument list for the external media toolchain
// invocation a transcode worker execs. It never runs the command itself;
// internal/transcode owns the process lifecycle.
package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nx-media/playcore/internal/domain"
)

// CommandBuilder turns a StreamPlan plus job placement (source URL, output
// directory, starting segment/offset) into ffmpeg CLI arguments. Adapted
// from the teacher's rendition-keyed builder to be plan-keyed: one job now
// produces both the video and audio elementary streams of a single
// StreamPlan in one encoder invocation, matching spec §4.C's "one worker
// per job" model rather than the teacher's separate video/audio pools.
type CommandBuilder struct {
	HWAccel *domain.HWAccelConfig
}

func NewCommandBuilder(hwAccel *domain.HWAccelConfig) *CommandBuilder {
	return &CommandBuilder{HWAccel: hwAccel}
}

// Params describes one segmented transcode invocation.
type Params struct {
	InputURL       string
	Plan           domain.StreamPlan
	StartSeconds   float64 // seek offset into the source, post keyframe alignment
	StartSegment   int     // segment_start_number
	SegmentSeconds float64
	KeyframeTimes  []float64 // absolute source timestamps of segment boundaries, when known
	OutputDir      string
}

// Build returns the ffmpeg argument list for a segmented transcode/remux
// job. Container selection between mpegts (hls) and fragmented mp4 (dash)
// follows the plan's protocol.
func (b *CommandBuilder) Build(p Params) []string {
	args := []string{"-nostats", "-hide_banner", "-loglevel", "warning"}

	if !p.Plan.CopyVideo {
		args = append(args, b.HWAccel.DecodeFlags...)
	}

	args = append(args,
		"-ss", fmt.Sprintf("%.6f", p.StartSeconds),
		"-i", p.InputURL,
		"-copyts",
		"-start_at_zero",
		"-muxdelay", "0",
	)

	if p.Plan.VideoStreamIndex >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:V:%d", p.Plan.VideoStreamIndex))
		args = append(args, b.videoEncodeArgs(p)...)
	}
	if p.Plan.AudioStreamIndex >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:a:%d", p.Plan.AudioStreamIndex))
		args = append(args, b.audioEncodeArgs(p.Plan)...)
	}

	ext := "ts"
	muxer := "mpegts"
	if p.Plan.Protocol == domain.ProtocolDash {
		ext = "m4s"
		muxer = "mp4"
		args = append(args, "-movflags", "frag_keyframe+empty_moov+default_base_moof")
	}

	outputPattern := filepath.Join(p.OutputDir, fmt.Sprintf("segment-%%05d.%s", ext))

	args = append(args,
		"-f", "segment",
		"-segment_time_delta", "0.05",
		"-segment_format", muxer,
		"-segment_list_type", "flat",
		"-segment_list", "pipe:1",
		"-segment_start_number", fmt.Sprintf("%d", p.StartSegment),
		"-segment_time", fmt.Sprintf("%.6f", p.SegmentSeconds),
	)

	if times := formatKeyframeTimes(p.KeyframeTimes, p.StartSeconds); times != "" {
		args = append(args, "-segment_times", times)
	}

	args = append(args, outputPattern)
	return args
}

func (b *CommandBuilder) videoEncodeArgs(p Params) []string {
	if p.Plan.CopyVideo {
		return []string{"-c:v", "copy"}
	}

	args := append([]string(nil), b.HWAccel.EncodeFlags...)
	args = append(args,
		"-vf", fmt.Sprintf(b.HWAccel.ScaleFilter, p.Plan.TargetWidth, p.Plan.TargetHeight),
		"-b:v", fmt.Sprintf("%d", p.Plan.TargetBitrate),
		"-maxrate", fmt.Sprintf("%d", int(float64(p.Plan.TargetBitrate)*1.5)),
		"-bufsize", fmt.Sprintf("%d", p.Plan.TargetBitrate*5),
	)
	if p.Plan.EnableToneMapping {
		args = append(args, "-vf", "zscale=t=linear:npl=100,format=gbrpf32le,zscale=p=bt709,tonemap=hable,zscale=t=bt709:m=bt709:r=tv,format=yuv420p")
	}
	if times := formatKeyframeTimes(p.KeyframeTimes, p.StartSeconds); times != "" {
		args = append(args, b.HWAccel.KeyframeFlag, times)
	}
	if b.HWAccel.Accelerator == domain.AccelCUDA {
		args = append(args, "-forced-idr", "1")
	}
	return args
}

func (b *CommandBuilder) audioEncodeArgs(plan domain.StreamPlan) []string {
	if plan.CopyAudio {
		return []string{"-c:a", "copy"}
	}
	return []string{
		"-c:a", plan.TargetAudioCodec,
		"-ac", fmt.Sprintf("%d", plan.TargetChannels),
	}
}

// formatKeyframeTimes renders absolute keyframe timestamps as
// seekOffset-relative seconds for ffmpeg's -segment_times/-force_key_frames.
func formatKeyframeTimes(keyframes []float64, seekOffset float64) string {
	if len(keyframes) == 0 {
		return ""
	}
	times := make([]string, 0, len(keyframes))
	for _, t := range keyframes {
		times = append(times, fmt.Sprintf("%.6f", t-seekOffset))
	}
	return strings.Join(times, ",")
}
