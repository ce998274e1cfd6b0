// Package subtitle extracts a source subtitle stream to WebVTT and splits
// it into fixed-duration segments for HLS delivery alongside video/audio
// segments. Split out of the teacher's internal/misc.Generator, which
// combined this with sprite generation.
package subtitle

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Converter extracts one subtitle stream via the external media toolchain,
// in whichever of the three delivery formats the client asked for (spec §6
// "subtitle endpoints", format ∈ {vtt, srt, ass}).
type Converter struct{}

func NewConverter() *Converter { return &Converter{} }

// codecAndFormat maps a delivery format name to ffmpeg's subtitle codec and
// muxer names.
func codecAndFormat(format string) (codec, muxer string, ok bool) {
	switch format {
	case "vtt":
		return "webvtt", "webvtt", true
	case "srt":
		return "srt", "srt", true
	case "ass":
		return "ass", "ass", true
	default:
		return "", "", false
	}
}

// Extract converts subtitle stream streamIndex of sourceURL to the
// requested format.
func (c *Converter) Extract(ctx context.Context, sourceURL string, streamIndex int, format string) ([]byte, error) {
	codec, muxer, ok := codecAndFormat(format)
	if !ok {
		return nil, fmt.Errorf("subtitle: unsupported format %q", format)
	}

	args := []string{
		"-i", sourceURL,
		"-map", fmt.Sprintf("0:s:%d", streamIndex),
		"-c:s", codec,
		"-f", muxer,
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("subtitle: ffmpeg extraction: %w", err)
	}
	return output, nil
}

// ExtractVTT converts subtitle stream streamIndex of sourceURL to WebVTT.
// Kept as a thin alias of Extract for callers that only ever need WebVTT
// (the HLS segmentation and sprite/trickplay paths).
func (c *Converter) ExtractVTT(ctx context.Context, sourceURL string, streamIndex int) ([]byte, error) {
	return c.Extract(ctx, sourceURL, streamIndex, "vtt")
}

// vttTimestampMapLine is inserted immediately after the WEBVTT header when
// a client requests HLS alignment (spec §6 "addVttTimeMap=true"). The MPEG-TS
// clock base (900000 = 90kHz * 10s) matches the convention used to align
// WebVTT cues with HLS's 90kHz presentation timestamps.
const vttTimestampMapLine = "X-TIMESTAMP-MAP=MPEGTS:900000,LOCAL:00:00:00.000"

// InsertTimestampMap inserts the HLS timestamp-map line immediately after
// the WEBVTT header line, or returns vtt unchanged if it doesn't start with
// one.
func InsertTimestampMap(vtt []byte) []byte {
	nl := bytes.IndexByte(vtt, '\n')
	header := vtt
	if nl >= 0 {
		header = vtt[:nl]
	}
	if !bytes.HasPrefix(bytes.TrimRight(header, "\r"), []byte("WEBVTT")) {
		return vtt
	}
	if nl < 0 {
		return append(append([]byte{}, vtt...), []byte("\n"+vttTimestampMapLine+"\n")...)
	}

	out := make([]byte, 0, len(vtt)+len(vttTimestampMapLine)+1)
	out = append(out, vtt[:nl+1]...)
	out = append(out, []byte(vttTimestampMapLine+"\n")...)
	out = append(out, vtt[nl+1:]...)
	return out
}
