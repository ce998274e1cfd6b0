package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// cue is one parsed WebVTT subtitle cue.
type cue struct {
	startSeconds float64
	endSeconds   float64
	text         []string
}

// SplitIntoSegments re-chunks a full WebVTT file into one WebVTT document
// per fixed-duration window, matching the video/audio segment boundaries
// an HLS subtitle rendition must align with (spec §1 "segmented WebVTT
// delivery", supplemented — spec.md's distillation names subtitles but not
// the HLS-segmented delivery format). A cue spanning a segment boundary is
// duplicated (clipped to each segment's time window), which is the
// standard WebVTT-in-HLS handling.
//
// totalSeconds is the part's actual media duration, not just the span the
// cues happen to cover: a silent intro, trailing music, or a cue/probe
// mismatch can leave the last cue ending well before the real end of the
// media, and the segment count must still reach the true end so the
// playlist's EXTINF sum tracks media duration (spec §8 "Subtitle HLS
// playlist").
func SplitIntoSegments(vtt []byte, segmentSeconds, totalSeconds float64) [][]byte {
	if segmentSeconds <= 0 {
		return [][]byte{vtt}
	}
	cues := parseCues(vtt)

	segmentCount := segmentCountFor(totalSeconds, segmentSeconds, cues)
	if segmentCount == 0 {
		return nil
	}

	segments := make([][]byte, segmentCount)
	for i := range segments {
		segStart := float64(i) * segmentSeconds
		segEnd := segStart + segmentSeconds
		segments[i] = renderSegment(cues, segStart, segEnd)
	}
	return segments
}

// segmentCountFor covers the longer of the media's real duration and
// whatever the cues themselves run past (a cue should never be silently
// dropped just because it runs past a bad duration value).
func segmentCountFor(totalSeconds, segmentSeconds float64, cues []cue) int {
	duration := totalSeconds
	if len(cues) > 0 {
		if lastEnd := cues[len(cues)-1].endSeconds; lastEnd > duration {
			duration = lastEnd
		}
	}
	if duration <= 0 {
		return 0
	}
	return int(math.Ceil(duration / segmentSeconds))
}

func renderSegment(cues []cue, segStart, segEnd float64) []byte {
	var buf bytes.Buffer
	buf.WriteString("WEBVTT\n\n")
	for _, c := range cues {
		if c.endSeconds <= segStart || c.startSeconds >= segEnd {
			continue
		}
		start := maxFloat(c.startSeconds, segStart)
		end := minFloat(c.endSeconds, segEnd)
		fmt.Fprintf(&buf, "%s --> %s\n", formatVTTTime(start), formatVTTTime(end))
		for _, line := range c.text {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func parseCues(vtt []byte) []cue {
	scanner := bufio.NewScanner(bytes.NewReader(vtt))
	var cues []cue
	var current *cue

	for scanner.Scan() {
		line := scanner.Text()
		if start, end, ok := parseCueTiming(line); ok {
			if current != nil {
				cues = append(cues, *current)
			}
			current = &cue{startSeconds: start, endSeconds: end}
			continue
		}
		if current == nil {
			continue
		}
		if strings.TrimSpace(line) == "" {
			cues = append(cues, *current)
			current = nil
			continue
		}
		current.text = append(current.text, line)
	}
	if current != nil {
		cues = append(cues, *current)
	}
	return cues
}

func parseCueTiming(line string) (start, end float64, ok bool) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, sok := parseVTTTime(strings.TrimSpace(parts[0]))
	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, false
	}
	end, eok := parseVTTTime(endField[0])
	return start, end, sok && eok
}

func parseVTTTime(s string) (float64, bool) {
	s = strings.TrimSuffix(s, ",")
	fields := strings.Split(s, ":")
	var h, m int
	var sec float64
	switch len(fields) {
	case 3:
		h, _ = strconv.Atoi(fields[0])
		m, _ = strconv.Atoi(fields[1])
		var err error
		sec, err = strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return 0, false
		}
	case 2:
		m, _ = strconv.Atoi(fields[0])
		var err error
		sec, err = strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	return float64(h)*3600 + float64(m)*60 + sec, true
}

func formatVTTTime(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	millis := int((seconds - float64(int(seconds))) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
