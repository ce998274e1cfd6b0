// Package probe wraps ffprobe to answer the two questions the Transcode
// Job Manager needs that the catalog (an external, out-of-scope
// collaborator) doesn't supply: the source's GoP boundaries, for
// keyframe-aligned restarts, and a fallback source-facts reading when a
// manifest is requested for a part the catalog hasn't probed yet.
package probe

import (
	"bufio"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"github.com/nx-media/playcore/internal/domain"
)

type Prober struct{}

func NewProber() *Prober { return &Prober{} }

// Probe runs ffprobe once and returns both stream facts and keyframe
// timestamps for sourceURL.
func (p *Prober) Probe(ctx context.Context, sourceURL string) (domain.SourceFacts, []float64, error) {
	facts, err := p.probeStreams(ctx, sourceURL)
	if err != nil {
		return domain.SourceFacts{}, nil, err
	}
	keyframes, err := p.probeKeyframes(ctx, sourceURL)
	if err != nil {
		return domain.SourceFacts{}, nil, err
	}
	return facts, keyframes, nil
}

// Keyframes runs only the (cheaper, packet-level) keyframe scan, for
// restarts where stream facts are already known from the catalog.
func (p *Prober) Keyframes(ctx context.Context, sourceURL string) ([]float64, error) {
	return p.probeKeyframes(ctx, sourceURL)
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	Index            int               `json:"index"`
	CodecName        string            `json:"codec_name"`
	CodecType        string            `json:"codec_type"`
	Profile          string            `json:"profile"`
	Level            int               `json:"level"`
	Width            int               `json:"width"`
	Height           int               `json:"height"`
	RFrameRate       string            `json:"r_frame_rate"`
	Channels         int               `json:"channels"`
	SampleRate       string            `json:"sample_rate"`
	BitRate          string            `json:"bit_rate"`
	BitsPerRawSample string            `json:"bits_per_raw_sample"`
	ColorTransfer    string            `json:"color_transfer"`
	ColorSpace       string            `json:"color_space"`
	RefFrames        int               `json:"refs"`
	Tags             map[string]string `json:"tags"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

func (p *Prober) probeStreams(ctx context.Context, url string) (domain.SourceFacts, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-of", "json",
		url,
	)

	output, err := cmd.Output()
	if err != nil {
		return domain.SourceFacts{}, err
	}

	var ff ffprobeOutput
	if err := json.Unmarshal(output, &ff); err != nil {
		return domain.SourceFacts{}, err
	}

	facts := domain.SourceFacts{DirectURL: url}
	if dur, err := strconv.ParseFloat(ff.Format.Duration, 64); err == nil {
		facts.Duration = int64(dur * 1000)
	}

	for _, s := range ff.Streams {
		switch s.CodecType {
		case "video":
			videoBitrate := parseBitrate(s.BitRate)
			if videoBitrate == 0 {
				videoBitrate = parseBitrate(s.Tags["BPS"])
			}
			facts.MediaType = domain.MediaVideo
			facts.Video = append(facts.Video, domain.MediaStreamFacts{
				Index:         s.Index,
				Type:          domain.MediaVideo,
				Codec:         s.CodecName,
				Profile:       s.Profile,
				Level:         float64(s.Level),
				Bitrate:       int64(videoBitrate),
				Width:         s.Width,
				Height:        s.Height,
				FrameRate:     parseFrameRate(s.RFrameRate),
				BitDepth:      parseBitrate(s.BitsPerRawSample),
				ColorSpace:    s.ColorSpace,
				ColorTransfer: s.ColorTransfer,
				RefFrames:     s.RefFrames,
			})
		case "audio":
			facts.Audio = append(facts.Audio, domain.MediaStreamFacts{
				Index:      s.Index,
				Type:       domain.MediaAudio,
				Codec:      s.CodecName,
				Bitrate:    int64(parseBitrate(s.BitRate)),
				Channels:   s.Channels,
				SampleRate: parseBitrate(s.SampleRate),
				Language:   s.Tags["language"],
			})
		case "subtitle":
			facts.Subtitles = append(facts.Subtitles, domain.MediaStreamFacts{
				Index:    s.Index,
				Codec:    s.CodecName,
				Language: s.Tags["language"],
			})
		}
	}

	return facts, nil
}

func (p *Prober) probeKeyframes(ctx context.Context, url string) ([]float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "packet=pts_time,flags",
		"-of", "csv=p=0",
		url,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	var keyframes []float64
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.Split(line, ",")
		if len(parts) < 2 || !strings.Contains(parts[1], "K") {
			continue
		}
		pts, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			continue
		}
		keyframes = append(keyframes, pts)
	}

	if err := cmd.Wait(); err != nil {
		return nil, err
	}
	return keyframes, nil
}

func parseBitrate(s string) int {
	if s == "" {
		return 0
	}
	v, _ := strconv.Atoi(s)
	return v
}

func parseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, _ := strconv.ParseFloat(parts[0], 64)
	den, _ := strconv.ParseFloat(parts[1], 64)
	if den == 0 {
		return 0
	}
	return num / den
}
