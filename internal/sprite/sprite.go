// Package sprite generates trickplay sprite sheets (tiled thumbnail grids)
// and the WebVTT index that maps a scrub position to a sprite tile. Split
// out of the teacher's internal/misc.Generator, which combined this with
// subtitle extraction; here it's the concrete implementation behind
// spec.md's trickplayUrl field, which names the feature but doesn't
// design it.
package sprite

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
)

const (
	defaultThumbWidth  = 160
	defaultThumbHeight = 90
	defaultInterval    = 5.0
	defaultCols        = 10
	defaultRows        = 10
)

// Generator produces sprite sheets into a job-owned output directory, the
// same ownership model the Transcode Job Manager uses for segments.
type Generator struct {
	ThumbWidth  int
	ThumbHeight int
	Interval    float64
	Cols        int
	Rows        int
}

func NewGenerator() *Generator {
	return &Generator{
		ThumbWidth:  defaultThumbWidth,
		ThumbHeight: defaultThumbHeight,
		Interval:    defaultInterval,
		Cols:        defaultCols,
		Rows:        defaultRows,
	}
}

// Generate writes sprite-<n>.jpg files and a sprite.vtt index into
// outputDir for sourceURL. durationSeconds is the part's total duration;
// urlPattern is a fmt pattern (one %d verb) the caller uses to build each
// sprite sheet's public URL.
func (g *Generator) Generate(ctx context.Context, sourceURL string, durationSeconds float64, outputDir, urlPattern string) error {
	thumbsPerSprite := g.Cols * g.Rows
	totalThumbs := int(math.Ceil(durationSeconds / g.Interval))
	numSprites := int(math.Ceil(float64(totalThumbs) / float64(thumbsPerSprite)))
	if numSprites == 0 {
		numSprites = 1
	}

	outputPattern := filepath.Join(outputDir, "sprite-%d.jpg")
	args := []string{
		"-i", sourceURL,
		"-vf", fmt.Sprintf("fps=1/%g,scale=%d:%d,tile=%dx%d", g.Interval, g.ThumbWidth, g.ThumbHeight, g.Cols, g.Rows),
		"-q:v", "5",
		outputPattern,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("sprite: ffmpeg generation: %w", err)
	}

	vtt := g.vtt(durationSeconds, numSprites, urlPattern)
	if err := os.WriteFile(filepath.Join(outputDir, "sprite.vtt"), vtt, 0o644); err != nil {
		return fmt.Errorf("sprite: write vtt: %w", err)
	}
	return nil
}

func (g *Generator) vtt(duration float64, numSprites int, urlPattern string) []byte {
	var buf bytes.Buffer
	buf.WriteString("WEBVTT\n\n")

	currentTime := 0.0
	for spriteIndex := 0; spriteIndex < numSprites; spriteIndex++ {
		spriteURL := fmt.Sprintf(urlPattern, spriteIndex)
		for row := 0; row < g.Rows; row++ {
			for col := 0; col < g.Cols; col++ {
				if currentTime >= duration {
					break
				}
				startTime := currentTime
				endTime := math.Min(currentTime+g.Interval, duration)
				x := col * g.ThumbWidth
				y := row * g.ThumbHeight

				fmt.Fprintf(&buf, "%s --> %s\n", formatVTTTime(startTime), formatVTTTime(endTime))
				fmt.Fprintf(&buf, "%s#xywh=%d,%d,%d,%d\n\n", spriteURL, x, y, g.ThumbWidth, g.ThumbHeight)

				currentTime += g.Interval
			}
			if currentTime >= duration {
				break
			}
		}
	}
	return buf.Bytes()
}

func formatVTTTime(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	millis := int((seconds - float64(int(seconds))) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}
