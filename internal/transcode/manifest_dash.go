package transcode

import (
	"encoding/xml"
	"fmt"

	"github.com/nx-media/playcore/internal/domain"
)

// DASH has no equivalent in the pack's m3u8 dependency, and no third-party
// MPD library is part of any example repo's stack; the standard library's
// encoding/xml is the documented, idiomatic way to marshal a fixed schema
// like this one, so this is the one manifest writer in this package built without an
// example-grounded third-party dependency (see DESIGN.md).

type mpdRoot struct {
	XMLName       xml.Name  `xml:"MPD"`
	Xmlns         string    `xml:"xmlns,attr"`
	Profiles      string    `xml:"profiles,attr"`
	Type          string    `xml:"type,attr"`
	MinBufferTime string    `xml:"minBufferTime,attr"`
	Period        mpdPeriod `xml:"Period"`
}

type mpdPeriod struct {
	AdaptationSets []mpdAdaptationSet `xml:"AdaptationSet"`
}

type mpdAdaptationSet struct {
	ContentType     string              `xml:"contentType,attr"`
	MimeType        string              `xml:"mimeType,attr"`
	Representations []mpdRepresentation `xml:"Representation"`
}

type mpdRepresentation struct {
	ID              string             `xml:"id,attr"`
	Codecs          string             `xml:"codecs,attr"`
	Bandwidth       int64              `xml:"bandwidth,attr"`
	Width           int                `xml:"width,attr,omitempty"`
	Height          int                `xml:"height,attr,omitempty"`
	SegmentTemplate mpdSegmentTemplate `xml:"SegmentTemplate"`
}

type mpdSegmentTemplate struct {
	Media          string `xml:"media,attr"`
	Initialization string `xml:"initialization,attr"`
	Timescale      int    `xml:"timescale,attr"`
	Duration       int    `xml:"duration,attr"`
	StartNumber    int    `xml:"startNumber,attr"`
}

// buildDASHManifest renders a minimal MPD with one video and one audio
// adaptation set, each a single Representation matching the resolved plan.
// Like the HLS writer, the manifest only ever describes segments actually
// present on disk.
func buildDASHManifest(job domain.TranscodeJob, plan domain.StreamPlan, segments []domain.Segment, segmentSeconds float64) ([]byte, error) {
	const timescale = 1000

	template := mpdSegmentTemplate{
		Media:          fmt.Sprintf("segment-$Number%%05d$.%s", segmentExtension(domain.ProtocolDash)),
		Initialization: "init.mp4",
		Timescale:      timescale,
		Duration:       int(segmentSeconds * timescale),
		StartNumber:    0,
	}
	if len(segments) > 0 {
		template.StartNumber = segments[0].Index
	}

	adaptationSets := []mpdAdaptationSet{
		{
			ContentType: "video",
			MimeType:    "video/mp4",
			Representations: []mpdRepresentation{{
				ID:              "video-" + string(job.VariantKey),
				Codecs:          plan.TargetVideoCodec,
				Bandwidth:       plan.TargetBitrate,
				Width:           plan.TargetWidth,
				Height:          plan.TargetHeight,
				SegmentTemplate: template,
			}},
		},
		{
			ContentType: "audio",
			MimeType:    "audio/mp4",
			Representations: []mpdRepresentation{{
				ID:              "audio-" + string(job.VariantKey),
				Codecs:          plan.TargetAudioCodec,
				SegmentTemplate: template,
			}},
		},
	}

	mpdType := "dynamic"
	if job.State == domain.JobFinished {
		mpdType = "static"
	}

	root := mpdRoot{
		Xmlns:         "urn:mpeg:dash:schema:mpd:2011",
		Profiles:      "urn:mpeg:dash:profile:isoff-live:2011",
		Type:          mpdType,
		MinBufferTime: "PT2S",
		Period:        mpdPeriod{AdaptationSets: adaptationSets},
	}

	out, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("transcode: marshal mpd: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
