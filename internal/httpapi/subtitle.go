package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nx-media/playcore/internal/domain"
	"github.com/nx-media/playcore/internal/subtitle"
)

const defaultSubtitleSegmentSeconds = 10.0

var subtitleContentTypes = map[string]string{
	"vtt": "text/vtt",
	"srt": "application/x-subrip",
	"ass": "text/x-ssa",
}

// subtitleStream implements `GET {base}/subtitle/part/{partId}/stream/{streamIndex}/stream.{format}`
// (spec §6 "Subtitle endpoints"). startPositionTicks/endPositionTicks
// trimming is left to the client-facing player (the core always returns
// the full converted track); addVttTimeMap is honored per spec.
func (h *Handler) subtitleStream(w http.ResponseWriter, r *http.Request) {
	partID := chi.URLParam(r, "partId")
	format := chi.URLParam(r, "format")
	sessionID := querySessionID(r)

	streamIndex, err := strconv.Atoi(chi.URLParam(r, "streamIndex"))
	if err != nil {
		writeError(w, domain.InvalidInput("httpapi: invalid streamIndex"))
		return
	}
	contentType, ok := subtitleContentTypes[format]
	if !ok {
		writeError(w, domain.InvalidInput("httpapi: unsupported subtitle format "+format))
		return
	}

	sourceURL, err := h.subtitleSourceURL(r, sessionID, partID)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := h.subtitles.Extract(r.Context(), sourceURL, streamIndex, format)
	if err != nil {
		writeError(w, domain.EncoderFailed("httpapi: subtitle extraction failed", err))
		return
	}

	if format == "vtt" && r.URL.Query().Get("addVttTimeMap") == "true" {
		body = subtitle.InsertTimestampMap(body)
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// subtitlePlaylist implements `GET {base}/subtitle/part/{partId}/stream/{streamIndex}/playlist.m3u8?segmentLength=S`
// (spec §6, §8 "Subtitle HLS playlist").
func (h *Handler) subtitlePlaylist(w http.ResponseWriter, r *http.Request) {
	partID := chi.URLParam(r, "partId")
	streamIndexRaw := chi.URLParam(r, "streamIndex")
	sessionID := querySessionID(r)

	streamIndex, err := strconv.Atoi(streamIndexRaw)
	if err != nil {
		writeError(w, domain.InvalidInput("httpapi: invalid streamIndex"))
		return
	}

	segmentLength := defaultSubtitleSegmentSeconds
	if raw := r.URL.Query().Get("segmentLength"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			writeError(w, domain.InvalidInput("httpapi: invalid segmentLength"))
			return
		}
		segmentLength = v
	}

	if sessionID == "" {
		writeError(w, domain.InvalidInput("httpapi: subtitle request requires sessionId"))
		return
	}
	facts, _, _, err := h.orchestrator.ResolvePart(r.Context(), sessionID, partID)
	if err != nil {
		writeError(w, err)
		return
	}

	vtt, err := h.subtitles.ExtractVTT(r.Context(), facts.DirectURL, streamIndex)
	if err != nil {
		writeError(w, domain.EncoderFailed("httpapi: subtitle extraction failed", err))
		return
	}

	totalSeconds := float64(facts.Duration) / 1000.0
	segments := subtitle.SplitIntoSegments(vtt, segmentLength, totalSeconds)
	body := renderSubtitlePlaylist(segments, segmentLength, totalSeconds, streamIndex, sessionID)

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) subtitleSourceURL(r *http.Request, sessionID, partID string) (string, error) {
	if sessionID == "" {
		return "", domain.InvalidInput("httpapi: subtitle request requires sessionId")
	}
	facts, _, _, err := h.orchestrator.ResolvePart(r.Context(), sessionID, partID)
	if err != nil {
		return "", err
	}
	return facts.DirectURL, nil
}

// renderSubtitlePlaylist renders the VOD HLS playlist wrapping the
// segmented WebVTT documents SplitIntoSegments produced. Each EXTINF carries the
// segment's true remaining duration so the sum of durations matches
// totalSeconds to within one segment length (spec §8 "Subtitle HLS
// playlist").
func renderSubtitlePlaylist(segments [][]byte, segmentLength, totalSeconds float64, streamIndex int, sessionID string) []byte {
	var buf []byte
	write := func(s string) { buf = append(buf, s...) }

	write("#EXTM3U\n")
	write("#EXT-X-VERSION:3\n")
	write(fmt.Sprintf("#EXT-X-TARGETDURATION:%d\n", int(segmentLength)+1))
	write("#EXT-X-PLAYLIST-TYPE:VOD\n")
	write("#EXT-X-MEDIA-SEQUENCE:0\n")

	position := 0.0
	for i := range segments {
		duration := segmentLength
		if remaining := totalSeconds - position; i == len(segments)-1 || remaining < segmentLength {
			duration = remaining
		}
		write(fmt.Sprintf("#EXTINF:%.3f,\n", duration))
		write(fmt.Sprintf("stream.vtt?streamIndex=%d&sessionId=%s&segment=%d\n", streamIndex, sessionID, i))
		position += duration
	}
	write("#EXT-X-ENDLIST\n")
	return buf
}
