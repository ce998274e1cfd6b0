package httpapi

import (
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nx-media/playcore/internal/domain"
)

func querySessionID(r *http.Request) string {
	return r.URL.Query().Get("sessionId")
}

// dashManifest implements `GET {base}/part/{partId}/dash/manifest.mpd[?seekMs=N]`
// (spec §6, §4.C "Manifest endpoint"). hlsManifest is the HLS master-
// playlist equivalent; both share the same lookup-or-create-job logic
// since the plan already fixes which protocol applies to this part.
func (h *Handler) dashManifest(w http.ResponseWriter, r *http.Request) { h.manifest(w, r) }
func (h *Handler) hlsManifest(w http.ResponseWriter, r *http.Request)  { h.manifest(w, r) }

func (h *Handler) manifest(w http.ResponseWriter, r *http.Request) {
	partID := chi.URLParam(r, "partId")
	sessionID := querySessionID(r)
	if sessionID == "" {
		writeError(w, domain.InvalidInput("httpapi: manifest request requires sessionId"))
		return
	}

	var seekMs int64
	if raw := r.URL.Query().Get("seekMs"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, domain.InvalidInput("httpapi: invalid seekMs"))
			return
		}
		seekMs = v
	}

	facts, plan, kf, err := h.orchestrator.ResolvePart(r.Context(), sessionID, partID)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.transcode.Manifest(r.Context(), facts, plan, kf, seekMs)
	if err != nil {
		writeError(w, err)
		return
	}

	if res.ActualStartMs > 0 {
		w.Header().Set("X-Dash-Start-Time-Ms", strconv.FormatInt(res.ActualStartMs, 10))
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Body)
}

// dashSegment and hlsSegment implement `GET {base}/part/{partId}/dash/{fileName}`
// and its HLS equivalent (spec §6, §4.C "Segment endpoint").
func (h *Handler) dashSegment(w http.ResponseWriter, r *http.Request) { h.segment(w, r) }
func (h *Handler) hlsSegment(w http.ResponseWriter, r *http.Request)  { h.segment(w, r) }

func (h *Handler) segment(w http.ResponseWriter, r *http.Request) {
	partID := chi.URLParam(r, "partId")
	fileName := chi.URLParam(r, "fileName")
	sessionID := querySessionID(r)
	if sessionID == "" {
		writeError(w, domain.InvalidInput("httpapi: segment request requires sessionId"))
		return
	}
	if strings.Contains(fileName, "..") || strings.Contains(fileName, "/") {
		writeError(w, domain.InvalidInput("httpapi: invalid segment filename"))
		return
	}

	facts, plan, kf, err := h.orchestrator.ResolvePart(r.Context(), sessionID, partID)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.transcode.Segment(r.Context(), facts, plan, kf, fileName)
	if err != nil {
		writeError(w, err)
		return
	}

	contentType := contentTypeForSegment(fileName)
	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, res.Path)
}

func contentTypeForSegment(fileName string) string {
	if ct := mime.TypeByExtension(filepath.Ext(fileName)); ct != "" {
		return ct
	}
	return "video/mp4"
}
