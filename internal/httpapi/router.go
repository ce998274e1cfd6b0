// Package httpapi is the playback core's HTTP transport surface: the RPC
// operations of Component E and D (spec §6 "RPC surface") plus the
// segment/manifest endpoints of Component C and the subtitle/trickplay
// helpers. The teacher ships no HTTP layer of its own (goshl is a library
// consumed in-process); this package is grounded on the rest of the
// retrieved pack's chi conventions instead.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	xlog "github.com/nx-media/playcore/internal/log"
	"github.com/nx-media/playcore/internal/session"
	"github.com/nx-media/playcore/internal/subtitle"
	"github.com/nx-media/playcore/internal/transcode"
)

// Handler bundles the core components an HTTP request dispatches into.
type Handler struct {
	orchestrator *session.Orchestrator
	transcode    *transcode.Manager
	subtitles    *subtitle.Converter
	log          zerolog.Logger
}

// New wires Handler's collaborators and returns the composed router.
func New(orchestrator *session.Orchestrator, transcodeManager *transcode.Manager, subtitleConverter *subtitle.Converter) http.Handler {
	h := &Handler{
		orchestrator: orchestrator,
		transcode:    transcodeManager,
		subtitles:    subtitleConverter,
		log:          xlog.With("httpapi"),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.requestLogger)

	r.Route("/rpc", func(r chi.Router) {
		r.Post("/startPlayback", h.startPlayback)
		r.Post("/resumePlayback", h.resumePlayback)
		r.Post("/heartbeat", h.heartbeat)
		r.Post("/decide", h.decide)
		r.Post("/seek", h.seek)
		r.Post("/stop", h.stop)
		r.Post("/chunk", h.chunk)
		r.Post("/navigate", h.navigate)
		r.Post("/jump", h.jump)
		r.Post("/mode", h.mode)
	})

	r.Route("/part/{partId}", func(r chi.Router) {
		r.Get("/dash/manifest.mpd", h.dashManifest)
		r.Get("/dash/{fileName}", h.dashSegment)
		r.Get("/hls/master.m3u8", h.hlsManifest)
		r.Get("/hls/{fileName}", h.hlsSegment)
	})

	r.Route("/subtitle/part/{partId}/stream/{streamIndex}", func(r chi.Router) {
		r.Get("/stream.{format}", h.subtitleStream)
		r.Get("/playlist.m3u8", h.subtitlePlaylist)
	})

	return r
}

// requestLogger logs one structured line per request, correlated by the
// chi request id, matching the pack's convention of tagging log lines
// with ids rather than interpolating them into the message.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.Info().
			Str("requestId", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
