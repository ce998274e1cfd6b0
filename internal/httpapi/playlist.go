package httpapi

import (
	"net/http"

	"github.com/nx-media/playcore/internal/domain"
	"github.com/nx-media/playcore/internal/session"
)

func navigateResponseFrom(p session.NavigatePayload) navigatePayloadResponse {
	return navigatePayloadResponse{
		Items:        itemViewsFrom(p.Items),
		CurrentIndex: p.CurrentIndex,
		TotalCount:   p.TotalCount,
		HasMore:      p.HasMore,
		Shuffle:      p.Shuffle,
		Repeat:       p.Repeat,
	}
}

type chunkRequest struct {
	GeneratorID string `json:"generatorId"`
	StartIndex  int    `json:"startIndex"`
	Limit       int    `json:"limit"`
}

func (h *Handler) chunk(w http.ResponseWriter, r *http.Request) {
	var req chunkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	payload, err := h.orchestrator.Chunk(r.Context(), req.GeneratorID, req.StartIndex, req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navigateResponseFrom(payload))
}

type navigateRequest struct {
	GeneratorID string `json:"generatorId"`
	Direction   string `json:"direction"`
}

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	payload, err := h.orchestrator.Navigate(r.Context(), req.GeneratorID, req.Direction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navigateResponseFrom(payload))
}

type jumpRequest struct {
	GeneratorID string `json:"generatorId"`
	Index       int    `json:"index"`
}

func (h *Handler) jump(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	payload, err := h.orchestrator.Jump(r.Context(), req.GeneratorID, req.Index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navigateResponseFrom(payload))
}

type modeRequest struct {
	GeneratorID string `json:"generatorId"`
	Shuffle     *bool  `json:"shuffle,omitempty"`
	Repeat      *bool  `json:"repeat,omitempty"`
}

func (h *Handler) mode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Shuffle == nil && req.Repeat == nil {
		writeError(w, domain.InvalidInput("httpapi: mode request requires shuffle and/or repeat"))
		return
	}

	payload, err := h.orchestrator.SetMode(r.Context(), req.GeneratorID, req.Shuffle, req.Repeat)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navigateResponseFrom(payload))
}
