package httpapi

import (
	"net/http"

	"github.com/nx-media/playcore/internal/domain"
)

// startPlaybackRequest is spec §6's `{ itemId, originator?, context?,
// capabilityVersion?, capability? }`, extended with an optional full seed
// for non-single-item playback (album/season/library/etc, spec §4.D).
type startPlaybackRequest struct {
	ItemID            string               `json:"itemId"`
	Seed              *seedRequest         `json:"seed,omitempty"`
	Originator        string               `json:"originator,omitempty"`
	Context           string               `json:"context,omitempty"`
	CapabilityVersion *int                 `json:"capabilityVersion,omitempty"`
	Capability        *domain.Capabilities `json:"capability,omitempty"`
}

type startPlaybackResponse struct {
	SessionID         string            `json:"sessionId"`
	GeneratorID       string            `json:"generatorId"`
	ItemID            string            `json:"itemId"`
	PartID            string            `json:"partId"`
	CapabilityVersion int               `json:"capabilityVersion"`
	Plan              domain.StreamPlan `json:"plan"`
	PlaybackURL       string            `json:"playbackUrl"`
	TrickplayURL      string            `json:"trickplayUrl,omitempty"`
	DurationMs        int64             `json:"durationMs"`
	PlaylistIndex     int               `json:"playlistIndex"`
	PlaylistTotal     int               `json:"playlistTotal"`
	Shuffle           bool              `json:"shuffle"`
	Repeat            bool              `json:"repeat"`
}

func (h *Handler) startPlayback(w http.ResponseWriter, r *http.Request) {
	var req startPlaybackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	seed := domain.Seed{Type: domain.SeedSingle, OriginatorID: req.ItemID}
	if req.Seed != nil {
		seed = req.Seed.toDomain()
	}

	userID, deviceID := identityFrom(r)
	payload, err := h.orchestrator.Start(r.Context(), userID, deviceID, seed, req.Capability, req.CapabilityVersion, req.Originator, req.Context)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, startPlaybackResponse{
		SessionID:         payload.SessionID,
		GeneratorID:       payload.GeneratorID,
		ItemID:            payload.ItemID,
		PartID:            payload.PartID,
		CapabilityVersion: payload.CapabilityVersion,
		Plan:              payload.Plan,
		PlaybackURL:       payload.PlaybackURL,
		TrickplayURL:      payload.TrickplayURL,
		DurationMs:        payload.DurationMs,
		PlaylistIndex:     payload.PlaylistIndex,
		PlaylistTotal:     payload.PlaylistTotal,
		Shuffle:           payload.Shuffle,
		Repeat:            payload.Repeat,
	})
}

type resumePlaybackRequest struct {
	SessionID         string               `json:"sessionId"`
	CapabilityVersion *int                 `json:"capabilityVersion,omitempty"`
	Capability        *domain.Capabilities `json:"capability,omitempty"`
}

type resumePlaybackResponse struct {
	SessionID         string              `json:"sessionId"`
	ItemID            string              `json:"itemId"`
	PartID            string              `json:"partId"`
	PlayheadMs        int64               `json:"playheadMs"`
	State             domain.SessionState `json:"state"`
	Plan              domain.StreamPlan   `json:"plan"`
	PlaybackURL       string              `json:"playbackUrl"`
	CapabilityVersion int                 `json:"capabilityVersion"`
	Mismatch          bool                `json:"mismatch"`
}

func (h *Handler) resumePlayback(w http.ResponseWriter, r *http.Request) {
	var req resumePlaybackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	payload, err := h.orchestrator.Resume(r.Context(), req.SessionID, req.Capability, req.CapabilityVersion)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resumePlaybackResponse{
		SessionID:         payload.SessionID,
		ItemID:            payload.ItemID,
		PartID:            payload.PartID,
		PlayheadMs:        payload.PlayheadMs,
		State:             payload.State,
		Plan:              payload.Plan,
		PlaybackURL:       payload.PlaybackURL,
		CapabilityVersion: payload.CapabilityVersion,
		Mismatch:          payload.Mismatch,
	})
}

type heartbeatRequest struct {
	SessionID         string               `json:"sessionId"`
	PlayheadMs        int64                `json:"playheadMs"`
	State             domain.SessionState  `json:"state"`
	MediaPartID       string               `json:"mediaPartId,omitempty"`
	CapabilityVersion *int                 `json:"capabilityVersion,omitempty"`
	Capability        *domain.Capabilities `json:"capability,omitempty"`
}

type heartbeatResponse struct {
	SessionID         string `json:"sessionId"`
	CapabilityVersion int    `json:"capabilityVersion"`
	Mismatch          bool   `json:"mismatch"`
}

func (h *Handler) heartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.orchestrator.Heartbeat(r.Context(), req.SessionID, req.PlayheadMs, req.State, req.MediaPartID, req.Capability, req.CapabilityVersion)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, heartbeatResponse{
		SessionID:         req.SessionID,
		CapabilityVersion: res.CapabilityVersion,
		Mismatch:          res.Mismatch,
	})
}

type decideRequest struct {
	SessionID         string               `json:"sessionId"`
	CurrentItemID     string               `json:"currentItemId,omitempty"`
	Status            string               `json:"status"`
	ProgressMs        int64                `json:"progressMs"`
	JumpIndex         *int                 `json:"jumpIndex,omitempty"`
	CapabilityVersion *int                 `json:"capabilityVersion,omitempty"`
	Capability        *domain.Capabilities `json:"capability,omitempty"`
}

type decideResponse struct {
	Action            domain.NavigateAction `json:"action"`
	StreamPlanJSON    *domain.StreamPlan    `json:"streamPlanJson,omitempty"`
	NextItemID        string                `json:"nextItemId,omitempty"`
	PlaybackURL       string                `json:"playbackUrl,omitempty"`
	TrickplayURL      string                `json:"trickplayUrl,omitempty"`
	CapabilityVersion int                   `json:"capabilityVersion"`
	Mismatch          bool                  `json:"mismatch"`
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.orchestrator.Decide(r.Context(), req.SessionID, req.Status, req.ProgressMs, req.JumpIndex, req.Capability, req.CapabilityVersion)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, decideResponse{
		Action:            res.Action,
		StreamPlanJSON:    res.Plan,
		NextItemID:        res.NextItemID,
		PlaybackURL:       res.PlaybackURL,
		TrickplayURL:      res.TrickplayURL,
		CapabilityVersion: res.CapabilityVersion,
		Mismatch:          res.Mismatch,
	})
}

type seekRequest struct {
	SessionID   string `json:"sessionId"`
	TargetMs    int64  `json:"targetMs"`
	MediaPartID string `json:"mediaPartId"`
}

type seekResponse struct {
	KeyframeMs       int64 `json:"keyframeMs"`
	GopDurationMs    int64 `json:"gopDurationMs"`
	HasGopIndex      bool  `json:"hasGopIndex"`
	OriginalTargetMs int64 `json:"originalTargetMs"`
}

func (h *Handler) seek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.orchestrator.Seek(r.Context(), req.SessionID, req.TargetMs, req.MediaPartID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, seekResponse{
		KeyframeMs:       res.KeyframeMs,
		GopDurationMs:    res.GopDurationMs,
		HasGopIndex:      res.HasGopIndex,
		OriginalTargetMs: res.OriginalTargetMs,
	})
}

type stopRequest struct {
	SessionID string `json:"sessionId"`
}

type stopResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.orchestrator.Stop(r.Context(), req.SessionID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stopResponse{Success: true})
}
