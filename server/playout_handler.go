package server

import (
	"encoding/json"
	"net/http"

	"AirCue/logger"

	"github.com/gorilla/mux"
)

// ActivateRequest 激活请求体
type ActivateRequest struct {
	Rehearsal bool `json:"rehearsal"`
}

// TakeRequest 切播请求体。fromPartInstanceId 可选，
// 带上时做乐观并发检查，防止双击或迟到的请求重复切播。
type TakeRequest struct {
	FromPartInstanceID string `json:"fromPartInstanceId"`
}

// SetNextRequest 指定下一条请求体，partId 为空表示清空排队
type SetNextRequest struct {
	PartID string `json:"partId"`
}

// ActivateHandler POST /api/playlists/{id}/activate
func (h *APIHandler) ActivateHandler(w http.ResponseWriter, r *http.Request) {
	playlistID := mux.Vars(r)["id"]

	var req ActivateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
			return
		}
	}

	result, err := h.controller.Activate(r.Context(), playlistID, req.Rehearsal)
	if err != nil {
		logger.Warn("activate rejected",
			logger.String("playlist", playlistID),
			logger.ErrorField(err))
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// DeactivateHandler POST /api/playlists/{id}/deactivate
func (h *APIHandler) DeactivateHandler(w http.ResponseWriter, r *http.Request) {
	playlistID := mux.Vars(r)["id"]

	result, err := h.controller.Deactivate(r.Context(), playlistID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// TakeHandler POST /api/playlists/{id}/take
func (h *APIHandler) TakeHandler(w http.ResponseWriter, r *http.Request) {
	playlistID := mux.Vars(r)["id"]

	var req TakeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
			return
		}
	}

	result, err := h.controller.Take(r.Context(), playlistID, req.FromPartInstanceID)
	if err != nil {
		logger.Warn("take rejected",
			logger.String("playlist", playlistID),
			logger.ErrorField(err))
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SetNextHandler POST /api/playlists/{id}/next
func (h *APIHandler) SetNextHandler(w http.ResponseWriter, r *http.Request) {
	playlistID := mux.Vars(r)["id"]

	var req SetNextRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
			return
		}
	}

	result, err := h.controller.SetNextPart(r.Context(), playlistID, req.PartID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ResetHandler POST /api/playlists/{id}/reset
func (h *APIHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	playlistID := mux.Vars(r)["id"]

	result, err := h.controller.ResetPlaylist(r.Context(), playlistID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
