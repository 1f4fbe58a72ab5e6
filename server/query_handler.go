package server

import (
	"net/http"

	"AirCue/logger"

	"github.com/gorilla/mux"
)

// ListStudiosHandler GET /api/studios
func (h *APIHandler) ListStudiosHandler(w http.ResponseWriter, r *http.Request) {
	studios, err := h.studioRepo.List(r.Context())
	if err != nil {
		logger.Error("failed to list studios", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, studios)
}

// ListPlaylistsHandler GET /api/playlists?studio=<id>
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	studioID := r.URL.Query().Get("studio")

	var err error
	var playlists interface{}
	if studioID != "" {
		playlists, err = h.playlistRepo.ListByStudio(r.Context(), studioID)
	} else {
		playlists, err = h.playlistRepo.List(r.Context())
	}
	if err != nil {
		logger.Error("failed to list playlists", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// GetPlaylistHandler GET /api/playlists/{id}
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID := mux.Vars(r)["id"]

	playlist, err := h.playlistRepo.GetByID(r.Context(), playlistID)
	if err != nil {
		logger.Error("failed to load playlist", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}
	if playlist == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "playlist not found"})
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// GetPlaylistRundownsHandler GET /api/playlists/{id}/rundowns
func (h *APIHandler) GetPlaylistRundownsHandler(w http.ResponseWriter, r *http.Request) {
	playlistID := mux.Vars(r)["id"]

	rundowns, err := h.rundownRepo.ListByPlaylist(r.Context(), playlistID)
	if err != nil {
		logger.Error("failed to list rundowns", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, rundowns)
}
