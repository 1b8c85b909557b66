package handlers

import (
	"net/http"
	"strconv"

	"github.com/ameshram/learnify/services"

	"github.com/gorilla/mux"
)

const defaultRelatedLimit = 5

type SessionHandler struct {
	service *services.SessionService
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/history", h.History).Methods("GET")
	router.HandleFunc("/sessions/{session_id}", h.GetSession).Methods("GET")
	router.HandleFunc("/sessions/{session_id}/related", h.Related).Methods("GET")
}

func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", services.DefaultHistoryLimit)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	history, err := h.service.History(r.Context(), limit, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to retrieve history")
		return
	}

	writeJSONResponse(w, http.StatusOK, history)
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.GetSession(r.Context(), mux.Vars(r)["session_id"])
	if err != nil {
		writeServiceError(w, r, err, "Failed to retrieve session")
		return
	}

	writeJSONResponse(w, http.StatusOK, session)
}

func (h *SessionHandler) Related(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultRelatedLimit)
	if err != nil || limit <= 0 {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	related, err := h.service.Related(r.Context(), mux.Vars(r)["session_id"], limit)
	if err != nil {
		writeServiceError(w, r, err, "Failed to retrieve related sessions")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"related": related})
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
