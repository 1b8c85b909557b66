package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ameshram/learnify/db"
	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/models"
	"github.com/ameshram/learnify/services"
	"github.com/ameshram/learnify/services/teaching"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type TeachHandler struct {
	teaching *teaching.Service
	sessions *services.SessionService
	live     *db.LiveStore
}

func NewTeachHandler(teaching *teaching.Service, sessions *services.SessionService, live *db.LiveStore) *TeachHandler {
	return &TeachHandler{teaching: teaching, sessions: sessions, live: live}
}

func (h *TeachHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/teach", h.Teach).Methods("POST")
}

// Teach streams the lesson as server-sent events, then persists it and reports the session id.
func (h *TeachHandler) Teach(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.WithContext(ctx)

	var req models.TeachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Warn("Failed to decode teach request JSON")
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	topic, difficulty, err := services.ValidateTeachRequest(&req)
	if err != nil {
		writeServiceError(w, r, err, "Invalid teach request")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	session, err := h.sessions.CreateSession(ctx, topic, difficulty)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create session")
		return
	}

	log = log.WithFields(logrus.Fields{"session_id": session.ID, "topic": topic})

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var content strings.Builder
	for fragment := range h.teaching.Teach(ctx, topic, string(difficulty)) {
		content.WriteString(fragment)
		if err := writeEvent(w, map[string]any{"content": fragment}); err != nil {
			log.WithError(err).Info("Client went away during teaching stream")
			return
		}
		flusher.Flush()
	}

	if ctx.Err() != nil {
		log.Info("Teaching stream cancelled by client")
		return
	}

	full := content.String()
	h.live.PutContent(session.ID, full)
	if err := h.sessions.SaveTeachingContent(ctx, session.ID, full); err != nil {
		if err := writeEvent(w, map[string]any{"error": "Failed to save teaching content"}); err != nil {
			log.WithError(err).Info("Client went away before the error event")
			return
		}
		flusher.Flush()
		return
	}

	if err := writeEvent(w, map[string]any{"done": true, "session_id": session.ID}); err != nil {
		log.WithError(err).Info("Client went away before the done event")
		return
	}
	flusher.Flush()
	log.Info("Successfully completed teaching stream")
}

func writeEvent(w http.ResponseWriter, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
