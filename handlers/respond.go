package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ameshram/learnify/db"
	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/services"
	"github.com/ameshram/learnify/services/llm"
	"github.com/ameshram/learnify/services/quiz"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps core errors onto HTTP responses. Unrecognised errors are logged and
// reported with the generic fallback message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &validationErr):
		writeErrorResponse(w, http.StatusBadRequest, validationErr.Reason)
	case errors.Is(err, quiz.ErrQuestionNotFound), errors.Is(err, quiz.ErrOptionNotFound):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrSessionNotFound):
		writeErrorResponse(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, db.ErrQuizNotFound):
		writeErrorResponse(w, http.StatusNotFound, "Quiz not found")
	case errors.Is(err, quiz.ErrAlreadyAnswered):
		writeErrorResponse(w, http.StatusConflict, "Question already answered")
	case errors.Is(err, services.ErrRelatedDisabled):
		writeErrorResponse(w, http.StatusNotImplemented, "Related sessions are not enabled")
	case errors.Is(err, llm.ErrUpstreamRateLimit):
		writeErrorResponse(w, http.StatusServiceUnavailable, "Rate limit reached. Please wait.")
	default:
		logger.WithContext(r.Context()).WithError(err).Error(fallback)
		writeErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}
