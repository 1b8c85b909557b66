package handlers

import (
	"net/http"

	"github.com/ameshram/learnify/services/llm"

	"github.com/gorilla/mux"
)

type UsageHandler struct {
	llm llm.Gateway
}

func NewUsageHandler(gateway llm.Gateway) *UsageHandler {
	return &UsageHandler{llm: gateway}
}

func (h *UsageHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/usage", h.Usage).Methods("GET")
}

func (h *UsageHandler) Usage(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.llm.Usage())
}
