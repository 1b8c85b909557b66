package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
)

type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

type RouterConfig struct {
	RateLimitPerMinute int
	CORSOrigins        []string
}

// NewRouter mounts every registrar under /api behind the rate limiter and wraps the whole
// tree in request id, logging, security header and CORS middleware.
func NewRouter(cfg RouterConfig, registrars ...RouteRegistrar) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware)
	for _, registrar := range registrars {
		registrar.RegisterRoutes(api)
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})

	var handler http.Handler = router
	handler = corsHandler(handler)
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}
