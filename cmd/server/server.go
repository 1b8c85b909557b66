package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ameshram/learnify/config"
	"github.com/ameshram/learnify/db"
	"github.com/ameshram/learnify/handlers"
	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/services"
	"github.com/ameshram/learnify/services/llm"
	"github.com/ameshram/learnify/services/pinecone"
	"github.com/ameshram/learnify/services/quiz"
	"github.com/ameshram/learnify/services/teaching"

	"github.com/sirupsen/logrus"
)

const (
	liveSweepInterval = time.Minute
	shutdownTimeout   = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	logger.Init(cfg.LogLevel, cfg.Env)
	log := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer conn.Close()

	gateway, err := llm.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize LLM gateway")
	}

	live := db.NewLiveStore(cfg.LiveTTL)
	go live.Run(ctx, liveSweepInterval)

	sessionService := services.NewSessionService(db.NewSQLSessionRepository(conn))
	if cfg.RelatedSessionsEnabled() {
		index, err := pinecone.NewService(cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize session index")
		}
		if err := index.EnsureIndex(ctx); err != nil {
			log.WithError(err).Fatal("Failed to ensure session index")
		}
		sessionService = sessionService.WithIndex(index)
	} else {
		log.Info("Related sessions disabled: PINECONE_API_KEY and OPENAI_API_KEY are required")
	}

	router := handlers.NewRouter(
		handlers.RouterConfig{
			RateLimitPerMinute: cfg.RateLimitPerMinute,
			CORSOrigins:        cfg.CORSOrigins,
		},
		handlers.NewTeachHandler(teaching.NewService(gateway, cfg.MaxTokensTeaching), sessionService, live),
		handlers.NewQuizHandler(quiz.NewService(gateway, cfg.MaxTokensQuiz), sessionService, live, gateway, cfg.MaxTokensInsights),
		handlers.NewSessionHandler(sessionService),
		handlers.NewUsageHandler(gateway),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"provider": cfg.ModelProvider,
			"db":       cfg.DBDriver,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}
