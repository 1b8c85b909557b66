package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/ameshram/learnify/config"
	"github.com/ameshram/learnify/db"
	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/services"
	"github.com/ameshram/learnify/services/llm"
	"github.com/ameshram/learnify/services/quiz"
	"github.com/ameshram/learnify/services/teaching"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	// Keep service logs out of the way of the lesson text.
	logger.Init("warn", cfg.Env)
	log := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
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

	tutor := NewTutor(
		teaching.NewService(gateway, cfg.MaxTokensTeaching),
		quiz.NewService(gateway, cfg.MaxTokensQuiz),
		services.NewSessionService(db.NewSQLSessionRepository(conn)),
		gateway,
		cfg.MaxTokensInsights,
		os.Stdin,
		os.Stdout,
	)

	if err := tutor.Run(ctx); err != nil {
		log.WithError(err).Fatal("Tutor failed")
	}
}
