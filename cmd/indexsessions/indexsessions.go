package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/ameshram/learnify/config"
	"github.com/ameshram/learnify/db"
	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/models"
	"github.com/ameshram/learnify/services/pinecone"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Backfills the related-sessions index with completed sessions from the database.
func main() {
	limit := flag.Int("limit", 1000, "maximum number of recent sessions to index")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	logger.Init(cfg.LogLevel, cfg.Env)
	log := logger.Logger()

	log.Info("Starting session indexing process")

	if !cfg.RelatedSessionsEnabled() {
		log.Fatal("PINECONE_API_KEY and OPENAI_API_KEY environment variables are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer conn.Close()

	index, err := pinecone.NewService(cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName)
	if err != nil {
		log.WithError(err).Fatal("Failed to create session index")
	}
	if err := index.EnsureIndex(ctx); err != nil {
		log.WithError(err).Fatal("Failed to ensure Pinecone index")
	}

	sessions, err := db.NewSQLSessionRepository(conn).ListRecent(ctx, *limit)
	if err != nil {
		log.WithError(err).Fatal("Failed to retrieve sessions")
	}

	completed := lo.Filter(sessions, func(s *models.Session, _ int) bool { return s.Completed() })
	log.WithFields(logrus.Fields{
		"sessions":  len(sessions),
		"completed": len(completed),
	}).Info("Retrieved sessions from database")

	var failed int
	for i, session := range completed {
		if ctx.Err() != nil {
			log.Warn("Indexing interrupted")
			break
		}

		entry := log.WithFields(logrus.Fields{"session_id": session.ID, "topic": session.Topic})
		entry.Infof("Processing session %d/%d", i+1, len(completed))

		if err := index.IndexSession(ctx, session); err != nil {
			entry.WithError(err).Error("Failed to index session")
			failed++
			continue
		}
		entry.Info("Successfully indexed session")
	}

	log.WithField("failed", failed).Info("Session indexing process completed")
}
