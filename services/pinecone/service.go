package pinecone

import (
	"context"
	"fmt"
	"time"

	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/models"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	namespace = "learnify-sessions"
	// Dimension of OpenAI ada-002 embeddings.
	dimension = int32(1536)
	// Only the opening of the teaching text is embedded.
	maxEmbeddedContentRunes = 2000
)

type Service struct {
	client    *pinecone.Client
	embedder  embeddings.Embedder
	indexName string
}

func NewService(apiKey, openaiAPIKey, indexName string) (*Service, error) {
	logrus.Info("Initializing Pinecone service")

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(openaiAPIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	logrus.Info("Pinecone service initialized successfully")
	return &Service{
		client:    pc,
		embedder:  embedder,
		indexName: indexName,
	}, nil
}

// EnsureIndex creates the serverless index when missing and waits until it is ready.
func (s *Service) EnsureIndex(ctx context.Context) error {
	log := logger.WithContext(ctx).WithField("index", s.indexName)

	indexes, err := s.client.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, idx := range indexes {
		if idx.Name == s.indexName {
			log.Info("Index already exists")
			return nil
		}
	}

	log.Info("Creating Pinecone index")
	dim := dimension
	deletionProtection := pinecone.DeletionProtectionDisabled
	metric := pinecone.Cosine

	_, err = s.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:               s.indexName,
		Dimension:          &dim,
		Metric:             &metric,
		Cloud:              pinecone.Aws,
		Region:             "us-east-1",
		DeletionProtection: &deletionProtection,
		Tags:               &pinecone.IndexTags{"project": "learnify"},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	for {
		idx, err := s.client.DescribeIndex(ctx, s.indexName)
		if err != nil {
			return fmt.Errorf("failed to describe index: %w", err)
		}
		if idx.Status != nil && idx.Status.Ready {
			log.Info("Index is ready")
			return nil
		}

		log.Info("Waiting for index to be ready")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}
}

func (s *Service) indexConnection(ctx context.Context) (*pinecone.IndexConnection, error) {
	idxDesc, err := s.client.DescribeIndex(ctx, s.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	idxConn, err := s.client.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}
	return idxConn, nil
}

// IndexSession embeds the session's topic and teaching content and upserts it as one vector.
func (s *Service) IndexSession(ctx context.Context, session *models.Session) error {
	log := logger.WithContext(ctx).WithField("session_id", session.ID)
	log.Info("Starting session indexing")

	vectors, err := s.embedder.EmbedDocuments(ctx, []string{EmbeddingText(session)})
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("embedder returned no vectors")
	}

	metadata, err := structpb.NewStruct(SessionMetadata(session))
	if err != nil {
		return fmt.Errorf("failed to create metadata struct for session %s: %w", session.ID, err)
	}

	idxConn, err := s.indexConnection(ctx)
	if err != nil {
		return err
	}
	defer idxConn.Close()

	_, err = idxConn.UpsertVectors(ctx, []*pinecone.Vector{{
		Id:       VectorID(session.ID),
		Values:   &vectors[0],
		Metadata: metadata,
	}})
	if err != nil {
		return fmt.Errorf("failed to upsert vector: %w", err)
	}

	log.Info("Successfully indexed session")
	return nil
}

// RelatedTopics returns up to limit indexed sessions closest to topic.
func (s *Service) RelatedTopics(ctx context.Context, topic string, limit int) ([]models.RelatedSession, error) {
	log := logger.WithContext(ctx).WithFields(logrus.Fields{"topic": topic, "limit": limit})
	log.Info("Starting Pinecone query")

	queryEmbeddings, err := s.embedder.EmbedQuery(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	idxConn, err := s.indexConnection(ctx)
	if err != nil {
		return nil, err
	}
	defer idxConn.Close()

	result, err := idxConn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          queryEmbeddings,
		TopK:            uint32(limit),
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	related := make([]models.RelatedSession, 0, len(result.Matches))
	for _, match := range result.Matches {
		if match == nil || match.Vector == nil || match.Vector.Metadata == nil {
			continue
		}
		related = append(related, RelatedFromMetadata(match.Vector.Metadata.AsMap(), match.Score))
	}

	log.WithField("matches", len(related)).Info("Retrieved related sessions")
	return related, nil
}

func VectorID(sessionID string) string {
	return "session_" + sessionID
}

// EmbeddingText is the document embedded for a session.
func EmbeddingText(session *models.Session) string {
	text := "Topic: " + session.Topic
	if session.TeachingContent != nil && *session.TeachingContent != "" {
		content := []rune(*session.TeachingContent)
		if len(content) > maxEmbeddedContentRunes {
			content = content[:maxEmbeddedContentRunes]
		}
		text += "\n\nContent: " + string(content)
	}
	return text
}

func SessionMetadata(session *models.Session) map[string]any {
	metadata := map[string]any{
		"session_id": session.ID,
		"topic":      session.Topic,
		"difficulty": string(session.Difficulty),
		"created_at": session.CreatedAt.Format(time.RFC3339),
	}
	if session.Percentage != nil {
		metadata["percentage"] = *session.Percentage
	}
	return metadata
}

func RelatedFromMetadata(metadata map[string]any, score float32) models.RelatedSession {
	related := models.RelatedSession{Score: score}
	if v, ok := metadata["session_id"].(string); ok {
		related.SessionID = v
	}
	if v, ok := metadata["topic"].(string); ok {
		related.Topic = v
	}
	if v, ok := metadata["difficulty"].(string); ok {
		related.Difficulty = v
	}
	return related
}
