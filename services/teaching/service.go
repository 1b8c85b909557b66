package teaching

import (
	"context"
	"iter"

	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/models"
	"github.com/ameshram/learnify/services/llm"
	"github.com/ameshram/learnify/services/prompts"

	"github.com/sirupsen/logrus"
)

type Service struct {
	llm       llm.Gateway
	maxTokens int64
}

func NewService(gateway llm.Gateway, maxTokens int64) *Service {
	return &Service{
		llm:       gateway,
		maxTokens: maxTokens,
	}
}

// Teach streams an explanation of topic pitched at difficulty. Fragments, including any
// trailing error sentinel, are forwarded unchanged.
func (s *Service) Teach(ctx context.Context, topic, difficulty string) iter.Seq[string] {
	logger.WithContext(ctx).WithFields(logrus.Fields{
		"topic":      topic,
		"difficulty": difficulty,
	}).Info("Teaching topic")

	return s.llm.StreamText(ctx,
		prompts.TeachingSystemPrompt,
		prompts.TeachingPrompt(topic, difficulty),
		llm.WithMaxTokens(s.maxTokens),
	)
}

// Usage reports token consumption of the underlying gateway.
func (s *Service) Usage() models.UsageStats {
	return s.llm.Usage()
}
