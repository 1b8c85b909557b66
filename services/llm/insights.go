package llm

import (
	"context"

	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/services/prompts"
)

const InsightsFallback = "Unable to generate insights at this time."

// GenerateInsights asks the model for personalised feedback on a quiz result.
// Any upstream failure degrades to InsightsFallback.
func GenerateInsights(ctx context.Context, gw Gateway, topic string, score, total int, wrongConcepts []string, maxTokens int64) string {
	text, err := gw.GenerateText(ctx,
		prompts.InsightsSystemPrompt,
		prompts.InsightsPrompt(topic, score, total, wrongConcepts),
		WithMaxTokens(maxTokens),
	)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("Falling back to default insights")
		return InsightsFallback
	}
	return text
}
