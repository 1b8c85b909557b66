package quiz

import (
	"context"
	"fmt"

	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/models"
	"github.com/ameshram/learnify/services/llm"
	"github.com/ameshram/learnify/services/prompts"

	"github.com/sirupsen/logrus"
)

// GenerateQuiz asks the model for questionCount questions about content and parses the reply.
func (s *Service) GenerateQuiz(ctx context.Context, topic, content string, questionCount int, difficulty string) (*models.Quiz, error) {
	if questionCount <= 0 {
		questionCount = DefaultQuestionCount
	}

	log := logger.WithContext(ctx).WithFields(logrus.Fields{
		"topic":          topic,
		"question_count": questionCount,
		"difficulty":     difficulty,
	})
	log.Info("Starting quiz generation")

	raw, err := s.llm.GenerateText(ctx,
		prompts.QuizSystemPrompt(),
		prompts.QuizPrompt(topic, content, questionCount, difficulty),
		llm.WithMaxTokens(s.maxTokens),
	)
	if err != nil {
		log.WithError(err).Error("Failed to generate quiz")
		return nil, fmt.Errorf("failed to generate quiz: %w", err)
	}

	quiz, err := ParseQuiz(topic, raw, questionCount)
	if err != nil {
		log.WithError(err).Error("Failed to parse quiz")
		return nil, err
	}

	log.WithField("questions", len(quiz.Questions)).Info("Successfully generated quiz")
	return quiz, nil
}
