package quiz

import (
	"errors"

	"github.com/ameshram/learnify/services/llm"
)

const DefaultQuestionCount = 4

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrOptionNotFound   = errors.New("option not found")
	ErrAlreadyAnswered  = errors.New("question already answered")
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
