package services

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ameshram/learnify/models"
	"github.com/samber/lo"
)

const (
	MaxInputLength = 1000
	MinTopicLength = 2
	MaxTopicLength = 200
)

var (
	invalidTopicChars = regexp.MustCompile(`[<>{}\[\]\\]`)
	strippedChars     = regexp.MustCompile(`[<>"']`)
)

// ValidationError is a client input problem; Reason is safe to show to the user.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// SanitizeInput truncates, HTML-escapes and normalises whitespace in free text.
func SanitizeInput(text string) string {
	if text == "" {
		return ""
	}
	if utf8.RuneCountInString(text) > MaxInputLength {
		text = string([]rune(text)[:MaxInputLength])
	}
	text = html.EscapeString(text)
	text = strippedChars.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

func ValidateTopic(topic string) error {
	n := utf8.RuneCountInString(topic)
	switch {
	case topic == "":
		return &ValidationError{Field: "topic", Reason: "Topic is required"}
	case n < MinTopicLength:
		return &ValidationError{Field: "topic", Reason: "Topic must be at least 2 characters"}
	case n > MaxTopicLength:
		return &ValidationError{Field: "topic", Reason: "Topic must be less than 200 characters"}
	case invalidTopicChars.MatchString(topic):
		return &ValidationError{Field: "topic", Reason: "Topic contains invalid characters"}
	}
	return nil
}

// ValidateDifficulty accepts one of the known levels.
func ValidateDifficulty(difficulty string) (models.Difficulty, error) {
	d := models.Difficulty(difficulty)
	if !lo.Contains(models.Difficulties, d) {
		names := lo.Map(models.Difficulties, func(d models.Difficulty, _ int) string { return string(d) })
		return "", &ValidationError{
			Field:  "difficulty",
			Reason: fmt.Sprintf("Difficulty must be one of: %s", strings.Join(names, ", ")),
		}
	}
	return d, nil
}

// ValidateTeachRequest sanitises the topic and checks both fields.
func ValidateTeachRequest(req *models.TeachRequest) (string, models.Difficulty, error) {
	if req == nil {
		return "", "", &ValidationError{Field: "body", Reason: "Request body is required"}
	}

	topic := SanitizeInput(req.Topic)
	if err := ValidateTopic(topic); err != nil {
		return "", "", err
	}

	// Only an absent difficulty defaults; an explicit empty value is rejected.
	difficulty := models.DifficultyIntermediate
	if req.Difficulty != nil {
		d, err := ValidateDifficulty(*req.Difficulty)
		if err != nil {
			return "", "", err
		}
		difficulty = d
	}

	return topic, difficulty, nil
}
