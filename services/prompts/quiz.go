package prompts

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ameshram/learnify/models"

	"github.com/invopop/jsonschema"
)

// MaxQuizContentRunes bounds how much teaching content is sent with a quiz request.
const MaxQuizContentRunes = 3000

const quizSystemPromptTemplate = `You are an expert educational assessment designer. Create quiz questions that test understanding.

OUTPUT FORMAT - Return ONLY valid JSON:
{
  "questions": [
    {
      "id": 1,
      "question": "Question text?",
      "concept_tested": "What this tests",
      "options": [
        {"id": "A", "text": "Option text", "is_correct": false, "feedback": "Why wrong", "understanding": "What this reveals"},
        {"id": "B", "text": "Option text", "is_correct": true, "feedback": "Why correct", "understanding": "What this shows"},
        {"id": "C", "text": "Option text", "is_correct": false, "feedback": "Why wrong", "understanding": "What this reveals"},
        {"id": "D", "text": "Option text", "is_correct": false, "feedback": "Why wrong", "understanding": "What this reveals"}
      ]
    }
  ]
}

The JSON must validate against this schema:
%s

Return ONLY the JSON, no other text.`

const quizPromptTemplate = `Based on this teaching content about "%[1]s", create %[2]d multiple choice questions.

TEACHING CONTENT:
%[3]s

REQUIREMENTS:
- Generate exactly %[2]d questions
- Difficulty: %[4]s
- Each question must have exactly 4 options (A, B, C, D)
- Only ONE correct answer per question
- Include detailed feedback for every option

Return ONLY the JSON object.`

var quizSchema = sync.OnceValue(func() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&models.QuizPayload{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
})

// QuizSchema is the JSON Schema of the quiz document the model must return.
func QuizSchema() string {
	return quizSchema()
}

func QuizSystemPrompt() string {
	return fmt.Sprintf(quizSystemPromptTemplate, QuizSchema())
}

// QuizPrompt builds the user prompt for quiz generation. Only the first
// MaxQuizContentRunes characters of content are included.
func QuizPrompt(topic, content string, questionCount int, difficulty string) string {
	return fmt.Sprintf(quizPromptTemplate, topic, questionCount, truncateRunes(content, MaxQuizContentRunes), difficulty)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
