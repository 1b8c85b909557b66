package prompts

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTeachingPrompt(t *testing.T) {
	tests := []struct {
		name       string
		difficulty string
		expected   string
	}{
		{name: "beginner", difficulty: "beginner", expected: "Complete beginner"},
		{name: "intermediate", difficulty: "intermediate", expected: "Has foundational knowledge"},
		{name: "advanced", difficulty: "advanced", expected: "seeking mastery and nuance"},
		{name: "unknown falls back to intermediate", difficulty: "expert", expected: "Has foundational knowledge"},
		{name: "empty falls back to intermediate", difficulty: "", expected: "Has foundational knowledge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := TeachingPrompt("Recursion", tt.difficulty)

			if !strings.HasPrefix(prompt, "TOPIC: Recursion\n") {
				t.Errorf("prompt does not start with topic line: %.40q", prompt)
			}
			if !strings.Contains(prompt, tt.expected) {
				t.Errorf("prompt missing learner context %q", tt.expected)
			}
			if !strings.Contains(prompt, "likely have about Recursion?") {
				t.Errorf("topic not interpolated into the reflection questions")
			}
			if !strings.Contains(prompt, "SPEND 40% OF YOUR EXPLANATION HERE") {
				t.Errorf("percent sign not rendered literally")
			}
		})
	}
}

func TestQuizPromptTruncatesContent(t *testing.T) {
	content := strings.Repeat("a", MaxQuizContentRunes) + "TAIL"
	prompt := QuizPrompt("Photosynthesis", content, 4, "beginner")

	if strings.Contains(prompt, "TAIL") {
		t.Errorf("content beyond %d characters was included", MaxQuizContentRunes)
	}
	if !strings.Contains(prompt, strings.Repeat("a", MaxQuizContentRunes)) {
		t.Errorf("first %d characters of content missing", MaxQuizContentRunes)
	}
	if !strings.Contains(prompt, "Generate exactly 4 questions") {
		t.Errorf("question count not interpolated")
	}
	if !strings.Contains(prompt, "Difficulty: beginner") {
		t.Errorf("difficulty not interpolated")
	}
}

func TestQuizPromptTruncatesOnRunes(t *testing.T) {
	content := strings.Repeat("é", MaxQuizContentRunes+10)
	prompt := QuizPrompt("Accents", content, 2, "intermediate")

	if strings.Contains(prompt, strings.Repeat("é", MaxQuizContentRunes+1)) {
		t.Errorf("content was not truncated at %d runes", MaxQuizContentRunes)
	}
	if !strings.Contains(prompt, strings.Repeat("é", MaxQuizContentRunes)) {
		t.Errorf("truncation cut inside the first %d runes", MaxQuizContentRunes)
	}
}

func TestQuizSystemPromptEmbedsSchema(t *testing.T) {
	schema := QuizSchema()

	var decoded map[string]any
	if err := json.Unmarshal([]byte(schema), &decoded); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if _, ok := decoded["properties"]; !ok {
		t.Errorf("schema has no properties: %s", schema)
	}
	if !strings.Contains(schema, "concept_tested") {
		t.Errorf("schema does not describe concept_tested")
	}

	prompt := QuizSystemPrompt()
	if !strings.Contains(prompt, schema) {
		t.Errorf("system prompt does not embed the schema")
	}
	if !strings.HasSuffix(prompt, "Return ONLY the JSON, no other text.") {
		t.Errorf("system prompt lost its closing instruction")
	}
}

func TestInsightsPrompt(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		total    int
		wrong    []string
		expected []string
	}{
		{
			name:     "zero total yields zero percent",
			score:    0,
			total:    0,
			expected: []string{"Score: 0/0 (0%)", "Concepts struggled with:\nNone"},
		},
		{
			name:     "no wrong concepts",
			score:    4,
			total:    4,
			expected: []string{"Score: 4/4 (100%)", "Concepts struggled with:\nNone"},
		},
		{
			name:     "wrong concepts listed",
			score:    3,
			total:    4,
			wrong:    []string{"Light reactions", "Calvin cycle"},
			expected: []string{"Score: 3/4 (75%)", "- Light reactions\n- Calvin cycle"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := InsightsPrompt("Photosynthesis", tt.score, tt.total, tt.wrong)
			for _, want := range tt.expected {
				if !strings.Contains(prompt, want) {
					t.Errorf("InsightsPrompt() missing %q in:\n%s", want, prompt)
				}
			}
		})
	}
}
