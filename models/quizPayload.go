package models

// QuizPayload is the JSON document the model is asked to return for a quiz.
// Pointer fields let the parser tell a missing field from a zero value.
type QuizPayload struct {
	Questions []QuestionPayload `json:"questions" jsonschema:"required,minItems=1,description=The quiz questions"`
}

type QuestionPayload struct {
	ID            *int            `json:"id" jsonschema:"required,description=Question number starting at 1"`
	Question      *string         `json:"question" jsonschema:"required,description=Question text"`
	ConceptTested string          `json:"concept_tested,omitempty" jsonschema:"description=What this question tests"`
	Options       []OptionPayload `json:"options" jsonschema:"required,minItems=4,maxItems=4"`
}

type OptionPayload struct {
	ID            *string `json:"id" jsonschema:"required,enum=A,enum=B,enum=C,enum=D"`
	Text          *string `json:"text" jsonschema:"required"`
	IsCorrect     *bool   `json:"is_correct" jsonschema:"required,description=Exactly one option per question is correct"`
	Feedback      *string `json:"feedback" jsonschema:"required,description=Why this option is right or wrong"`
	Understanding *string `json:"understanding" jsonschema:"required,description=What choosing this option reveals"`
}
