package models

import "github.com/samber/lo"

type QuizState string

const (
	QuizStateCreated    QuizState = "created"
	QuizStateInProgress QuizState = "in_progress"
	QuizStateComplete   QuizState = "complete"
)

type Option struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	IsCorrect     bool   `json:"is_correct"`
	Feedback      string `json:"feedback"`
	Understanding string `json:"understanding"`
}

type Question struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	ConceptTested string   `json:"concept_tested"`
	Options       []Option `json:"options"`
}

// CorrectOption returns the option flagged as correct, if any.
func (q Question) CorrectOption() (Option, bool) {
	return lo.Find(q.Options, func(o Option) bool { return o.IsCorrect })
}

type Result struct {
	QuestionID       int    `json:"question_id"`
	SelectedOptionID string `json:"selected_option_id"`
	IsCorrect        bool   `json:"is_correct"`
	Feedback         string `json:"feedback"`
	Understanding    string `json:"understanding"`
	ConceptTested    string `json:"concept_tested"`
}

// Quiz is the in-memory, single-use question set generated from one teaching session.
// Score, total and percentage are always derived from Questions and Results.
type Quiz struct {
	Topic        string     `json:"topic"`
	Questions    []Question `json:"questions"`
	Results      []Result   `json:"results"`
	CurrentIndex int        `json:"current_index"`
}

func (q *Quiz) Score() int {
	return lo.CountBy(q.Results, func(r Result) bool { return r.IsCorrect })
}

func (q *Quiz) Total() int {
	return len(q.Questions)
}

func (q *Quiz) Percentage() float64 {
	return Percentage(q.Score(), q.Total())
}

func (q *Quiz) IsComplete() bool {
	return len(q.Results) == len(q.Questions)
}

func (q *Quiz) State() QuizState {
	switch {
	case len(q.Results) == 0 && len(q.Questions) > 0:
		return QuizStateCreated
	case len(q.Results) < len(q.Questions):
		return QuizStateInProgress
	default:
		return QuizStateComplete
	}
}

// WrongConcepts lists the concept of every incorrect result, in submission order.
func (q *Quiz) WrongConcepts() []string {
	wrong := lo.Filter(q.Results, func(r Result, _ int) bool { return !r.IsCorrect })
	return lo.Map(wrong, func(r Result, _ int) string { return r.ConceptTested })
}

// Answered reports whether a result already exists for the question.
func (q *Quiz) Answered(questionID int) bool {
	return lo.ContainsBy(q.Results, func(r Result) bool { return r.QuestionID == questionID })
}

// QuizSnapshot is the blob persisted with a completed session.
type QuizSnapshot struct {
	Topic      string     `json:"topic"`
	Score      int        `json:"score"`
	Total      int        `json:"total"`
	Percentage float64    `json:"percentage"`
	Questions  []Question `json:"questions"`
	Results    []Result   `json:"results"`
}

func (q *Quiz) Snapshot() QuizSnapshot {
	return QuizSnapshot{
		Topic:      q.Topic,
		Score:      q.Score(),
		Total:      q.Total(),
		Percentage: q.Percentage(),
		Questions:  q.Questions,
		Results:    q.Results,
	}
}

// PublicOption is an option as shown to the learner before answering.
type PublicOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type PublicQuestion struct {
	ID            int            `json:"id"`
	Question      string         `json:"question"`
	ConceptTested string         `json:"concept_tested"`
	Options       []PublicOption `json:"options"`
}

// PublicQuestions strips correctness and feedback from every option.
func (q *Quiz) PublicQuestions() []PublicQuestion {
	return lo.Map(q.Questions, func(question Question, _ int) PublicQuestion {
		return PublicQuestion{
			ID:            question.ID,
			Question:      question.Question,
			ConceptTested: question.ConceptTested,
			Options: lo.Map(question.Options, func(o Option, _ int) PublicOption {
				return PublicOption{ID: o.ID, Text: o.Text}
			}),
		}
	})
}

type Analysis struct {
	Score           int      `json:"score"`
	Total           int      `json:"total"`
	Percentage      float64  `json:"percentage"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}

// Percentage is score/total*100, or 0 when total is 0.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

type GenerateQuizResponse struct {
	Questions []PublicQuestion `json:"questions"`
	Total     int              `json:"total"`
}

type SubmitAnswerRequest struct {
	QuestionID     int    `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

type SubmitAnswerResponse struct {
	IsCorrect     bool   `json:"is_correct"`
	Feedback      string `json:"feedback"`
	Understanding string `json:"understanding"`
	ConceptTested string `json:"concept_tested"`
}

type CompleteQuizResponse struct {
	Score      int      `json:"score"`
	Total      int      `json:"total"`
	Percentage float64  `json:"percentage"`
	Analysis   Analysis `json:"analysis"`
}
