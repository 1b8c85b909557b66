package quiz

import (
	"fmt"

	"github.com/ameshram/learnify/models"

	"github.com/samber/lo"
)

// SubmitAnswer records the learner's choice for one question. A question can be answered once.
func SubmitAnswer(quiz *models.Quiz, questionID int, optionID string) (models.Result, error) {
	question, ok := lo.Find(quiz.Questions, func(q models.Question) bool { return q.ID == questionID })
	if !ok {
		return models.Result{}, fmt.Errorf("question %d: %w", questionID, ErrQuestionNotFound)
	}

	option, ok := lo.Find(question.Options, func(o models.Option) bool { return o.ID == optionID })
	if !ok {
		return models.Result{}, fmt.Errorf("option %q: %w", optionID, ErrOptionNotFound)
	}

	if quiz.Answered(questionID) {
		return models.Result{}, fmt.Errorf("question %d: %w", questionID, ErrAlreadyAnswered)
	}

	result := models.Result{
		QuestionID:       questionID,
		SelectedOptionID: optionID,
		IsCorrect:        option.IsCorrect,
		Feedback:         option.Feedback,
		Understanding:    option.Understanding,
		ConceptTested:    question.ConceptTested,
	}

	quiz.Results = append(quiz.Results, result)
	quiz.CurrentIndex++

	return result, nil
}
