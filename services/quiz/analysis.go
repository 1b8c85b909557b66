package quiz

import (
	"strings"

	"github.com/ameshram/learnify/models"

	"github.com/samber/lo"
)

// PerformanceAnalysis derives strengths, weaknesses and recommendations from the recorded results.
func PerformanceAnalysis(quiz *models.Quiz) models.Analysis {
	percentage := quiz.Percentage()

	correct := lo.FilterMap(quiz.Results, func(r models.Result, _ int) (string, bool) {
		return r.ConceptTested, r.IsCorrect
	})

	strengths := []string{}
	if percentage >= 75 {
		strengths = append(strengths, "Strong overall understanding")
	}
	if distinct := lo.Uniq(correct); len(distinct) > 0 {
		strengths = append(strengths, "Good grasp of: "+strings.Join(lo.Subset(distinct, 0, 2), ", "))
	}

	weaknesses := lo.Map(quiz.WrongConcepts(), func(c string, _ int) string {
		return "Review: " + c
	})

	return models.Analysis{
		Score:           quiz.Score(),
		Total:           quiz.Total(),
		Percentage:      percentage,
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		Recommendations: recommendations(percentage),
	}
}

func recommendations(percentage float64) []string {
	switch {
	case percentage >= 80:
		return []string{"Excellent! Ready for advanced topics", "Try teaching this to reinforce learning"}
	case percentage >= 60:
		return []string{"Good progress! Review missed concepts", "Practice with real-world applications"}
	default:
		return []string{"Re-read the teaching material", "Focus on fundamentals first"}
	}
}
