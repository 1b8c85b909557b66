package prompts

import (
	"fmt"
	"strings"

	"github.com/ameshram/learnify/models"
)

const InsightsSystemPrompt = `You are a learning analytics expert who provides personalized feedback and study recommendations. Be encouraging but honest, specific and actionable.`

const insightsPromptTemplate = `Provide personalized learning insights:

Topic: %s
Score: %d/%d (%.0f%%)

Concepts struggled with:
%s

Provide:
1. **Performance Summary** (2-3 encouraging sentences)
2. **Strengths** (what they demonstrated understanding of)
3. **Areas to Review** (specific concepts to revisit)
4. **Next Steps** (2-3 actionable recommendations)
5. **Encouragement** (motivating closing message)

Use Markdown formatting.`

func InsightsPrompt(topic string, score, total int, wrongConcepts []string) string {
	wrongList := "None"
	if len(wrongConcepts) > 0 {
		lines := make([]string, len(wrongConcepts))
		for i, c := range wrongConcepts {
			lines[i] = "- " + c
		}
		wrongList = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(insightsPromptTemplate, topic, score, total, models.Percentage(score, total), wrongList)
}
