package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ameshram/learnify/models"
	"github.com/ameshram/learnify/services"
	"github.com/ameshram/learnify/services/llm"
	"github.com/ameshram/learnify/services/quiz"
	"github.com/ameshram/learnify/services/teaching"

	"github.com/samber/lo"
)

const (
	ColorReset  = "\033[0m"
	ColorBlue   = "\033[34m"
	ColorYellow = "\033[33m"
	ColorGreen  = "\033[32m"
	ColorRed    = "\033[31m"
)

func colorize(color, text string) string {
	return color + text + ColorReset
}

// Tutor runs one teach, quiz and review loop per topic in the terminal.
type Tutor struct {
	teaching          *teaching.Service
	quiz              *quiz.Service
	sessions          *services.SessionService
	gateway           llm.Gateway
	insightsMaxTokens int64

	in  *bufio.Scanner
	out io.Writer
}

func NewTutor(teachingService *teaching.Service, quizService *quiz.Service, sessions *services.SessionService, gateway llm.Gateway, insightsMaxTokens int64, in io.Reader, out io.Writer) *Tutor {
	return &Tutor{
		teaching:          teachingService,
		quiz:              quizService,
		sessions:          sessions,
		gateway:           gateway,
		insightsMaxTokens: insightsMaxTokens,
		in:                bufio.NewScanner(in),
		out:               out,
	}
}

// prompt reads one trimmed line; false means the user wants to stop.
func (t *Tutor) prompt(label string) (string, bool) {
	fmt.Fprint(t.out, colorize(ColorBlue, label)+": ")
	if !t.in.Scan() {
		return "", false
	}
	text := strings.TrimSpace(t.in.Text())
	if text == "exit" || text == "quit" {
		return "", false
	}
	return text, true
}

func (t *Tutor) Run(ctx context.Context) error {
	fmt.Fprintln(t.out, "Learnify tutor started. Type 'exit' or 'quit' to stop.")

	for ctx.Err() == nil {
		rawTopic, ok := t.prompt("Topic")
		if !ok {
			break
		}
		rawDifficulty, ok := t.prompt("Difficulty (beginner, intermediate, advanced)")
		if !ok {
			break
		}

		req := &models.TeachRequest{Topic: rawTopic}
		if rawDifficulty != "" {
			req.Difficulty = &rawDifficulty
		}
		topic, difficulty, err := services.ValidateTeachRequest(req)
		if err != nil {
			fmt.Fprintln(t.out, colorize(ColorRed, err.Error()))
			continue
		}

		if err := t.lesson(ctx, topic, difficulty); err != nil {
			return err
		}
	}

	usage := t.gateway.Usage()
	fmt.Fprintf(t.out, "Tokens used: %d in, %d out\n", usage.InputTokens, usage.OutputTokens)
	fmt.Fprintln(t.out, "Goodbye!")
	return nil
}

func (t *Tutor) lesson(ctx context.Context, topic string, difficulty models.Difficulty) error {
	session, err := t.sessions.CreateSession(ctx, topic, difficulty)
	if err != nil {
		return err
	}

	fmt.Fprintln(t.out)
	var content strings.Builder
	for fragment := range t.teaching.Teach(ctx, topic, string(difficulty)) {
		content.WriteString(fragment)
		fmt.Fprint(t.out, fragment)
	}
	fmt.Fprintln(t.out)

	if err := t.sessions.SaveTeachingContent(ctx, session.ID, content.String()); err != nil {
		return err
	}

	answer, ok := t.prompt("Take the quiz? (y/n)")
	if !ok || !strings.HasPrefix(strings.ToLower(answer), "y") {
		return nil
	}

	generated, err := t.quiz.GenerateQuiz(ctx, topic, content.String(), quiz.DefaultQuestionCount, string(difficulty))
	if err != nil {
		fmt.Fprintln(t.out, colorize(ColorRed, "Could not generate a quiz: "+err.Error()))
		return nil
	}

	for _, question := range generated.Questions {
		if !t.ask(generated, question) {
			return nil
		}
	}

	analysis := quiz.PerformanceAnalysis(generated)
	fmt.Fprintf(t.out, "\nScore: %d/%d (%.0f%%)\n", analysis.Score, analysis.Total, analysis.Percentage)
	for _, line := range analysis.Strengths {
		fmt.Fprintln(t.out, colorize(ColorGreen, "+ "+line))
	}
	for _, line := range analysis.Weaknesses {
		fmt.Fprintln(t.out, colorize(ColorRed, "- "+line))
	}
	for _, line := range analysis.Recommendations {
		fmt.Fprintln(t.out, "* "+line)
	}

	if err := t.sessions.CompleteQuiz(ctx, session.ID, generated.Snapshot()); err != nil {
		return err
	}

	insights := llm.GenerateInsights(ctx, t.gateway, topic, generated.Score(), generated.Total(), generated.WrongConcepts(), t.insightsMaxTokens)
	fmt.Fprintf(t.out, "\n%s: %s\n\n", colorize(ColorYellow, "Insights"), insights)
	return nil
}

// ask repeats a question until a valid option is chosen.
func (t *Tutor) ask(q *models.Quiz, question models.Question) bool {
	fmt.Fprintf(t.out, "\n%s %s\n", colorize(ColorYellow, fmt.Sprintf("Q%d.", question.ID)), question.Question)
	for _, option := range question.Options {
		fmt.Fprintf(t.out, "  %s) %s\n", option.ID, option.Text)
	}

	validIDs := lo.Map(question.Options, func(o models.Option, _ int) string { return o.ID })
	for {
		choice, ok := t.prompt("Answer")
		if !ok {
			return false
		}

		result, err := quiz.SubmitAnswer(q, question.ID, strings.ToUpper(choice))
		if err != nil {
			fmt.Fprintf(t.out, "Choose one of %s\n", strings.Join(validIDs, ", "))
			continue
		}

		if result.IsCorrect {
			fmt.Fprintln(t.out, colorize(ColorGreen, "Correct! ")+result.Feedback)
		} else {
			fmt.Fprintln(t.out, colorize(ColorRed, "Not quite. ")+result.Feedback)
		}
		fmt.Fprintln(t.out, result.Understanding)
		return true
	}
}
