package feedback

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/pyquest/internal/progress"
)

const analyzeSystemPrompt = `You are a helpful, encouraging Python tutor for beginners and children. Always respond with valid JSON only. Adapt your feedback to the student's performance profile.`

const hintSystemPrompt = `You are a helpful Python tutor. Provide hints, not answers. Keep responses concise and encouraging. Adapt to the student's performance level.`

// tierGuidance tunes the tone of generated feedback per achiever tier.
var tierGuidance = map[progress.AchieverStatus]string{
	progress.LowAchiever: `- Be extra encouraging and supportive
- Use simpler explanations built on basic concepts
- Suggest reviewing fundamentals and practicing step by step
- Focus on building confidence`,
	progress.AverageAchiever: `- Give balanced feedback with some additional context
- Suggest practicing similar problems and reviewing specific concepts
- Recommend topics that build on current knowledge`,
	progress.HighAchiever: `- Give detailed explanations with deeper insights
- Suggest advanced concepts and harder problems
- Recommend related advanced topics and programming patterns`,
}

const beginnerGuidance = `- Use simple language and clear explanations
- Focus on learning and building understanding`

var hintGuidance = map[progress.AchieverStatus]string{
	progress.LowAchiever:  "This student is struggling: give a very simple, encouraging hint that breaks the problem into tiny steps.",
	progress.HighAchiever: "This student is doing well: give a hint that challenges them to think deeper.",
}

var analyzeTemplate = template.Must(template.New("analyze").Parse(`Analyze the student's answer and give personalized feedback.

Question: "{{.QuestionText}}"
Student's answer: "{{.StudentAnswer}}"
Correct answer: "{{.CorrectAnswer}}"
Chapter: {{.ChapterTitle}}
Topic: {{.Topic}}
Difficulty: {{.Difficulty}}
{{- if .AchieverStatus}}
Student performance profile: {{.AchieverStatus}} ({{.CorrectCount}}/{{.TotalAnswered}} correct in this chapter)
{{- end}}

Guidelines:
{{.Guidance}}
- Stay positive, even for wrong answers
- Give exactly three concrete next steps and three related topics
- Keep the explanation under 100 words and the encouragement under 50`))

var hintTemplate = template.Must(template.New("hint").Parse(`A student is stuck on a Python question. Give one hint without revealing the answer.

Question: "{{.QuestionText}}"
Previous attempts: {{.Attempts}}
Chapter: {{.ChapterTitle}}
Topic: {{.Topic}}
{{- if .AchieverStatus}}
Student performance level: {{.AchieverStatus}}
{{- end}}

{{.Guidance}}
Reply with the hint text only, at most 50 words.`))

func buildAnalyzeMessage(in AnswerInput) (string, error) {
	guidance, ok := tierGuidance[in.AchieverStatus]
	if !ok {
		guidance = beginnerGuidance
	}
	var b bytes.Buffer
	err := analyzeTemplate.Execute(&b, struct {
		AnswerInput
		Guidance string
	}{in, guidance})
	if err != nil {
		return "", fmt.Errorf("render analyze prompt: %w", err)
	}
	return b.String(), nil
}

func buildHintMessage(in HintInput) (string, error) {
	guidance, ok := hintGuidance[in.AchieverStatus]
	if !ok {
		guidance = "Give a balanced hint for an average learner."
	}
	attempts := "none yet"
	if len(in.PriorAttempts) > 0 {
		attempts = strings.Join(in.PriorAttempts, ", ")
	}
	var b bytes.Buffer
	err := hintTemplate.Execute(&b, struct {
		HintInput
		Attempts string
		Guidance string
	}{in, attempts, guidance})
	if err != nil {
		return "", fmt.Errorf("render hint prompt: %w", err)
	}
	return b.String(), nil
}
