package feedback

import "github.com/abhisek/pyquest/internal/llm"

// AnswerFeedbackSchema is the JSON shape the model must return for Analyze.
var AnswerFeedbackSchema = &llm.Schema{
	Name:        "answer-feedback",
	Description: "Personalized feedback on a learner's answer to a Python quiz question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"isCorrect": map[string]any{
				"type":        "boolean",
				"description": "Whether the student's answer is correct",
			},
			"explanation": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Why the answer is right or wrong, at most 100 words",
			},
			"encouragement": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "A positive, motivating message, at most 50 words",
			},
			"nextSteps": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"maxItems": 5,
			},
			"difficulty": map[string]any{
				"type": "string",
				"enum": []any{"easy", "medium", "hard"},
			},
			"relatedTopics": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"maxItems": 5,
			},
		},
		"required": []any{"isCorrect", "explanation", "encouragement", "nextSteps", "difficulty", "relatedTopics"},
	},
}
