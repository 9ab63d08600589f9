package feedback

import (
	"strings"

	"github.com/abhisek/pyquest/internal/progress"
)

type cannedTier struct {
	explanation   [2]string // [wrong, right]
	encouragement [2]string
	nextSteps     [2][]string
}

var (
	lowTier = cannedTier{
		explanation: [2]string{
			"That's not quite right, but don't worry! Learning programming takes time and patience. Let's break this down into smaller steps and try again.",
			"Excellent work! You're getting the hang of this concept. Take your time and keep practicing - you're doing better than you think!",
		},
		encouragement: [2]string{
			"Keep trying! Every mistake helps you learn. You've got this! 💪",
			"Great job! You're building confidence! 🌟",
		},
		nextSteps: [2][]string{
			{"Go back and review the lesson material slowly", "Try to understand each part step by step", "Don't hesitate to ask for help"},
			{"Review this concept to make sure you understand it", "Try a similar problem to practice", "Take your time with the next question"},
		},
	}
	averageTier = cannedTier{
		explanation: [2]string{
			"Not quite right, but that's perfectly okay! Learning programming takes practice and patience. Remember, you need 100% correct answers to advance to the next chapter, so take your time to understand each concept.",
			"Great job! Your answer is correct. You're understanding the concept well and showing good progress in your Python learning journey.",
		},
		encouragement: [2]string{
			"Don't worry, mistakes help us learn! You can redo the chapter if needed to achieve 100%. Keep going! 💪",
			"Excellent work! Keep up the fantastic learning! 🌟",
		},
		nextSteps: [2][]string{
			{"Review the lesson material carefully", "Use the redo command if you need to start over", "Practice with similar examples"},
			{"Try the next question to continue learning", "Review related concepts to deepen understanding", "Practice with similar problems to reinforce knowledge"},
		},
	}
	highTier = cannedTier{
		explanation: [2]string{
			"Close, but not quite right. Since you're doing well overall, let's think about the nuances of this concept and what might have led to this answer.",
			"Perfect! You clearly understand this concept well. You might want to explore more advanced applications of this topic.",
		},
		encouragement: [2]string{
			"Great effort! Use this as a learning opportunity to deepen your understanding! 🧠",
			"Outstanding work! Ready for the next challenge! 🚀",
		},
		nextSteps: [2][]string{
			{"Analyze why this answer seemed correct", "Review the subtle differences in similar concepts", "Challenge yourself with harder variations"},
			{"Explore advanced applications of this concept", "Try to solve this problem in a different way", "Look into related advanced topics"},
		},
	}
)

func tierFor(s progress.AchieverStatus) cannedTier {
	switch s {
	case progress.LowAchiever:
		return lowTier
	case progress.HighAchiever:
		return highTier
	default:
		return averageTier
	}
}

// Fallback builds feedback without a model. Correctness is a
// case-insensitive comparison of the trimmed answers.
func Fallback(in AnswerInput) *Feedback {
	correct := strings.EqualFold(strings.TrimSpace(in.StudentAnswer), strings.TrimSpace(in.CorrectAnswer))
	i := 0
	if correct {
		i = 1
	}
	tier := tierFor(in.AchieverStatus)
	return &Feedback{
		IsCorrect:     correct,
		Explanation:   tier.explanation[i],
		Encouragement: tier.encouragement[i],
		NextSteps:     append([]string(nil), tier.nextSteps[i]...),
		Difficulty:    "medium",
		RelatedTopics: []string{in.Topic, "Python basics", "Programming fundamentals"},
		Source:        SourceFallback,
	}
}

// FallbackHint returns the canned hint for an achiever tier.
func FallbackHint(s progress.AchieverStatus) string {
	switch s {
	case progress.LowAchiever:
		return "Take it step by step. Read the question slowly and think about what each word means."
	case progress.HighAchiever:
		return "Consider the edge cases and think about what the question is really testing. What concept is at the core of this problem?"
	default:
		return "Try breaking down the problem into smaller steps. Look at the examples in the lesson for guidance."
	}
}
