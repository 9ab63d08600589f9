package progress

// AchieverStatus classifies quiz performance within one chapter.
type AchieverStatus string

const (
	LowAchiever     AchieverStatus = "low achiever"
	AverageAchiever AchieverStatus = "average achiever"
	HighAchiever    AchieverStatus = "high achiever"
)

// Achiever tier boundaries on a chapter's correct-answer count.
const (
	averageAchieverMin = 3
	highAchieverMin    = 8
)

// ClassifyAchiever maps a chapter's correct-answer count to a tier.
func ClassifyAchiever(correct int) AchieverStatus {
	switch {
	case correct < averageAchieverMin:
		return LowAchiever
	case correct < highAchieverMin:
		return AverageAchiever
	default:
		return HighAchiever
	}
}

// parseAchiever accepts a persisted status, reporting false for anything
// unrecognised.
func parseAchiever(s string) (AchieverStatus, bool) {
	switch a := AchieverStatus(s); a {
	case LowAchiever, AverageAchiever, HighAchiever:
		return a, true
	default:
		return "", false
	}
}
