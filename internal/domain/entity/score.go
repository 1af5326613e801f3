package entity

// HealthScore is the heuristic portfolio rating in [0, 100] with its
// letter grade.
type HealthScore struct {
	Score int    `json:"score"`
	Grade string `json:"grade"`
}

// ScoreComparison reports the current score next to the score of a
// hypothetically rebalanced portfolio.
type ScoreComparison struct {
	Current      HealthScore `json:"current"`
	Rebalanced   HealthScore `json:"rebalanced"`
	ShiftPercent float64     `json:"shiftPercent"`
}

// Suggestion is one recommended action derived from the portfolio summary.
type Suggestion struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}
