package models

// ScoreComponent is one weighted dimension of a tenant's credit score.
type ScoreComponent struct {
	Name        string  `json:"name"`
	Score       int     `json:"score"` // 0–1000
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// ScoreBreakdown is the derived trust score for a tenant. It is recomputed
// on demand from the payment-event series and never persisted as source of
// truth.
type ScoreBreakdown struct {
	TotalScore      int              `json:"total_score"` // 0–1000
	Category        string           `json:"category"`
	Description     string           `json:"description"`
	Recommendations []string         `json:"recommendations"`
	Components      []ScoreComponent `json:"components"`
}
