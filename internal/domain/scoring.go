package domain

// ScoringWeights are the coefficients of the expected-value formula
// Total = Alpha*GoalValue + Beta*InfoGain - Gamma*Cost. Protocols apply
// per-tick overrides as whole value objects; shared configuration is
// never mutated.
type ScoringWeights struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// ScoringResult is the per-skill breakdown produced by the scorer.
// Recomputed every tick; never persisted as authoritative state.
type ScoringResult struct {
	SkillName string  `json:"skill_name"`
	GoalValue float64 `json:"goal_value"`
	InfoGain  float64 `json:"info_gain"`
	Cost      float64 `json:"cost"`
	Total     float64 `json:"total"`
}
