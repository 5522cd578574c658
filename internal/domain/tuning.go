package domain

// Tuning collects every numeric threshold of the decision core. All
// values are supplied at initialization (see internal/config); nothing
// in the core reads configuration ambiently.
type Tuning struct {
	// Default scoring weights.
	Weights ScoringWeights

	// Conservative belief snapping. Updates never reach exactly 0 or 1.
	BeliefFloor          float64 // lower clamp for any belief
	BeliefCeiling        float64 // upper clamp for any belief
	ConfirmedTrueTarget  float64 // target p for obs_confirmed_true
	ConfirmedFalseTarget float64 // target p for obs_confirmed_false

	// Detector thresholds.
	PanicEntropy         float64 // entropy above this is Panic
	ScarcityFactor       float64 // Scarcity when steps < distance * factor
	NoveltyThreshold     float64 // prediction error above this is Novelty
	HubrisStreak         int     // consecutive high rewards required
	HubrisRewardFloor    float64 // a reward above this counts as "high"
	HubrisEntropyCeiling float64 // Hubris only when entropy is below this

	// Window sizes.
	HistoryWindow  int // K, skill and reward buffers
	DeadlockWindow int // history suffix checked for the A,B,A,B cycle
	TrackerWindow  int // N, escalation tracker ring

	// Escalation rules.
	MinStepsRemaining       int64 // escalate below this budget
	PanicEscalationCount    int
	PanicEscalationWindow   int
	DeadlockEscalationCount int

	// Protocol parameters.
	SafetyCostCeiling     float64        // Panic: keep skills cheaper than this
	ScarcityWeights       ScoringWeights // Scarcity: full override for the tick
	NoveltyBetaMultiplier float64        // Novelty: beta raised to mult * default
	HubrisBetaFloor       float64        // Hubris: minimum beta

	// Tie-break epsilon for score comparison.
	Epsilon float64
}

// DefaultTuning returns the stock thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		Weights: ScoringWeights{Alpha: 1.0, Beta: 6.0, Gamma: 0.3},

		BeliefFloor:          0.10,
		BeliefCeiling:        0.90,
		ConfirmedTrueTarget:  0.85,
		ConfirmedFalseTarget: 0.15,

		PanicEntropy:         0.45,
		ScarcityFactor:       1.2,
		NoveltyThreshold:     0.8,
		HubrisStreak:         6,
		HubrisRewardFloor:    0.5,
		HubrisEntropyCeiling: 0.15,

		HistoryWindow:  10,
		DeadlockWindow: 4,
		TrackerWindow:  10,

		MinStepsRemaining:       2,
		PanicEscalationCount:    3,
		PanicEscalationWindow:   5,
		DeadlockEscalationCount: 2,

		SafetyCostCeiling:     2.0,
		ScarcityWeights:       ScoringWeights{Alpha: 10.0, Beta: 0.0, Gamma: 0.1},
		NoveltyBetaMultiplier: 5.0,
		HubrisBetaFloor:       3.0,

		Epsilon: 1e-9,
	}
}
