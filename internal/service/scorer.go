package service

import (
	"math"

	"github.com/calegray/brainstem/internal/domain"
)

// neutralP is the probability used for skills with no variable binding.
const neutralP = 0.5

// Entropy returns the binary entropy H(p) in bits. H(0) and H(1) are 0
// by limit; the unique maximum is H(0.5) = 1.
func Entropy(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return -p*math.Log2(p) - (1-p)*math.Log2(1-p)
}

// FavorableProbability resolves P(favorable outcome) for a skill given
// the bound variable's probability.
func FavorableProbability(s domain.Skill, p float64) float64 {
	if s.FavorableWhenFalse {
		return 1 - p
	}
	return p
}

// ScoreSkill computes the expected-value breakdown for one skill. p is
// the probability of the skill's bound variable (neutralP for unbound
// skills). Pure function: identical inputs always produce identical
// results.
//
// The goal term doubles P(favorable) so that P = 0.5 is a neutral
// factor of 1 and full confidence doubles the coefficient. The info
// term pays out exactly when uncertainty is high.
func ScoreSkill(s domain.Skill, p float64, w domain.ScoringWeights) domain.ScoringResult {
	goalValue := s.GoalCoefficient * 2 * FavorableProbability(s, p)
	infoGain := s.InfoCoefficient * Entropy(p)

	return domain.ScoringResult{
		SkillName: s.Name,
		GoalValue: goalValue,
		InfoGain:  infoGain,
		Cost:      s.Cost,
		Total:     w.Alpha*goalValue + w.Beta*infoGain - w.Gamma*s.Cost,
	}
}
