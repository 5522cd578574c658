package domain

// Observation is the opaque outcome tag produced by the environment
// after a skill runs. The belief store maps each kind to a target
// probability; unknown kinds are treated as ambiguous.
type Observation string

const (
	ObservationConfirmedTrue  Observation = "obs_confirmed_true"
	ObservationConfirmedFalse Observation = "obs_confirmed_false"
	ObservationAmbiguous      Observation = "obs_ambiguous"
)

// Belief is the scalar probability estimate for one tracked world
// variable.
type Belief struct {
	Variable string  `json:"variable"`
	P        float64 `json:"p"`
}
