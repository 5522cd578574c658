package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/calegray/brainstem/internal/domain"
	"github.com/joho/godotenv"
)

// Load reads the .env file specified by BRAINSTEM_ENV (or .env by
// default), then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("BRAINSTEM_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	return intEnv("SERVER_PORT", 8080)
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey returns the static key required on authenticated routes.
// When empty, authentication is disabled (local development).
func APIKey() string {
	return os.Getenv("API_KEY")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	return floatEnv("RATE_LIMIT_RPS", 100)
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	return intEnv("RATE_LIMIT_BURST", 20)
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// Tuning builds the decision-core thresholds from the environment,
// starting from the stock defaults. Every threshold of the core is
// overridable here and nowhere else.
func Tuning() domain.Tuning {
	t := domain.DefaultTuning()

	t.Weights.Alpha = floatEnv("SCORE_ALPHA", t.Weights.Alpha)
	t.Weights.Beta = floatEnv("SCORE_BETA", t.Weights.Beta)
	t.Weights.Gamma = floatEnv("SCORE_GAMMA", t.Weights.Gamma)

	t.BeliefFloor = floatEnv("BELIEF_FLOOR", t.BeliefFloor)
	t.BeliefCeiling = floatEnv("BELIEF_CEILING", t.BeliefCeiling)
	t.ConfirmedTrueTarget = floatEnv("BELIEF_CONFIRMED_TRUE_TARGET", t.ConfirmedTrueTarget)
	t.ConfirmedFalseTarget = floatEnv("BELIEF_CONFIRMED_FALSE_TARGET", t.ConfirmedFalseTarget)

	t.PanicEntropy = floatEnv("PANIC_ENTROPY_THRESHOLD", t.PanicEntropy)
	t.ScarcityFactor = floatEnv("SCARCITY_FACTOR", t.ScarcityFactor)
	t.NoveltyThreshold = floatEnv("NOVELTY_PREDICTION_ERROR_THRESHOLD", t.NoveltyThreshold)
	t.HubrisStreak = intEnv("HUBRIS_STREAK", t.HubrisStreak)
	t.HubrisRewardFloor = floatEnv("HUBRIS_REWARD_FLOOR", t.HubrisRewardFloor)
	t.HubrisEntropyCeiling = floatEnv("HUBRIS_ENTROPY_CEILING", t.HubrisEntropyCeiling)

	t.HistoryWindow = intEnv("HISTORY_WINDOW", t.HistoryWindow)
	t.TrackerWindow = intEnv("TRACKER_WINDOW", t.TrackerWindow)

	t.MinStepsRemaining = int64(intEnv("ESCALATION_MIN_STEPS", int(t.MinStepsRemaining)))
	t.PanicEscalationCount = intEnv("ESCALATION_PANIC_COUNT", t.PanicEscalationCount)
	t.PanicEscalationWindow = intEnv("ESCALATION_PANIC_WINDOW", t.PanicEscalationWindow)
	t.DeadlockEscalationCount = intEnv("ESCALATION_DEADLOCK_COUNT", t.DeadlockEscalationCount)

	t.SafetyCostCeiling = floatEnv("PANIC_SAFETY_COST_CEILING", t.SafetyCostCeiling)
	t.ScarcityWeights.Alpha = floatEnv("SCARCITY_ALPHA", t.ScarcityWeights.Alpha)
	t.ScarcityWeights.Beta = floatEnv("SCARCITY_BETA", t.ScarcityWeights.Beta)
	t.ScarcityWeights.Gamma = floatEnv("SCARCITY_GAMMA", t.ScarcityWeights.Gamma)
	t.NoveltyBetaMultiplier = floatEnv("NOVELTY_BETA_MULTIPLIER", t.NoveltyBetaMultiplier)
	t.HubrisBetaFloor = floatEnv("HUBRIS_BETA_FLOOR", t.HubrisBetaFloor)

	return t
}

func intEnv(name string, def int) int {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return def
	}
	return v
}

func floatEnv(name string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(name), 64)
	if err != nil {
		return def
	}
	return v
}
