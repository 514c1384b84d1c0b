package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// DefaultHistoryLimit caps finished-game history queries when the caller
	// does not ask for a specific count.
	DefaultHistoryLimit = 10

	// AnswerTemperature is low to keep yes/no answers stable, non-zero so the
	// model can still pick the clarification path on ambiguous questions.
	AnswerTemperature = 0.3

	// AnswerMaxTokens is tight enough that multi-sentence leakage is not
	// representable in the output.
	AnswerMaxTokens = 50
)
