package domain

import "errors"

var (
	// ErrUnauthenticated is returned when an operation is attempted without
	// a user identity.
	ErrUnauthenticated = errors.New("user must be authenticated")

	// ErrNoActiveGame is returned when a user has no game in the active state.
	ErrNoActiveGame = errors.New("no active game")

	// ErrActiveGameExists guards the one-active-game-per-user invariant at
	// the store boundary.
	ErrActiveGameExists = errors.New("an active game already exists")

	// ErrNotFound is returned when a game id does not match the caller's
	// active game, or a status update matches no row.
	ErrNotFound = errors.New("game not found or not active")

	// ErrMissingCard means a game row has no secret card snapshot. This is a
	// configuration error, not a recoverable state.
	ErrMissingCard = errors.New("game has no secret card data")

	// ErrAnswerFailed is the single value surfaced for any model-provider
	// failure. Provider detail is logged, not propagated.
	ErrAnswerFailed = errors.New("failed to get answer from LLM")
)
