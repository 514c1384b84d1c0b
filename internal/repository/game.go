package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slimalim5/mtg-project/internal/constants"
	"github.com/slimalim5/mtg-project/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type GameRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGameRepository(sqlDB *sql.DB, logger zerolog.Logger) *GameRepository {
	return &GameRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Create inserts a new active game holding the card snapshot. The insert
// runs in a transaction that first checks for an existing active game, so
// the one-active-game-per-user invariant is enforced at the store boundary
// rather than trusted to callers.
func (r *GameRepository) Create(ctx context.Context, userID string, card *domain.Card) (string, error) {
	if userID == "" {
		return "", domain.ErrUnauthenticated
	}
	if card == nil {
		return "", domain.ErrMissingCard
	}

	cardJSON, err := json.Marshal(card)
	if err != nil {
		return "", fmt.Errorf("failed to marshal card snapshot: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate nanoid: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM games WHERE user_id = ? AND status = ?`,
		userID, domain.GameStatusActive,
	).Scan(&active)
	if err != nil {
		return "", fmt.Errorf("failed to check for active game: %w", err)
	}
	if active > 0 {
		return "", domain.ErrActiveGameExists
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO games (id, user_id, status, started_at, secret_card, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, domain.GameStatusActive, now, string(cardJSON), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert game: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit game insert: %w", err)
	}

	r.logger.Info().Str("game_id", id).Str("user_id", userID).Msg("game created")
	return id, nil
}

// GetActive returns the user's single active game, or domain.ErrNoActiveGame.
// LIMIT 1 semantics: callers rely on at most one row coming back.
func (r *GameRepository) GetActive(ctx context.Context, userID string) (*domain.Game, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, started_at, secret_card, created_at, updated_at
		 FROM games WHERE user_id = ? AND status = ? LIMIT 1`,
		userID, domain.GameStatusActive,
	)

	game, err := scanGame(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNoActiveGame
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

// History returns finished games, newest start time first, truncated to
// limit (default when limit <= 0).
func (r *GameRepository) History(ctx context.Context, userID string, limit int) ([]domain.Game, error) {
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, status, started_at, secret_card, created_at, updated_at
		 FROM games WHERE user_id = ? AND status IN (?, ?)
		 ORDER BY started_at DESC LIMIT ?`,
		userID, domain.GameStatusWon, domain.GameStatusLost, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

// UpdateStatus transitions a game out of the active state. Games that are
// already won or lost are immutable; a non-matching row count surfaces as
// domain.ErrNotFound.
func (r *GameRepository) UpdateStatus(ctx context.Context, userID, gameID string, status domain.GameStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND status = ?`,
		status, time.Now().UTC(), gameID, userID, domain.GameStatusActive,
	)
	if err != nil {
		return fmt.Errorf("failed to update game status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	r.logger.Info().
		Str("game_id", gameID).
		Str("user_id", userID).
		Str("status", string(status)).
		Msg("game status updated")
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.Game, error) {
	var (
		game     domain.Game
		cardJSON string
	)
	err := row.Scan(&game.ID, &game.UserID, &game.Status, &game.StartedAt, &cardJSON, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if cardJSON != "" {
		var card domain.Card
		if err := json.Unmarshal([]byte(cardJSON), &card); err != nil {
			return nil, fmt.Errorf("failed to unmarshal card snapshot: %w", err)
		}
		game.SecretCard = &card
	}
	return &game, nil
}
