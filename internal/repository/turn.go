package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/slimalim5/mtg-project/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type TurnRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTurnRepository(sqlDB *sql.DB, logger zerolog.Logger) *TurnRepository {
	return &TurnRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Add appends one turn with a server-assigned timestamp. Turns are never
// updated after this.
func (r *TurnRepository) Add(ctx context.Context, userID, gameID string, turn domain.Turn) (string, error) {
	if userID == "" {
		return "", domain.ErrUnauthenticated
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate nanoid: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO turns (id, game_id, user_id, type, question, answer, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, gameID, userID, turn.Type, turn.Question, turn.Answer, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert turn: %w", err)
	}

	r.logger.Debug().
		Str("turn_id", id).
		Str("game_id", gameID).
		Str("type", string(turn.Type)).
		Msg("turn recorded")
	return id, nil
}

// List returns a game's turns ascending by timestamp. Insertion order breaks
// ties, so a turn appended last always lists last.
func (r *TurnRepository) List(ctx context.Context, userID, gameID string) ([]domain.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, type, question, answer, created_at
		 FROM turns WHERE game_id = ? AND user_id = ?
		 ORDER BY created_at ASC, rowid ASC`,
		gameID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var turn domain.Turn
		if err := rows.Scan(&turn.ID, &turn.GameID, &turn.Type, &turn.Question, &turn.Answer, &turn.Timestamp); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
