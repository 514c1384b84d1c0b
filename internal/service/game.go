package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/slimalim5/mtg-project/internal/constants"
	"github.com/slimalim5/mtg-project/internal/domain"
	"github.com/slimalim5/mtg-project/internal/llm"
	"github.com/slimalim5/mtg-project/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// CardSource fetches the secret card for a new game.
type CardSource interface {
	RandomCard(ctx context.Context) (*domain.Card, error)
}

// Answerer produces a grammar-constrained answer to a question about the
// secret card.
type Answerer interface {
	AnswerQuestion(ctx context.Context, question string, card *domain.Card) (string, *llm.Usage, error)
}

// GameService sequences card fetch, persistence and model calls. It holds
// no game state between calls; the card flows from the fetch step into game
// creation as an explicit value, never through a shared field.
type GameService struct {
	cards  CardSource
	answer Answerer
	games  *repository.GameRepository
	turns  *repository.TurnRepository
	logger zerolog.Logger
}

func NewGameService(cards CardSource, answer Answerer, games *repository.GameRepository, turns *repository.TurnRepository, logger zerolog.Logger) *GameService {
	return &GameService{cards: cards, answer: answer, games: games, turns: turns, logger: logger}
}

// StartGame fetches a random card and creates an active game around it.
func (s *GameService) StartGame(ctx context.Context, userID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if userID == "" {
		return "", domain.ErrUnauthenticated
	}

	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer apiCancel()

	card, err := s.cards.RandomCard(apiCtx)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch random card")
		return "", fmt.Errorf("failed to fetch random card: %w", err)
	}
	s.logger.Debug().Str("user_id", userID).Msg("card fetched")

	gameID, err := s.games.Create(ctx, userID, card)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to create game")
		return "", err
	}

	s.logger.Info().Str("game_id", gameID).Str("user_id", userID).Msg("game started")
	return gameID, nil
}

// SubmitQuestion relays one question to the answer service and records the
// exchange. Game status is untouched.
func (s *GameService) SubmitQuestion(ctx context.Context, userID, gameID, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	game, err := s.loadActiveGame(ctx, userID, gameID)
	if err != nil {
		return "", err
	}

	answer, _, err := s.answer.AnswerQuestion(ctx, question, game.SecretCard)
	if err != nil {
		s.logger.Error().Err(err).Str("game_id", gameID).Msg("answer service failed")
		return "", err
	}

	if _, err := s.turns.Add(ctx, userID, gameID, domain.Turn{
		Type:     domain.TurnTypeQuestion,
		Question: question,
		Answer:   answer,
	}); err != nil {
		s.logger.Error().Err(err).Str("game_id", gameID).Msg("failed to record turn")
		return "", err
	}

	return answer, nil
}

// SubmitGuess resolves a guess against the secret card name. Matching is
// exact after trimming and lowercasing both sides; nothing fuzzy. The game
// transitions to won or lost either way and becomes immutable.
func (s *GameService) SubmitGuess(ctx context.Context, userID, gameID, guess string) (bool, string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	game, err := s.loadActiveGame(ctx, userID, gameID)
	if err != nil {
		return false, "", err
	}

	normalizedGuess := strings.ToLower(strings.TrimSpace(guess))
	normalizedName := strings.ToLower(strings.TrimSpace(game.SecretCard.Name))
	isCorrect := normalizedGuess == normalizedName

	var answer string
	if isCorrect {
		answer = fmt.Sprintf("Yes! The card is %s. You won!", game.SecretCard.Name)
	} else {
		answer = fmt.Sprintf("No, it's not %s. The card was %s. You lost!", guess, game.SecretCard.Name)
	}

	if _, err := s.turns.Add(ctx, userID, gameID, domain.Turn{
		Type:     domain.TurnTypeGuess,
		Question: fmt.Sprintf("Is the card %s?", guess),
		Answer:   answer,
	}); err != nil {
		s.logger.Error().Err(err).Str("game_id", gameID).Msg("failed to record guess turn")
		return false, "", err
	}

	status := domain.GameStatusLost
	if isCorrect {
		status = domain.GameStatusWon
	}
	if err := s.games.UpdateStatus(ctx, userID, gameID, status); err != nil {
		s.logger.Error().Err(err).Str("game_id", gameID).Msg("failed to update game status")
		return false, "", err
	}

	s.logger.Info().
		Str("game_id", gameID).
		Str("user_id", userID).
		Bool("correct", isCorrect).
		Msg("guess resolved")
	return isCorrect, answer, nil
}

// ActiveGame returns the user's active game and its turn history.
func (s *GameService) ActiveGame(ctx context.Context, userID string) (*domain.Game, []domain.Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if userID == "" {
		return nil, nil, domain.ErrUnauthenticated
	}

	game, err := s.games.GetActive(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	turns, err := s.turns.List(ctx, userID, game.ID)
	if err != nil {
		return nil, nil, err
	}

	return game, turns, nil
}

// Dashboard assembles the resume view in one call: the active game with its
// turns, plus the finished-game history for the sidebar. The two reads are
// independent and run concurrently. A user with no active game still gets
// their history.
func (s *GameService) Dashboard(ctx context.Context, userID string, historyLimit int) (*domain.Game, []domain.Turn, []domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if userID == "" {
		return nil, nil, nil, domain.ErrUnauthenticated
	}

	var (
		game    *domain.Game
		turns   []domain.Turn
		history []domain.Game
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		active, err := s.games.GetActive(gCtx, userID)
		if err == domain.ErrNoActiveGame {
			return nil
		}
		if err != nil {
			return err
		}
		game = active
		turns, err = s.turns.List(gCtx, userID, active.ID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.games.History(gCtx, userID, historyLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	return game, turns, history, nil
}

// History returns the user's finished games, newest first.
func (s *GameService) History(ctx context.Context, userID string, limit int) ([]domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	return s.games.History(ctx, userID, limit)
}

// loadActiveGame applies the shared preconditions for question and guess
// submission: authenticated caller, the id names the caller's active game,
// and the game carries its card snapshot.
func (s *GameService) loadActiveGame(ctx context.Context, userID, gameID string) (*domain.Game, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	game, err := s.games.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if game.ID != gameID {
		return nil, domain.ErrNotFound
	}
	if game.SecretCard == nil {
		return nil, domain.ErrMissingCard
	}
	return game, nil
}
