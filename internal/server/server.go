package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/slimalim5/mtg-project/internal/domain"
	"github.com/slimalim5/mtg-project/internal/llm"
	"github.com/slimalim5/mtg-project/internal/middleware"
	"github.com/slimalim5/mtg-project/internal/service"

	"github.com/rs/zerolog"
)

// Server exposes the game orchestrator and the proxied answer endpoint over
// JSON HTTP. All failures become JSON error bodies; nothing panics outward.
type Server struct {
	games   *service.GameService
	answers *llm.AnswerService
	logger  zerolog.Logger
}

func NewServer(games *service.GameService, answers *llm.AnswerService, logger zerolog.Logger) *Server {
	return &Server{games: games, answers: answers, logger: logger}
}

func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/games", s.handleStartGame)
	mux.HandleFunc("GET /api/games/active", s.handleActiveGame)
	mux.HandleFunc("GET /api/games/history", s.handleHistory)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /api/games/{id}/question", s.handleQuestion)
	mux.HandleFunc("POST /api/games/{id}/guess", s.handleGuess)
	mux.HandleFunc("/api/answer", s.handleAnswer)
}

type gameView struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
	// CardName is only present on finished games. The secret of an active
	// game never leaves the server.
	CardName string `json:"cardName,omitempty"`
	SetName  string `json:"setName,omitempty"`
}

type turnView struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

func viewGame(g *domain.Game) gameView {
	v := gameView{
		ID:        g.ID,
		Status:    string(g.Status),
		StartedAt: g.StartedAt,
	}
	if g.Status != domain.GameStatusActive && g.SecretCard != nil {
		v.CardName = g.SecretCard.Name
		v.SetName = g.SecretCard.SetName
	}
	return v
}

func viewTurns(turns []domain.Turn) []turnView {
	views := make([]turnView, len(turns))
	for i, t := range turns {
		views[i] = turnView{
			ID:        t.ID,
			Type:      string(t.Type),
			Question:  t.Question,
			Answer:    t.Answer,
			Timestamp: t.Timestamp,
		}
	}
	return views
}

func viewGames(games []domain.Game) []gameView {
	views := make([]gameView, len(games))
	for i := range games {
		views[i] = viewGame(&games[i])
	}
	return views
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := s.games.StartGame(r.Context(), middleware.UserID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"gameId": gameID})
}

func (s *Server) handleActiveGame(w http.ResponseWriter, r *http.Request) {
	game, turns, err := s.games.ActiveGame(r.Context(), middleware.UserID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"game":  viewGame(game),
		"turns": viewTurns(turns),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	games, err := s.games.History(r.Context(), middleware.UserID(r), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"games": viewGames(games)})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	game, turns, history, err := s.games.Dashboard(r.Context(), middleware.UserID(r), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := map[string]any{
		"history": viewGames(history),
	}
	if game != nil {
		resp["game"] = viewGame(game)
		resp["turns"] = viewTurns(turns)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Question == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid-argument", "Request body must include a 'question' string.")
		return
	}

	answer, err := s.games.SubmitQuestion(r.Context(), middleware.UserID(r), r.PathValue("id"), body.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Guess string `json:"guess"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Guess == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid-argument", "Request body must include a 'guess' string.")
		return
	}

	correct, answer, err := s.games.SubmitGuess(r.Context(), middleware.UserID(r), r.PathValue("id"), body.Guess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"correct": correct, "answer": answer})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch err {
	case domain.ErrUnauthenticated:
		status = http.StatusUnauthorized
	case domain.ErrNotFound, domain.ErrNoActiveGame:
		status = http.StatusNotFound
	case domain.ErrActiveGameExists:
		status = http.StatusConflict
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		if err != domain.ErrAnswerFailed {
			// internal detail stays in the logs
			message = "internal error"
		}
	} else {
		s.logger.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
	}

	s.writeErrorMessage(w, status, http.StatusText(status), message)
}

func (s *Server) writeErrorMessage(w http.ResponseWriter, status int, errCode, message string) {
	s.writeJSON(w, status, map[string]string{"error": errCode, "message": message})
}
