package server

import (
	"encoding/json"
	"net/http"

	"github.com/slimalim5/mtg-project/internal/domain"
	"github.com/slimalim5/mtg-project/internal/llm"
)

type answerRequest struct {
	SecretCardData *domain.Card `json:"secretCardData"`
	Message        string       `json:"message"`
}

type answerResponse struct {
	Response string     `json:"response"`
	Usage    *llm.Usage `json:"usage,omitempty"`
}

// handleAnswer is the server-proxied answer call: the client supplies the
// card context and the question, the API key stays server-side. Method and
// input checks short-circuit before any provider call.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErrorMessage(w, http.StatusMethodNotAllowed, "method-not-allowed", "Only POST requests are accepted.")
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid-argument", "Request body must be valid JSON.")
		return
	}
	if req.SecretCardData == nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid-argument", "Request body must include 'secretCardData'.")
		return
	}
	if req.Message == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid-argument", "Request body must include a 'message' string.")
		return
	}

	answer, usage, err := s.answers.AnswerQuestion(r.Context(), req.Message, req.SecretCardData)
	if err != nil {
		s.logger.Error().Err(err).Msg("answer proxy call failed")
		s.writeErrorMessage(w, http.StatusInternalServerError, "internal", domain.ErrAnswerFailed.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, answerResponse{Response: answer, Usage: usage})
}
