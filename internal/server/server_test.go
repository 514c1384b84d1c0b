package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slimalim5/mtg-project/internal/database"
	"github.com/slimalim5/mtg-project/internal/domain"
	"github.com/slimalim5/mtg-project/internal/llm"
	"github.com/slimalim5/mtg-project/internal/repository"
	"github.com/slimalim5/mtg-project/internal/service"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyCompletionClient struct {
	calls   int
	content string
	err     error
}

func (s *spyCompletionClient) CreateChatCompletion(_ context.Context, _ llm.ChatRequest) (*llm.ChatResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{
		Choices: []llm.ChatChoice{{Message: llm.ChatMessage{Role: "assistant", Content: s.content}}},
		Usage:   &llm.Usage{PromptTokens: 100, CompletionTokens: 1, TotalTokens: 101},
	}, nil
}

type fixedCardSource struct {
	card *domain.Card
}

func (f *fixedCardSource) RandomCard(context.Context) (*domain.Card, error) {
	return f.card, nil
}

func newTestMux(t *testing.T, spy *spyCompletionClient) *http.ServeMux {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, zerolog.Nop()))

	answers := llm.NewAnswerServiceWithClient(spy, zerolog.Nop())
	games := repository.NewGameRepository(db, zerolog.Nop())
	turns := repository.NewTurnRepository(db, zerolog.Nop())
	card := &domain.Card{Name: "Lightning Bolt", ManaCost: "{R}", CMC: 1, TypeLine: "Instant"}
	svc := service.NewGameService(&fixedCardSource{card: card}, answers, games, turns, zerolog.Nop())

	mux := http.NewServeMux()
	NewServer(svc, answers, zerolog.Nop()).Routes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestAnswerRejectsNonPost(t *testing.T) {
	spy := &spyCompletionClient{content: "Yes"}
	mux := newTestMux(t, spy)

	w := doJSON(t, mux, http.MethodGet, "/api/answer", "", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Zero(t, spy.calls, "provider must not be called")
}

func TestAnswerRejectsMissingFields(t *testing.T) {
	spy := &spyCompletionClient{content: "Yes"}
	mux := newTestMux(t, spy)

	w := doJSON(t, mux, http.MethodPost, "/api/answer", "", map[string]any{
		"message": "Is it red?",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, mux, http.MethodPost, "/api/answer", "", map[string]any{
		"secretCardData": map[string]any{"name": "Lightning Bolt"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, spy.calls, "provider must not be called")
}

func TestAnswerSuccess(t *testing.T) {
	spy := &spyCompletionClient{content: "Yes"}
	mux := newTestMux(t, spy)

	w := doJSON(t, mux, http.MethodPost, "/api/answer", "", map[string]any{
		"secretCardData": map[string]any{"name": "Lightning Bolt", "mana_cost": "{R}"},
		"message":        "Is it red?",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Response string     `json:"response"`
		Usage    *llm.Usage `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Yes", resp.Response)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 101, resp.Usage.TotalTokens)
	assert.Equal(t, 1, spy.calls)
}

func TestAnswerProviderFailure(t *testing.T) {
	spy := &spyCompletionClient{err: errors.New("openai API error: 500")}
	mux := newTestMux(t, spy)

	w := doJSON(t, mux, http.MethodPost, "/api/answer", "", map[string]any{
		"secretCardData": map[string]any{"name": "Lightning Bolt"},
		"message":        "Is it red?",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
	assert.NotEmpty(t, resp["message"])
}

func TestStartGameRequiresAuth(t *testing.T) {
	mux := newTestMux(t, &spyCompletionClient{})

	w := doJSON(t, mux, http.MethodPost, "/api/games", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGameFlow(t *testing.T) {
	spy := &spyCompletionClient{content: "Yes"}
	mux := newTestMux(t, spy)

	// start
	w := doJSON(t, mux, http.MethodPost, "/api/games", "user-1", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var started map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	gameID := started["gameId"]
	require.NotEmpty(t, gameID)

	// second start conflicts
	w = doJSON(t, mux, http.MethodPost, "/api/games", "user-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// ask a question
	w = doJSON(t, mux, http.MethodPost, "/api/games/"+gameID+"/question", "user-1", map[string]string{"question": "Is it red?"})
	require.Equal(t, http.StatusOK, w.Code)
	var questionResp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &questionResp))
	assert.Equal(t, "Yes", questionResp["answer"])

	// the secret never appears in the active view
	w = doJSON(t, mux, http.MethodGet, "/api/games/active", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Lightning Bolt")

	// guess correctly
	w = doJSON(t, mux, http.MethodPost, "/api/games/"+gameID+"/guess", "user-1", map[string]string{"guess": "lightning bolt"})
	require.Equal(t, http.StatusOK, w.Code)
	var guessResp struct {
		Correct bool   `json:"correct"`
		Answer  string `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &guessResp))
	assert.True(t, guessResp.Correct)
	assert.Contains(t, guessResp.Answer, "Lightning Bolt")

	// resolved game shows up in history with the card revealed
	w = doJSON(t, mux, http.MethodGet, "/api/games/history", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Games []gameView `json:"games"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Games, 1)
	assert.Equal(t, "won", history.Games[0].Status)
	assert.Equal(t, "Lightning Bolt", history.Games[0].CardName)

	// no active game anymore
	w = doJSON(t, mux, http.MethodGet, "/api/games/active", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuestionValidation(t *testing.T) {
	mux := newTestMux(t, &spyCompletionClient{content: "Yes"})

	w := doJSON(t, mux, http.MethodPost, "/api/games", "user-1", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var started map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))

	w = doJSON(t, mux, http.MethodPost, "/api/games/"+started["gameId"]+"/question", "user-1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	mux := newTestMux(t, &spyCompletionClient{content: "Yes"})

	w := doJSON(t, mux, http.MethodPost, "/api/games", "user-1", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, mux, http.MethodGet, "/api/dashboard", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Game    *gameView  `json:"game"`
		Turns   []turnView `json:"turns"`
		History []gameView `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Game)
	assert.Equal(t, "active", resp.Game.Status)
	assert.Empty(t, resp.Game.CardName)
	assert.Empty(t, resp.History)
}
