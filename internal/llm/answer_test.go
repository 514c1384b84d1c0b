package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/slimalim5/mtg-project/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompletionClient struct {
	lastReq *ChatRequest
	calls   int
	content string
	usage   *Usage
	err     error
}

func (s *stubCompletionClient) CreateChatCompletion(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	s.calls++
	s.lastReq = &req
	if s.err != nil {
		return nil, s.err
	}
	return &ChatResponse{
		Choices: []ChatChoice{{Message: ChatMessage{Role: "assistant", Content: s.content}}},
		Usage:   s.usage,
	}, nil
}

func newTestAnswerService(stub *stubCompletionClient) *AnswerService {
	return NewAnswerServiceWithClient(stub, zerolog.Nop())
}

func singleFaced() *domain.Card {
	return &domain.Card{
		Name:       "Lightning Bolt",
		ManaCost:   "{R}",
		CMC:        1,
		TypeLine:   "Instant",
		OracleText: "Lightning Bolt deals 3 damage to any target.",
		Colors:     []string{"R"},
		Rarity:     "common",
		SetName:    "Limited Edition Alpha",
	}
}

func doubleFaced() *domain.Card {
	return &domain.Card{
		Name:     "Delver of Secrets // Insectile Aberration",
		CMC:      1,
		TypeLine: "Creature — Human Wizard // Creature — Human Insect",
		Layout:   "transform",
		Rarity:   "common",
		SetName:  "Innistrad",
		CardFaces: []domain.CardFace{
			{
				Name:       "Delver of Secrets",
				ManaCost:   "{U}",
				OracleText: "At the beginning of your upkeep, look at the top card of your library.",
				Colors:     []string{"U"},
				Power:      "1",
				Toughness:  "1",
			},
			{
				Name:      "Insectile Aberration",
				Colors:    []string{"U"},
				Power:     "3",
				Toughness: "2",
			},
		},
	}
}

func TestFormatCardDataFaceFallback(t *testing.T) {
	data := FormatCardData(doubleFaced())

	assert.Contains(t, data, "Mana Cost: {U}")
	assert.Contains(t, data, "Oracle Text: At the beginning of your upkeep")
	assert.Contains(t, data, "Power: 1")
	assert.Contains(t, data, "Toughness: 1")
	assert.Contains(t, data, "Colors: U")
}

func TestFormatCardDataOmitsAbsentLines(t *testing.T) {
	card := &domain.Card{Name: "Black Lotus", CMC: 0, TypeLine: "Artifact", Rarity: "rare"}
	data := FormatCardData(card)

	assert.NotContains(t, data, "Mana Cost:")
	assert.NotContains(t, data, "Power:")
	assert.NotContains(t, data, "Loyalty:")
	assert.Contains(t, data, "Converted Mana Cost: 0")
}

func TestFormatCardDataSingleFaced(t *testing.T) {
	data := FormatCardData(singleFaced())

	assert.Contains(t, data, "Name: Lightning Bolt")
	assert.Contains(t, data, "Mana Cost: {R}")
	assert.Contains(t, data, "Converted Mana Cost: 1")
	assert.Contains(t, data, "Type: Instant")
	assert.Contains(t, data, "Set: Limited Edition Alpha")
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(singleFaced())

	assert.Contains(t, prompt, "20 questions game about Magic: The Gathering")
	assert.Contains(t, prompt, AnswerClarify)
	assert.Contains(t, prompt, "Do NOT reveal the card name")
	assert.Contains(t, prompt, "Name: Lightning Bolt")
}

func TestAnswerQuestionRequestShape(t *testing.T) {
	stub := &stubCompletionClient{content: "Yes"}
	svc := newTestAnswerService(stub)

	answer, _, err := svc.AnswerQuestion(context.Background(), "Is it red?", singleFaced())
	require.NoError(t, err)
	assert.Equal(t, AnswerYes, answer)

	require.NotNil(t, stub.lastReq)
	assert.InDelta(t, 0.3, stub.lastReq.Temperature, 0.0001)
	assert.Equal(t, 50, stub.lastReq.MaxTokens)
	require.Len(t, stub.lastReq.Messages, 2)
	assert.Equal(t, "system", stub.lastReq.Messages[0].Role)
	assert.Equal(t, "user", stub.lastReq.Messages[1].Role)
	assert.Equal(t, "Is it red?", stub.lastReq.Messages[1].Content)
	assert.True(t, strings.Contains(stub.lastReq.Messages[0].Content, "Card Data:"))
}

func TestAnswerQuestionGrammar(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"yes passes", "Yes", AnswerYes},
		{"no passes", "No", AnswerNo},
		{"lowercase yes canonicalized", "yes", AnswerYes},
		{"trailing period stripped", "No.", AnswerNo},
		{"padded yes", "  Yes  ", AnswerYes},
		{"clarification passes", AnswerClarify, AnswerClarify},
		{"explanation collapses", "Well, it depends on the board state.", AnswerClarify},
		{"leaky answer collapses", "Yes, the card is Lightning Bolt", AnswerClarify},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestAnswerService(&stubCompletionClient{content: tc.content})
			answer, _, err := svc.AnswerQuestion(context.Background(), "What does this card do?", singleFaced())
			require.NoError(t, err)
			assert.Equal(t, tc.want, answer)
		})
	}
}

func TestAnswerQuestionEmptyContentFallsBack(t *testing.T) {
	svc := newTestAnswerService(&stubCompletionClient{content: "   "})
	answer, _, err := svc.AnswerQuestion(context.Background(), "Is it blue?", singleFaced())
	require.NoError(t, err)
	assert.Equal(t, AnswerFallback, answer)
}

func TestAnswerQuestionProviderError(t *testing.T) {
	svc := newTestAnswerService(&stubCompletionClient{err: errors.New("openai API error: 503")})
	_, _, err := svc.AnswerQuestion(context.Background(), "Is it blue?", singleFaced())
	assert.ErrorIs(t, err, domain.ErrAnswerFailed)
}

func TestAnswerQuestionPassesUsageThrough(t *testing.T) {
	usage := &Usage{PromptTokens: 120, CompletionTokens: 1, TotalTokens: 121}
	svc := newTestAnswerService(&stubCompletionClient{content: "Yes", usage: usage})

	_, got, err := svc.AnswerQuestion(context.Background(), "Is it red?", singleFaced())
	require.NoError(t, err)
	assert.Equal(t, usage, got)
}
