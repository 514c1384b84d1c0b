package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/slimalim5/mtg-project/internal/constants"
	"github.com/slimalim5/mtg-project/internal/domain"

	"github.com/rs/zerolog"
)

const (
	// AnswerClarify is the only permitted output besides Yes/No. Any
	// non-conforming model output collapses to it.
	AnswerClarify = "Please rephrase as a yes/no question"

	// AnswerFallback substitutes an empty provider response so callers never
	// see an empty answer.
	AnswerFallback = "Unable to answer"

	AnswerYes = "Yes"
	AnswerNo  = "No"
)

const systemPromptTemplate = `You are a referee in a 20 questions game about Magic: The Gathering cards.

Your role:
- Answer the user's question with ONLY "Yes" or "No" based strictly on the card data provided
- Be precise and literal in your interpretation
- If the question is ambiguous or cannot be answered with yes/no, respond with "%s"
- Do NOT reveal the card name under any circumstances
- If the user asks whether the card is a specific named card, answer "Yes" only if the name matches the card data exactly
- Base your answer ONLY on the data provided, not on your general knowledge of Magic cards

Card Data:
%s`

// CompletionClient is the slice of the provider the answer service needs.
// *OpenAIClient satisfies it; tests substitute a stub.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// AnswerService turns free-text questions about a secret card into answers
// constrained to the Yes/No/clarify grammar. Prompt construction withholds
// the card identity; the grammar check backstops the prompt.
type AnswerService struct {
	client CompletionClient
	logger zerolog.Logger
}

func NewAnswerService(client *OpenAIClient, logger zerolog.Logger) *AnswerService {
	return &AnswerService{client: client, logger: logger}
}

// NewAnswerServiceWithClient wires an arbitrary completion client. Used by
// tests and by the proxy handler's spy assertions.
func NewAnswerServiceWithClient(client CompletionClient, logger zerolog.Logger) *AnswerService {
	return &AnswerService{client: client, logger: logger}
}

// AnswerQuestion answers one question about card. Provider failures are
// logged in full and surfaced as domain.ErrAnswerFailed only.
func (s *AnswerService) AnswerQuestion(ctx context.Context, question string, card *domain.Card) (string, *Usage, error) {
	systemPrompt := BuildSystemPrompt(card)

	resp, err := s.client.CreateChatCompletion(ctx, ChatRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: question},
		},
		Temperature: constants.AnswerTemperature,
		MaxTokens:   constants.AnswerMaxTokens,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("error calling OpenAI API")
		return "", nil, domain.ErrAnswerFailed
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if content == "" {
		return AnswerFallback, resp.Usage, nil
	}

	return normalizeAnswer(content), resp.Usage, nil
}

// normalizeAnswer collapses any output outside the Yes/No/clarify grammar to
// the clarification string. The prompt is the primary enforcement; this is
// the backstop.
func normalizeAnswer(content string) string {
	trimmed := strings.TrimSuffix(strings.TrimSpace(content), ".")
	switch strings.ToLower(trimmed) {
	case "yes":
		return AnswerYes
	case "no":
		return AnswerNo
	}
	return AnswerClarify
}

// BuildSystemPrompt renders the referee instruction with the card's full
// attribute set as structured context.
func BuildSystemPrompt(card *domain.Card) string {
	return fmt.Sprintf(systemPromptTemplate, AnswerClarify, FormatCardData(card))
}

// FormatCardData renders the card attributes one per line. Fields absent at
// the top level resolve through the first face; lines with no value at
// either level are omitted.
func FormatCardData(card *domain.Card) string {
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}

	add("Name", card.Name)
	add("Mana Cost", card.ResolvedManaCost())
	lines = append(lines, fmt.Sprintf("Converted Mana Cost: %g", card.CMC))
	add("Type", card.TypeLine)
	add("Oracle Text", card.ResolvedOracleText())
	add("Power", card.ResolvedPower())
	add("Toughness", card.ResolvedToughness())
	add("Loyalty", card.ResolvedLoyalty())
	add("Colors", strings.Join(card.ResolvedColors(), ", "))
	add("Color Identity", strings.Join(card.ColorIdentity, ", "))
	add("Keywords", strings.Join(card.Keywords, ", "))
	add("Rarity", card.Rarity)
	add("Set", card.SetName)
	add("Artist", card.Artist)

	return strings.Join(lines, "\n")
}
