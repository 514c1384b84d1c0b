package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slimalim5/mtg-project/internal/config"

	"github.com/valyala/fasthttp"
)

const chatCompletionsURL = "https://api.openai.com/v1/chat/completions"

// OpenAIClient is a minimal chat-completions client. Only the request shape
// the answer service needs is modeled.
type OpenAIClient struct {
	apiKey string
	model  string
	client *fasthttp.Client
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatChoice struct {
	Message ChatMessage `json:"message"`
}

type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
	Usage   *Usage       `json:"usage"`
}

func NewOpenAIClient(cfg *config.Config) *OpenAIClient {
	return &OpenAIClient{
		apiKey: cfg.OpenAIAPIKey,
		model:  cfg.OpenAIModel,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         30 * time.Second,
			WriteTimeout:        30 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// CreateChatCompletion posts a completion request and returns the raw
// response. Non-200 statuses are returned as errors carrying the provider
// body so callers can log the detail.
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, chatReq ChatRequest) (*ChatResponse, error) {
	if chatReq.Model == "" {
		chatReq.Model = c.model
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(chatCompletionsURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("openai API error: %d: %s", resp.StatusCode(), resp.Body())
	}

	var result ChatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
