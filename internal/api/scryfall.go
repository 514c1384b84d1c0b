package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slimalim5/mtg-project/internal/domain"

	"github.com/valyala/fasthttp"
)

const randomCardURL = "https://api.scryfall.com/cards/random"

// ScryfallClient fetches card data from the public Scryfall API.
type ScryfallClient struct {
	client *fasthttp.Client
}

func NewScryfallClient() *ScryfallClient {
	return &ScryfallClient{
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// RandomCard returns one card from Scryfall's random-card endpoint. Each
// call is independent; there is no retry and no caching.
func (c *ScryfallClient) RandomCard(ctx context.Context) (*domain.Card, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(randomCardURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

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
		return nil, fmt.Errorf("scryfall API error: %d", resp.StatusCode())
	}

	var card domain.Card
	if err := json.Unmarshal(resp.Body(), &card); err != nil {
		return nil, err
	}
	return &card, nil
}
