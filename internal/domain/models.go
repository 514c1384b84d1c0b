package domain

import (
	"time"
)

type GameStatus string

const (
	GameStatusActive GameStatus = "active"
	GameStatusWon    GameStatus = "won"
	GameStatusLost   GameStatus = "lost"
)

type TurnType string

const (
	TurnTypeQuestion TurnType = "question"
	TurnTypeGuess    TurnType = "guess"
)

// Card is the snapshot of a Scryfall card captured when a game starts.
// Double-faced cards carry cost/text/colors on the faces instead of the
// top level, so readers must go through the Resolved* accessors.
type Card struct {
	Name          string     `json:"name"`
	ManaCost      string     `json:"mana_cost,omitempty"`
	CMC           float64    `json:"cmc"`
	TypeLine      string     `json:"type_line"`
	OracleText    string     `json:"oracle_text,omitempty"`
	Power         string     `json:"power,omitempty"`
	Toughness     string     `json:"toughness,omitempty"`
	Loyalty       string     `json:"loyalty,omitempty"`
	Colors        []string   `json:"colors,omitempty"`
	ColorIdentity []string   `json:"color_identity,omitempty"`
	Keywords      []string   `json:"keywords,omitempty"`
	Rarity        string     `json:"rarity"`
	SetName       string     `json:"set_name"`
	Artist        string     `json:"artist,omitempty"`
	Layout        string     `json:"layout,omitempty"`
	CardFaces     []CardFace `json:"card_faces,omitempty"`
}

// CardFace is one side of a double-sided card.
type CardFace struct {
	Name       string   `json:"name"`
	ManaCost   string   `json:"mana_cost,omitempty"`
	TypeLine   string   `json:"type_line,omitempty"`
	OracleText string   `json:"oracle_text,omitempty"`
	Colors     []string `json:"colors,omitempty"`
	Power      string   `json:"power,omitempty"`
	Toughness  string   `json:"toughness,omitempty"`
	Loyalty    string   `json:"loyalty,omitempty"`
}

func (c *Card) ResolvedManaCost() string {
	if c.ManaCost != "" {
		return c.ManaCost
	}
	if len(c.CardFaces) > 0 {
		return c.CardFaces[0].ManaCost
	}
	return ""
}

func (c *Card) ResolvedOracleText() string {
	if c.OracleText != "" {
		return c.OracleText
	}
	if len(c.CardFaces) > 0 {
		return c.CardFaces[0].OracleText
	}
	return ""
}

func (c *Card) ResolvedPower() string {
	if c.Power != "" {
		return c.Power
	}
	if len(c.CardFaces) > 0 {
		return c.CardFaces[0].Power
	}
	return ""
}

func (c *Card) ResolvedToughness() string {
	if c.Toughness != "" {
		return c.Toughness
	}
	if len(c.CardFaces) > 0 {
		return c.CardFaces[0].Toughness
	}
	return ""
}

func (c *Card) ResolvedLoyalty() string {
	if c.Loyalty != "" {
		return c.Loyalty
	}
	if len(c.CardFaces) > 0 {
		return c.CardFaces[0].Loyalty
	}
	return ""
}

func (c *Card) ResolvedColors() []string {
	if len(c.Colors) > 0 {
		return c.Colors
	}
	if len(c.CardFaces) > 0 {
		return c.CardFaces[0].Colors
	}
	return nil
}

// Game is one play session. SecretCard is captured at creation and never
// re-fetched or mutated afterwards.
type Game struct {
	ID         string
	UserID     string
	Status     GameStatus
	StartedAt  time.Time
	SecretCard *Card
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Turn is one recorded question-or-guess exchange. Append-only.
type Turn struct {
	ID        string
	GameID    string
	Type      TurnType
	Question  string
	Answer    string
	Timestamp time.Time
}
