package core

import "chessrules/internal/rules"

// Request types

type CreateGameRequest struct {
	Color string `json:"color,omitempty" validate:"omitempty,oneof=w b"` // claim this color for the caller
}

type ClaimSlotRequest struct {
	Color string `json:"color" validate:"required,oneof=w b"`
}

// MoveRequest carries board coordinates; pointers distinguish a missing
// field from coordinate 0.
type MoveRequest struct {
	FromX     *int   `json:"fromX" validate:"required,min=0,max=7"`
	FromY     *int   `json:"fromY" validate:"required,min=0,max=7"`
	ToX       *int   `json:"toX" validate:"required,min=0,max=7"`
	ToY       *int   `json:"toY" validate:"required,min=0,max=7"`
	Promotion string `json:"promotion,omitempty" validate:"omitempty,oneof=q r b n"`
}

// Move converts the validated request into an engine move
func (r MoveRequest) Move() rules.Move {
	m := rules.NewMove(*r.FromX, *r.FromY, *r.ToX, *r.ToY)
	if r.Promotion != "" {
		m.Promotion, _ = rules.KindFromSymbol(r.Promotion[0])
	}
	return m
}

// LegalQuery and DestinationsQuery use pointers for the same reason as
// MoveRequest: an absent parameter must not read as coordinate 0.
type LegalQuery struct {
	FromX *int `query:"fromX" validate:"required,min=0,max=7"`
	FromY *int `query:"fromY" validate:"required,min=0,max=7"`
	ToX   *int `query:"toX" validate:"required,min=0,max=7"`
	ToY   *int `query:"toY" validate:"required,min=0,max=7"`
}

// Move converts the validated query into an engine move
func (q LegalQuery) Move() rules.Move {
	return rules.NewMove(*q.FromX, *q.FromY, *q.ToX, *q.ToY)
}

type DestinationsQuery struct {
	X *int `query:"x" validate:"required,min=0,max=7"`
	Y *int `query:"y" validate:"required,min=0,max=7"`
}

func (q DestinationsQuery) Square() rules.Square {
	return rules.Square{X: *q.X, Y: *q.Y}
}

type PerftQuery struct {
	Depth int `query:"depth" validate:"required,min=1,max=4"`
}

// Response types

type GameResponse struct {
	GameID    string          `json:"gameId"`
	Turn      string          `json:"turn"`  // "w" or "b"
	State     string          `json:"state"` // "ongoing", "white wins", ...
	InCheck   bool            `json:"inCheck"`
	MoveCount int             `json:"moveCount"`
	Board     [8]string       `json:"board"` // row y=0 first
	EnPassant *rules.Square   `json:"enPassant,omitempty"`
	Players   PlayersResponse `json:"players"`
	LastMove  *MoveInfo       `json:"lastMove,omitempty"`
}

type MoveInfo struct {
	FromX       int    `json:"fromX"`
	FromY       int    `json:"fromY"`
	ToX         int    `json:"toX"`
	ToY         int    `json:"toY"`
	Promotion   string `json:"promotion,omitempty"`
	PlayerColor string `json:"playerColor"` // "w" or "b"
}

// NewMoveInfo describes a move made by color c
func NewMoveInfo(m rules.Move, c rules.Color) *MoveInfo {
	info := &MoveInfo{
		FromX:       m.FromX,
		FromY:       m.FromY,
		ToX:         m.ToX,
		ToY:         m.ToY,
		PlayerColor: c.String(),
	}
	if m.Promotion != rules.Empty {
		info.Promotion = string(m.Promotion.Symbol())
	}
	return info
}

type BoardResponse struct {
	Board string    `json:"board"` // labelled text diagram
	Rows  [8]string `json:"rows"`
}

type LegalResponse struct {
	Legal bool `json:"legal"`
}

type DestinationsResponse struct {
	X            int            `json:"x"`
	Y            int            `json:"y"`
	Destinations []rules.Square `json:"destinations"`
}

type PerftResponse struct {
	Depth int `json:"depth"`
	Nodes int `json:"nodes"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
