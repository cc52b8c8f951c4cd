package api

import (
	"time"

	"chessrules/internal/client/display"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Games   int    `json:"games"`
	Storage string `json:"storage,omitempty"`
}

type CreateGameRequest struct {
	Color string `json:"color,omitempty"`
}

type ClaimSlotRequest struct {
	Color string `json:"color"`
}

type MoveRequest struct {
	FromX     int    `json:"fromX"`
	FromY     int    `json:"fromY"`
	ToX       int    `json:"toX"`
	ToY       int    `json:"toY"`
	Promotion string `json:"promotion,omitempty"`
}

type PlayerInfo struct {
	ID     string `json:"id"`
	Color  string `json:"color"`
	UserID string `json:"userId,omitempty"`
}

type MoveInfo struct {
	FromX       int    `json:"fromX"`
	FromY       int    `json:"fromY"`
	ToX         int    `json:"toX"`
	ToY         int    `json:"toY"`
	Promotion   string `json:"promotion,omitempty"`
	PlayerColor string `json:"playerColor"`
}

type GameResponse struct {
	GameID    string          `json:"gameId"`
	Turn      string          `json:"turn"`
	State     string          `json:"state"`
	InCheck   bool            `json:"inCheck"`
	MoveCount int             `json:"moveCount"`
	Board     [8]string       `json:"board"`
	EnPassant *display.Square `json:"enPassant,omitempty"`
	Players   struct {
		White PlayerInfo `json:"white"`
		Black PlayerInfo `json:"black"`
	} `json:"players"`
	LastMove *MoveInfo `json:"lastMove,omitempty"`
}

type BoardResponse struct {
	Board string    `json:"board"`
	Rows  [8]string `json:"rows"`
}

type LegalResponse struct {
	Legal bool `json:"legal"`
}

type DestinationsResponse struct {
	X            int              `json:"x"`
	Y            int              `json:"y"`
	Destinations []display.Square `json:"destinations"`
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

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type UserResponse struct {
	UserID      string     `json:"userId"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	AccountType string     `json:"accountType"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Games       *GameStats `json:"games,omitempty"`
}

// GameStats tallies the recorded games a user held a seat in
type GameStats struct {
	Played  int `json:"played"`
	Won     int `json:"won"`
	Lost    int `json:"lost"`
	Drawn   int `json:"drawn"`
	Ongoing int `json:"ongoing"`
}
