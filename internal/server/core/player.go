package core

import (
	"chessrules/internal/rules"

	"github.com/google/uuid"
)

// Player occupies one color slot of a game. UserID is set once an
// authenticated user claims the slot; an empty UserID accepts moves from anyone.
type Player struct {
	ID     string `json:"id"`
	Color  string `json:"color"`
	UserID string `json:"userId,omitempty"`
}

// PlayersResponse holds copies of the slots; responses are encoded after
// the service lock is released.
type PlayersResponse struct {
	White Player `json:"white"`
	Black Player `json:"black"`
}

// NewPlayer creates a player for the given color, optionally owned by userID
func NewPlayer(color rules.Color, userID string) *Player {
	return &Player{
		ID:     uuid.New().String(),
		Color:  color.String(),
		UserID: userID,
	}
}

// ParseColor maps the API color letters onto engine colors
func ParseColor(s string) (rules.Color, bool) {
	switch s {
	case "w":
		return rules.White, true
	case "b":
		return rules.Black, true
	default:
		return rules.None, false
	}
}
