package game

import (
	"errors"
	"fmt"

	"chessrules/internal/rules"
	"chessrules/internal/server/core"
)

var (
	ErrGameOver    = errors.New("game is over")
	ErrIllegalMove = errors.New("illegal move")
	ErrSlotTaken   = errors.New("color already claimed")
)

// MoveResult tracks the outcome of a move
type MoveResult struct {
	Move        rules.Move  `json:"move"`
	PlayerColor rules.Color `json:"playerColor"`
	GameState   core.State  `json:"gameState"`
	InCheck     bool        `json:"inCheck"`
}

// Game owns one engine position together with its players and derived state.
// It is not safe for concurrent use; the owner serializes all calls,
// read-only ones included.
type Game struct {
	position   *rules.GameState
	players    map[rules.Color]*core.Player
	state      core.State
	moves      []rules.Move
	lastResult *MoveResult
}

func New(whitePlayer, blackPlayer *core.Player) *Game {
	return &Game{
		position: rules.New(),
		players: map[rules.Color]*core.Player{
			rules.White: whitePlayer,
			rules.Black: blackPlayer,
		},
		state: core.StateOngoing,
	}
}

// SetPromotionHook forwards to the engine; see rules.PromotionHook.
func (g *Game) SetPromotionHook(h rules.PromotionHook) {
	g.position.SetPromotionHook(h)
}

// Apply plays m for the side to move and derives the new game state:
// checkmate wins for the mover, stalemate ends the game drawn.
func (g *Game) Apply(m rules.Move) (*MoveResult, error) {
	if g.state.IsOver() {
		return nil, fmt.Errorf("%w: %s", ErrGameOver, g.state)
	}

	mover := g.position.SideToMove()
	if !g.position.ApplyMove(m) {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	played, _ := g.position.LastMove()
	g.moves = append(g.moves, played)

	switch {
	case g.position.IsCheckmate():
		g.state = core.WinFor(mover)
	case g.position.IsStalemate():
		g.state = core.StateStalemate
	}

	g.lastResult = &MoveResult{
		Move:        played,
		PlayerColor: mover,
		GameState:   g.state,
		InCheck:     g.position.InCheck(),
	}
	return g.lastResult, nil
}

func (g *Game) IsLegal(fromX, fromY, toX, toY int) bool {
	if g.state.IsOver() {
		return false
	}
	return g.position.IsLegal(fromX, fromY, toX, toY)
}

// Destinations lists the legal targets of the piece on (x,y)
func (g *Game) Destinations(x, y int) []rules.Square {
	out := []rules.Square{}
	if g.state.IsOver() {
		return out
	}
	return append(out, g.position.PossibleDestinations(x, y).Squares()...)
}

// Snapshot returns an independent copy of the current position
func (g *Game) Snapshot() *rules.GameState {
	return g.position.Clone()
}

func (g *Game) Board() string {
	return g.position.String()
}

func (g *Game) Rows() [8]string {
	return g.position.Rows()
}

func (g *Game) At(x, y int) rules.Piece {
	return g.position.At(x, y)
}

func (g *Game) NextTurnColor() rules.Color {
	return g.position.SideToMove()
}

func (g *Game) NextPlayer() *core.Player {
	return g.players[g.NextTurnColor()]
}

func (g *Game) GetPlayer(color rules.Color) *core.Player {
	return g.players[color]
}

func (g *Game) InCheck() bool {
	return g.position.InCheck()
}

func (g *Game) EnPassantTarget() (rules.Square, bool) {
	return g.position.EnPassantTarget()
}

// ClaimSlot binds a color to a user. Claiming a slot the user already owns
// is a no-op.
func (g *Game) ClaimSlot(color rules.Color, userID string) error {
	p, ok := g.players[color]
	if !ok {
		return fmt.Errorf("invalid color: %s", color)
	}
	if p.UserID != "" && p.UserID != userID {
		return fmt.Errorf("%w: %s", ErrSlotTaken, color)
	}
	p.UserID = userID
	return nil
}

// GetSlotOwner returns the user who claimed a slot, if any
func (g *Game) GetSlotOwner(color rules.Color) string {
	if p, ok := g.players[color]; ok {
		return p.UserID
	}
	return ""
}

func (g *Game) Moves() []rules.Move {
	return append([]rules.Move(nil), g.moves...)
}

func (g *Game) MoveCount() int {
	return len(g.moves)
}

func (g *Game) LastResult() *MoveResult {
	return g.lastResult
}

func (g *Game) State() core.State {
	return g.state
}
