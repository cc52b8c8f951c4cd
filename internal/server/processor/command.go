package processor

import (
	"chessrules/internal/server/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateGame CommandType = iota
	CmdClaimSlot
	CmdGetGame
	CmdDeleteGame
	CmdMakeMove
	CmdGetBoard
	CmdCheckMove
	CmdGetDestinations
	CmdPerft
)

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	UserID string
	GameID string // For game-specific commands
	Args   any    // Command-specific arguments
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateGameCommand(userID string, req core.CreateGameRequest) Command {
	return Command{
		Type:   CmdCreateGame,
		UserID: userID,
		Args:   req,
	}
}

func NewClaimSlotCommand(gameID, userID string, req core.ClaimSlotRequest) Command {
	return Command{
		Type:   CmdClaimSlot,
		UserID: userID,
		GameID: gameID,
		Args:   req,
	}
}

func NewGetGameCommand(gameID string) Command {
	return Command{
		Type:   CmdGetGame,
		GameID: gameID,
	}
}

func NewMakeMoveCommand(gameID, userID string, req core.MoveRequest) Command {
	return Command{
		Type:   CmdMakeMove,
		UserID: userID,
		GameID: gameID,
		Args:   req,
	}
}

func NewDeleteGameCommand(gameID string) Command {
	return Command{
		Type:   CmdDeleteGame,
		GameID: gameID,
	}
}

func NewGetBoardCommand(gameID string) Command {
	return Command{
		Type:   CmdGetBoard,
		GameID: gameID,
	}
}

func NewCheckMoveCommand(gameID string, q core.LegalQuery) Command {
	return Command{
		Type:   CmdCheckMove,
		GameID: gameID,
		Args:   q,
	}
}

func NewGetDestinationsCommand(gameID string, q core.DestinationsQuery) Command {
	return Command{
		Type:   CmdGetDestinations,
		GameID: gameID,
		Args:   q,
	}
}

func NewPerftCommand(gameID string, q core.PerftQuery) Command {
	return Command{
		Type:   CmdPerft,
		GameID: gameID,
		Args:   q,
	}
}
