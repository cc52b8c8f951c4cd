package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chessrules/internal/rules"
	"chessrules/internal/server/core"
	"chessrules/internal/server/game"
	"chessrules/internal/server/service"
)

const perftTimeout = 30 * time.Second

// Processor executes commands against the service and shapes their responses
type Processor struct {
	svc          *service.Service
	queue        *AnalysisQueue
	perftTimeout time.Duration
}

func New(svc *service.Service) *Processor {
	return &Processor{
		svc:          svc,
		queue:        NewAnalysisQueue(2),
		perftTimeout: perftTimeout,
	}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdClaimSlot:
		return p.handleClaimSlot(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdCheckMove:
		return p.handleCheckMove(cmd)
	case CmdGetDestinations:
		return p.handleGetDestinations(cmd)
	case CmdPerft:
		return p.handlePerft(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// handleCreateGame creates a game, optionally seating the caller on one color
func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	var whiteUser, blackUser string
	if args.Color != "" {
		if cmd.UserID == "" {
			return p.errorResponse("claiming a color requires authentication", core.ErrUnauthorized)
		}
		color, _ := core.ParseColor(args.Color)
		if color == rules.White {
			whiteUser = cmd.UserID
		} else {
			blackUser = cmd.UserID
		}
	}

	gameID := p.svc.GenerateGameID()
	white := core.NewPlayer(rules.White, whiteUser)
	black := core.NewPlayer(rules.Black, blackUser)

	if err := p.svc.CreateGame(gameID, white, black); err != nil {
		if errors.Is(err, service.ErrTooManyGames) {
			return p.errorResponse(err.Error(), core.ErrResourceLimit)
		}
		return p.errorResponse(fmt.Sprintf("failed to create game: %v", err), core.ErrInternalError)
	}

	return p.gameResponse(gameID)
}

// handleClaimSlot binds a color of an existing game to the caller
func (p *Processor) handleClaimSlot(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ClaimSlotRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	if cmd.UserID == "" {
		return p.errorResponse("claiming a color requires authentication", core.ErrUnauthorized)
	}
	color, ok := core.ParseColor(args.Color)
	if !ok {
		return p.errorResponse("invalid color", core.ErrInvalidRequest)
	}

	if err := p.svc.ClaimGameSlot(cmd.GameID, color, cmd.UserID); err != nil {
		return p.serviceError(err)
	}
	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	return p.gameResponse(cmd.GameID)
}

// handleMakeMove applies a coordinate move for the caller
func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok || args.FromX == nil || args.FromY == nil || args.ToX == nil || args.ToY == nil {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	result, err := p.svc.ApplyMove(cmd.GameID, cmd.UserID, args.Move())
	if err != nil {
		return p.serviceError(err)
	}

	resp := p.gameResponse(cmd.GameID)
	if gr, ok := resp.Data.(core.GameResponse); ok {
		gr.LastMove = core.NewMoveInfo(result.Move, result.PlayerColor)
		resp.Data = gr
	}
	return resp
}

func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{Success: true}
}

// handleGetBoard returns the labelled text diagram
func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	var resp core.BoardResponse
	err := p.svc.WithGame(cmd.GameID, func(g *game.Game) error {
		resp.Board = g.Board()
		resp.Rows = g.Rows()
		return nil
	})
	if err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

func (p *Processor) handleCheckMove(cmd Command) ProcessorResponse {
	q, ok := cmd.Args.(core.LegalQuery)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	var resp core.LegalResponse
	err := p.svc.WithGame(cmd.GameID, func(g *game.Game) error {
		m := q.Move()
		resp.Legal = g.IsLegal(m.FromX, m.FromY, m.ToX, m.ToY)
		return nil
	})
	if err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

func (p *Processor) handleGetDestinations(cmd Command) ProcessorResponse {
	q, ok := cmd.Args.(core.DestinationsQuery)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	sq := q.Square()
	resp := core.DestinationsResponse{X: sq.X, Y: sq.Y}
	err := p.svc.WithGame(cmd.GameID, func(g *game.Game) error {
		resp.Destinations = g.Destinations(sq.X, sq.Y)
		return nil
	})
	if err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

// handlePerft counts move-tree nodes on a detached copy of the position
func (p *Processor) handlePerft(cmd Command) ProcessorResponse {
	q, ok := cmd.Args.(core.PerftQuery)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	pos, err := p.svc.Snapshot(cmd.GameID)
	if err != nil {
		return p.serviceError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.perftTimeout)
	defer cancel()

	result, err := p.queue.Submit(ctx, cmd.GameID, pos, q.Depth)
	switch {
	case errors.Is(err, ErrQueueFull):
		return p.errorResponse(err.Error(), core.ErrResourceLimit)
	case errors.Is(err, context.DeadlineExceeded):
		return p.errorResponse("analysis timed out", core.ErrTimeout)
	case err != nil:
		return p.errorResponse(err.Error(), core.ErrInternalError)
	}

	return ProcessorResponse{
		Success: true,
		Data:    core.PerftResponse{Depth: result.Depth, Nodes: result.Nodes},
	}
}

// gameResponse snapshots a game into the standard response
func (p *Processor) gameResponse(gameID string) ProcessorResponse {
	var resp core.GameResponse
	err := p.svc.WithGame(gameID, func(g *game.Game) error {
		resp = buildGameResponse(gameID, g)
		return nil
	})
	if err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

// buildGameResponse constructs standard game response; the caller holds the
// service lock.
func buildGameResponse(gameID string, g *game.Game) core.GameResponse {
	resp := core.GameResponse{
		GameID:    gameID,
		Turn:      g.NextTurnColor().String(),
		State:     g.State().String(),
		InCheck:   g.InCheck(),
		MoveCount: g.MoveCount(),
		Board:     g.Rows(),
		Players: core.PlayersResponse{
			White: *g.GetPlayer(rules.White),
			Black: *g.GetPlayer(rules.Black),
		},
	}

	if ep, ok := g.EnPassantTarget(); ok {
		resp.EnPassant = &ep
	}
	if result := g.LastResult(); result != nil {
		resp.LastMove = core.NewMoveInfo(result.Move, result.PlayerColor)
	}

	return resp
}

// serviceError maps service and game errors onto API error codes
func (p *Processor) serviceError(err error) ProcessorResponse {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return p.errorResponse("game not found", core.ErrGameNotFound)
	case errors.Is(err, service.ErrNotYourTurn):
		return p.errorResponse(err.Error(), core.ErrNotYourTurn)
	case errors.Is(err, game.ErrGameOver):
		return p.errorResponse(err.Error(), core.ErrGameOver)
	case errors.Is(err, game.ErrIllegalMove):
		return p.errorResponse(err.Error(), core.ErrInvalidMove)
	case errors.Is(err, game.ErrSlotTaken):
		return p.errorResponse(err.Error(), core.ErrSlotTaken)
	default:
		return p.errorResponse(err.Error(), core.ErrInternalError)
	}
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}

// Close stops the analysis workers
func (p *Processor) Close() error {
	return p.queue.Shutdown(5 * time.Second)
}
