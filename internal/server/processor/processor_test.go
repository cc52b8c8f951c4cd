package processor

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"chessrules/internal/server/core"
	"chessrules/internal/server/service"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	svc := service.New(nil, []byte("test-secret"))
	p := New(svc)
	t.Cleanup(func() {
		p.Close()
		svc.Shutdown(time.Second)
	})
	return p
}

func intp(v int) *int { return &v }

func move(fx, fy, tx, ty int) core.MoveRequest {
	return core.MoveRequest{FromX: intp(fx), FromY: intp(fy), ToX: intp(tx), ToY: intp(ty)}
}

func createGame(t *testing.T, p *Processor, userID, color string) core.GameResponse {
	t.Helper()
	resp := p.Execute(NewCreateGameCommand(userID, core.CreateGameRequest{Color: color}))
	if !resp.Success {
		t.Fatalf("create game: %+v", resp.Error)
	}
	return resp.Data.(core.GameResponse)
}

func expectCode(t *testing.T, resp ProcessorResponse, code string) {
	t.Helper()
	if resp.Success {
		t.Fatalf("expected %s, got success", code)
	}
	if resp.Error.Code != code {
		t.Fatalf("error code: got %s want %s (%s)", resp.Error.Code, code, resp.Error.Error)
	}
}

func TestCreateAndMove(t *testing.T) {
	p := newTestProcessor(t)
	g := createGame(t, p, "", "")

	if g.Turn != "w" || g.State != "ongoing" || g.MoveCount != 0 {
		t.Fatalf("new game: %+v", g)
	}
	if g.Board[6] != "PPPPPPPP" || g.Board[0] != "rnbqkbnr" {
		t.Fatalf("board: %v", g.Board)
	}

	resp := p.Execute(NewMakeMoveCommand(g.GameID, "", move(4, 6, 4, 4)))
	if !resp.Success {
		t.Fatalf("move: %+v", resp.Error)
	}
	after := resp.Data.(core.GameResponse)
	if after.Turn != "b" || after.MoveCount != 1 {
		t.Fatalf("after move: %+v", after)
	}
	if after.EnPassant == nil || after.EnPassant.X != 4 || after.EnPassant.Y != 5 {
		t.Fatalf("en passant: %+v", after.EnPassant)
	}
	if after.LastMove == nil || after.LastMove.ToY != 4 || after.LastMove.PlayerColor != "w" {
		t.Fatalf("last move: %+v", after.LastMove)
	}

	expectCode(t, p.Execute(NewMakeMoveCommand(g.GameID, "", move(4, 4, 4, 3))), core.ErrInvalidMove)
}

func TestFoolsMateEndsGame(t *testing.T) {
	p := newTestProcessor(t)
	g := createGame(t, p, "", "")

	for _, m := range []core.MoveRequest{
		move(5, 6, 5, 5),
		move(4, 1, 4, 3),
		move(6, 6, 6, 4),
		move(3, 0, 7, 4),
	} {
		if resp := p.Execute(NewMakeMoveCommand(g.GameID, "", m)); !resp.Success {
			t.Fatalf("move: %+v", resp.Error)
		}
	}

	resp := p.Execute(NewGetGameCommand(g.GameID))
	final := resp.Data.(core.GameResponse)
	if final.State != core.StateBlackWins.String() || !final.InCheck {
		t.Fatalf("final: %+v", final)
	}
	expectCode(t, p.Execute(NewMakeMoveCommand(g.GameID, "", move(0, 6, 0, 5))), core.ErrGameOver)
}

func TestClaimedColor(t *testing.T) {
	p := newTestProcessor(t)

	expectCode(t, p.Execute(NewCreateGameCommand("", core.CreateGameRequest{Color: "w"})), core.ErrUnauthorized)

	g := createGame(t, p, "alice", "w")
	if g.Players.White.UserID != "alice" || g.Players.Black.UserID != "" {
		t.Fatalf("players: %+v %+v", g.Players.White, g.Players.Black)
	}

	expectCode(t, p.Execute(NewMakeMoveCommand(g.GameID, "bob", move(4, 6, 4, 4))), core.ErrNotYourTurn)
	expectCode(t, p.Execute(NewMakeMoveCommand(g.GameID, "", move(4, 6, 4, 4))), core.ErrNotYourTurn)

	if resp := p.Execute(NewMakeMoveCommand(g.GameID, "alice", move(4, 6, 4, 4))); !resp.Success {
		t.Fatalf("owner move: %+v", resp.Error)
	}
	// Black is unclaimed and accepts anyone
	if resp := p.Execute(NewMakeMoveCommand(g.GameID, "", move(4, 1, 4, 3))); !resp.Success {
		t.Fatalf("anonymous black move: %+v", resp.Error)
	}

	claim := core.ClaimSlotRequest{Color: "b"}
	if resp := p.Execute(NewClaimSlotCommand(g.GameID, "bob", claim)); !resp.Success {
		t.Fatalf("claim: %+v", resp.Error)
	}
	expectCode(t, p.Execute(NewClaimSlotCommand(g.GameID, "carol", claim)), core.ErrSlotTaken)
	expectCode(t, p.Execute(NewClaimSlotCommand(g.GameID, "", claim)), core.ErrUnauthorized)
}

func TestQueries(t *testing.T) {
	p := newTestProcessor(t)
	g := createGame(t, p, "", "")

	resp := p.Execute(NewCheckMoveCommand(g.GameID, core.LegalQuery{FromX: intp(6), FromY: intp(7), ToX: intp(5), ToY: intp(5)}))
	if !resp.Success || !resp.Data.(core.LegalResponse).Legal {
		t.Fatalf("knight move should be legal: %+v", resp)
	}
	resp = p.Execute(NewCheckMoveCommand(g.GameID, core.LegalQuery{FromX: intp(6), FromY: intp(7), ToX: intp(6), ToY: intp(5)}))
	if !resp.Success || resp.Data.(core.LegalResponse).Legal {
		t.Fatalf("knight straight move should be illegal: %+v", resp)
	}

	resp = p.Execute(NewGetDestinationsCommand(g.GameID, core.DestinationsQuery{X: intp(4), Y: intp(6)}))
	dests := resp.Data.(core.DestinationsResponse).Destinations
	if len(dests) != 2 {
		t.Fatalf("pawn destinations: %v", dests)
	}

	resp = p.Execute(NewGetBoardCommand(g.GameID))
	if b := resp.Data.(core.BoardResponse); b.Rows[7] != "RNBQKBNR" || b.Board == "" {
		t.Fatalf("board: %+v", b)
	}

	resp = p.Execute(NewPerftCommand(g.GameID, core.PerftQuery{Depth: 2}))
	if !resp.Success || resp.Data.(core.PerftResponse).Nodes != 400 {
		t.Fatalf("perft: %+v", resp)
	}
}

func TestDeleteGame(t *testing.T) {
	p := newTestProcessor(t)
	g := createGame(t, p, "", "")

	if resp := p.Execute(NewDeleteGameCommand(g.GameID)); !resp.Success {
		t.Fatalf("delete: %+v", resp.Error)
	}
	expectCode(t, p.Execute(NewGetGameCommand(g.GameID)), core.ErrGameNotFound)
	expectCode(t, p.Execute(NewDeleteGameCommand(g.GameID)), core.ErrGameNotFound)
}

func TestResponsesDetachedFromPlayers(t *testing.T) {
	p := newTestProcessor(t)
	g := createGame(t, p, "", "")

	before := p.Execute(NewGetGameCommand(g.GameID)).Data.(core.GameResponse)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			p.Execute(NewClaimSlotCommand(g.GameID, "user-1", core.ClaimSlotRequest{Color: "w"}))
		}
	}()
	for i := 0; i < 200; i++ {
		resp := p.Execute(NewGetGameCommand(g.GameID))
		if _, err := json.Marshal(resp.Data); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	wg.Wait()

	if before.Players.White.UserID != "" {
		t.Fatalf("earlier response changed after claim: %+v", before.Players.White)
	}
	after := p.Execute(NewGetGameCommand(g.GameID)).Data.(core.GameResponse)
	if after.Players.White.UserID != "user-1" {
		t.Fatalf("white owner: %+v", after.Players.White)
	}
}
