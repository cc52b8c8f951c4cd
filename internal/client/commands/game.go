package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"chessrules/internal/client/api"
	"chessrules/internal/client/display"
)

func (r *Registry) registerGameCommands() {
	for _, cmd := range []*Command{
		{Name: "new", ShortName: "n", Description: "Create a new game, optionally claiming a color", Usage: "new [w|b]", Handler: newGameHandler},
		{Name: "join", ShortName: "j", Description: "Join/set current game ID", Usage: "join <gameId>", Handler: joinGameHandler},
		{Name: "claim", ShortName: "c", Description: "Claim a color in the current game", Usage: "claim <w|b>", Handler: claimHandler},
		{Name: "move", ShortName: "m", Description: "Make a move by coordinates", Usage: "move <fx> <fy> <tx> <ty> [q|r|b|n]  (or move 4644)", Handler: moveHandler},
		{Name: "dests", ShortName: "t", Description: "Show legal destinations of a piece", Usage: "dests <x> <y>", Handler: destsHandler},
		{Name: "legal", ShortName: "g", Description: "Check whether a move is legal", Usage: "legal <fx> <fy> <tx> <ty>", Handler: legalHandler},
		{Name: "perft", ShortName: "f", Description: "Count move-tree leaves from the current position", Usage: "perft <depth 1-4>", Handler: perftHandler},
		{Name: "show", ShortName: "h", Description: "Show board and game state", Usage: "show", Handler: showBoardHandler},
		{Name: "state", ShortName: "s", Description: "Show raw game JSON", Usage: "state", Handler: gameStateHandler},
		{Name: "delete", ShortName: "d", Description: "Delete a game", Usage: "delete [gameId]", Handler: deleteGameHandler},
		{Name: "poll", ShortName: "p", Description: "Long-poll for game updates", Usage: "poll", Handler: pollHandler},
	} {
		cmd.Group = groupGame
		r.Register(cmd)
	}
}

// ParseMoveArgs accepts either four coordinates or one four-digit token,
// followed by an optional promotion letter.
func ParseMoveArgs(args []string) (*api.MoveRequest, error) {
	var coords []int
	var rest []string

	switch {
	case len(args) >= 1 && len(args[0]) == 4:
		for _, ch := range args[0] {
			coords = append(coords, int(ch-'0'))
		}
		rest = args[1:]
	case len(args) >= 4:
		for _, a := range args[:4] {
			n, err := strconv.Atoi(a)
			if err != nil {
				return nil, fmt.Errorf("invalid coordinate: %s", a)
			}
			coords = append(coords, n)
		}
		rest = args[4:]
	default:
		return nil, fmt.Errorf("usage: move <fx> <fy> <tx> <ty> [q|r|b|n]")
	}

	for _, n := range coords {
		if n < 0 || n > 7 {
			return nil, fmt.Errorf("coordinates must be 0-7")
		}
	}

	req := &api.MoveRequest{FromX: coords[0], FromY: coords[1], ToX: coords[2], ToY: coords[3]}
	if len(rest) > 0 {
		p := strings.ToLower(rest[0])
		if p != "q" && p != "r" && p != "b" && p != "n" {
			return nil, fmt.Errorf("promotion must be one of q, r, b, n")
		}
		req.Promotion = p
	}
	return req, nil
}

func parseInts(args []string, n int, usage string) ([]int, error) {
	if len(args) < n {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	out := make([]int, n)
	for i := range out {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, fmt.Errorf("invalid number: %s", args[i])
		}
		out[i] = v
	}
	return out, nil
}

func requireGame(s Session) (string, error) {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return "", fmt.Errorf("no current game, use 'new' or 'join <gameId>'")
	}
	return gameID, nil
}

func newGameHandler(s Session, args []string) error {
	req := &api.CreateGameRequest{}
	if len(args) > 0 {
		req.Color = strings.ToLower(args[0])
	}

	resp, err := s.GetClient().CreateGame(req)
	if err != nil {
		return err
	}

	s.SetCurrentGame(resp.GameID)
	s.SetGameState(resp)

	fmt.Println(display.Success("Game created: " + resp.GameID))
	if c := s.GetPlayerColor(); c != "" {
		fmt.Printf("You play %s\n", display.ColorForTurn(c))
	}
	return nil
}

func joinGameHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: join <gameId>")
	}

	resp, err := s.GetClient().GetGame(args[0])
	if err != nil {
		return err
	}

	s.SetCurrentGame(resp.GameID)
	s.SetGameState(resp)

	fmt.Println(display.Success("Joined game: " + resp.GameID))
	fmt.Printf("Turn: %s | State: %s | Moves: %d\n", display.ColorForTurn(resp.Turn), resp.State, resp.MoveCount)
	return nil
}

func claimHandler(s Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: claim <w|b>")
	}
	if s.GetAuthToken() == "" {
		return fmt.Errorf("login required to claim a color")
	}

	resp, err := s.GetClient().ClaimSlot(gameID, strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	s.SetGameState(resp)
	fmt.Printf("%s %s\n", display.Success("Claimed"), display.ColorForTurn(s.GetPlayerColor()))
	return nil
}

func moveHandler(s Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	req, err := ParseMoveArgs(args)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().MakeMove(gameID, req)
	if err != nil {
		return err
	}

	s.SetGameState(resp)
	fmt.Println(display.Success("Move accepted"))
	printStatus(resp)
	return nil
}

func destsHandler(s Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	xy, err := parseInts(args, 2, "dests <x> <y>")
	if err != nil {
		return err
	}

	c := s.GetClient()
	resp, err := c.GetDestinations(gameID, xy[0], xy[1])
	if err != nil {
		return err
	}

	game, err := c.GetGame(gameID)
	if err != nil {
		return err
	}
	s.SetGameState(game)

	fmt.Println()
	display.RenderBoard(os.Stdout, game.Board, resp.Destinations)
	if len(resp.Destinations) == 0 {
		fmt.Println(display.Warn(fmt.Sprintf("No legal moves from (%d,%d)", resp.X, resp.Y)))
		return nil
	}
	var parts []string
	for _, d := range resp.Destinations {
		parts = append(parts, fmt.Sprintf("(%d,%d)", d.X, d.Y))
	}
	fmt.Printf("Destinations from (%d,%d): %s\n", resp.X, resp.Y, strings.Join(parts, " "))
	return nil
}

func legalHandler(s Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	v, err := parseInts(args, 4, "legal <fx> <fy> <tx> <ty>")
	if err != nil {
		return err
	}

	resp, err := s.GetClient().CheckMove(gameID, v[0], v[1], v[2], v[3])
	if err != nil {
		return err
	}
	if resp.Legal {
		fmt.Println(display.Success("legal"))
	} else {
		fmt.Println(display.Error("illegal"))
	}
	return nil
}

func perftHandler(s Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	v, err := parseInts(args, 1, "perft <depth 1-4>")
	if err != nil {
		return err
	}

	resp, err := s.GetClient().Perft(gameID, v[0])
	if err != nil {
		return err
	}
	fmt.Printf("perft(%d) = %d\n", resp.Depth, resp.Nodes)
	return nil
}

func showBoardHandler(s Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}

	game, err := s.GetClient().GetGame(gameID)
	if err != nil {
		return err
	}
	s.SetGameState(game)

	fmt.Println()
	var marks []display.Square
	if game.LastMove != nil {
		marks = []display.Square{
			{X: game.LastMove.FromX, Y: game.LastMove.FromY},
			{X: game.LastMove.ToX, Y: game.LastMove.ToY},
		}
	}
	display.RenderBoard(os.Stdout, game.Board, marks)
	fmt.Println()
	printStatus(game)
	return nil
}

// printStatus summarises turn, state and the last move
func printStatus(g *api.GameResponse) {
	status := fmt.Sprintf("Turn: %s | State: %s | Moves: %d", display.ColorForTurn(g.Turn), g.State, g.MoveCount)
	if g.InCheck && g.State == "ongoing" {
		status += " | " + display.Error("check")
	}
	fmt.Println(status)

	if m := g.LastMove; m != nil {
		fmt.Printf("Last move: (%d,%d)->(%d,%d)", m.FromX, m.FromY, m.ToX, m.ToY)
		if m.Promotion != "" {
			fmt.Printf("=%s", m.Promotion)
		}
		fmt.Printf(" by %s\n", display.ColorForTurn(m.PlayerColor))
	}
	if g.EnPassant != nil {
		fmt.Printf("En passant target: (%d,%d)\n", g.EnPassant.X, g.EnPassant.Y)
	}
}

func gameStateHandler(s Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().GetGame(gameID)
	if err != nil {
		return err
	}
	s.SetGameState(resp)

	fmt.Println(display.Info("Game State:"))
	display.PrettyPrintJSON(resp)
	return nil
}

func deleteGameHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if len(args) > 0 {
		gameID = args[0]
	}
	if gameID == "" {
		return fmt.Errorf("specify game ID or set current game")
	}

	if err := s.GetClient().DeleteGame(gameID); err != nil {
		return err
	}
	if gameID == s.GetCurrentGame() {
		s.SetCurrentGame("")
	}

	fmt.Println(display.Success("Game deleted: " + gameID))
	return nil
}

func pollHandler(s Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}

	moveCount := s.GetLastMoveCount()
	fmt.Println(display.Info(fmt.Sprintf("Long-polling for updates (move count: %d, up to 25s)...", moveCount)))

	resp, err := s.GetClient().GetGameWithPoll(gameID, moveCount)
	if err != nil {
		return err
	}
	s.SetGameState(resp)

	if resp.MoveCount != moveCount {
		fmt.Println(display.Success("Game updated"))
		printStatus(resp)
	} else {
		fmt.Println(display.Warn("No updates (timeout)"))
	}
	return nil
}
