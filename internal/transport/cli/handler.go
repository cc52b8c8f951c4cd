// Package cli runs the local hot-seat game loop on top of server/game.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chessrules/internal/cli"
	"chessrules/internal/rules"
	"chessrules/internal/server/core"
	"chessrules/internal/server/game"
	"chessrules/internal/transport"
)

// Terminal is a View that also reads commands and owns display settings
type Terminal interface {
	transport.View
	GetCommand() (*cli.Command, error)
	SetTheme(theme cli.ColorTheme) error
	ToggleVerbose() bool
	ShowHelp()
}

var _ Terminal = (*cli.CLI)(nil)

type CLIHandler struct {
	view Terminal
	game *game.Game
}

func New(view Terminal) *CLIHandler {
	return &CLIHandler{view: view}
}

// Main game loop - simple command processing
func (h *CLIHandler) Run() {
	for {
		h.view.ShowPrompt(h.getPrompt())

		cmd, err := h.view.GetCommand()
		if err != nil {
			break
		}

		if !h.ProcessCommand(cmd) {
			break
		}
	}
}

func (h *CLIHandler) getPrompt() string {
	if h.game != nil && !h.game.State().IsOver() {
		return fmt.Sprintf("[%s]> ", h.game.NextTurnColor())
	}
	return "> "
}

// Handles user commands - returns false to exit
func (h *CLIHandler) ProcessCommand(cmd *cli.Command) bool {
	switch cmd.Type {
	case cli.CmdQuit:
		return false

	case cli.CmdNone:

	case cli.CmdNew:
		h.newGame()

	case cli.CmdMove:
		if h.game == nil {
			h.view.ShowMessage("No active game. Use 'new'.")
			return true
		}
		m, err := ParseMove(cmd.Args)
		if err != nil {
			h.view.ShowError(err)
			return true
		}
		h.play(m)

	case cli.CmdMoves:
		if h.game == nil {
			h.view.ShowMessage("No active game. Use 'new'.")
			return true
		}
		xy, err := parseCoords(cmd.Args, 2)
		if err != nil {
			h.view.ShowMessage("Usage: moves <x> <y>")
			return true
		}
		dests := h.game.Destinations(xy[0], xy[1])
		h.view.DisplayBoard(h.game.Rows(), dests)
		if len(dests) == 0 {
			h.view.ShowMessage(fmt.Sprintf("No legal moves from (%d,%d)", xy[0], xy[1]))
		}

	case cli.CmdColor:
		if len(cmd.Args) < 1 {
			h.view.ShowMessage("Usage: color <off|brown|green|gray>")
			return true
		}
		theme := cli.ColorTheme(cmd.Args[0])
		if err := h.view.SetTheme(theme); err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowMessage(fmt.Sprintf("Color theme set to: %s", theme))
		if h.game != nil {
			h.view.DisplayBoard(h.game.Rows(), nil)
		}

	case cli.CmdVerbose:
		verbose := h.view.ToggleVerbose()
		h.view.ShowMessage(fmt.Sprintf("Verbose mode: %t", verbose))

	case cli.CmdHistory:
		if h.game == nil {
			h.view.ShowMessage("No active game.")
			return true
		}
		h.view.ShowGameHistory(h.game.Moves(), h.game.State())

	case cli.CmdHelp:
		h.view.ShowHelp()
	}

	return true
}

func (h *CLIHandler) newGame() {
	h.game = game.New(core.NewPlayer(rules.White, ""), core.NewPlayer(rules.Black, ""))
	h.game.SetPromotionHook(h.view.PromptPromotion)

	h.view.ShowMessage("Game started. White moves first.")
	h.view.DisplayBoard(h.game.Rows(), nil)
}

func (h *CLIHandler) play(m rules.Move) {
	result, err := h.game.Apply(m)
	if err != nil {
		if errors.Is(err, game.ErrGameOver) {
			h.view.ShowMessage("The game is over. Start a new game with 'new'.")
			return
		}
		h.view.ShowError(err)
		return
	}

	h.view.ShowMove(result.PlayerColor, result.Move, result.InCheck)
	h.view.DisplayBoard(h.game.Rows(), []rules.Square{result.Move.From(), result.Move.To()})

	if result.GameState.IsOver() {
		h.view.ShowGameOver(result.GameState)
	}
}

// ParseMove reads "fx fy tx ty [piece]" or the compact "fxfytxty [piece]".
func ParseMove(args []string) (rules.Move, error) {
	if len(args) >= 1 && len(args[0]) == 4 {
		var compact []string
		for _, ch := range args[0] {
			compact = append(compact, string(ch))
		}
		args = append(compact, args[1:]...)
	}

	coords, err := parseCoords(args, 4)
	if err != nil {
		return rules.Move{}, err
	}

	m := rules.NewMove(coords[0], coords[1], coords[2], coords[3])
	if len(args) > 4 {
		k, ok := rules.KindFromSymbol(args[4][0])
		if !ok || k == rules.Pawn || k == rules.King {
			return rules.Move{}, fmt.Errorf("promotion must be one of q, r, b, n")
		}
		m.Promotion = k
	}
	return m, nil
}

func parseCoords(args []string, n int) ([]int, error) {
	if len(args) < n {
		return nil, fmt.Errorf("expected %d coordinates, got %q", n, strings.Join(args, " "))
	}
	out := make([]int, n)
	for i := range out {
		v, err := strconv.Atoi(args[i])
		if err != nil || v < 0 || v > 7 {
			return nil, fmt.Errorf("invalid coordinate: %s", args[i])
		}
		out[i] = v
	}
	return out, nil
}
