// Package main implements an interactive debugging client for the chess rules server.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"chessrules/internal/client/commands"
	"chessrules/internal/client/display"
	"chessrules/internal/client/session"

	"github.com/chzyer/readline"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "Server API base URL")
	history := flag.String("history", ".chess_history", "Readline history file")
	flag.Parse()

	s := session.New(*apiURL)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chess"),
		HistoryFile:     *history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Println(display.Error(err.Error()))
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Println(display.Info("Chess Debug Client"))
	fmt.Println(display.Info("API: " + s.APIBaseURL))
	fmt.Printf("Type 'help' for commands\n\n")

	registry := commands.NewRegistry(s)

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "x" {
			break
		}

		s.Verbose = strings.HasSuffix(line, " -v")
		line = strings.TrimSuffix(line, " -v")

		registry.Execute(line)
	}
}

// buildPrompt shows user, game prefix, seat and side to move
func buildPrompt(s *session.Session) string {
	var parts []string
	if s.Username != "" {
		parts = append(parts, display.User(s.Username))
	}
	if s.CurrentGame != "" {
		id := s.CurrentGame
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, id)
	}
	if s.PlayerColor != "" {
		parts = append(parts, display.ColorForTurn(s.PlayerColor))
	}

	prompt := "chess"
	if len(parts) > 0 {
		prompt += " [" + strings.Join(parts, " - ") + "]"
	}
	if g := s.GameState; g != nil {
		if g.State == "ongoing" {
			prompt += " - Turn:" + display.ColorForTurn(g.Turn)
		} else {
			prompt += " - " + g.State
		}
	}
	return display.Prompt(prompt)
}
