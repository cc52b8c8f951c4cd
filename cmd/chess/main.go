// Package main runs a local two-player game in the terminal.
package main

import (
	"os"

	"chessrules/internal/cli"
	clitransport "chessrules/internal/transport/cli"
)

func main() {
	view := cli.New(os.Stdin, os.Stdout)
	handler := clitransport.New(view)

	view.ShowWelcome()
	handler.Run()
}
