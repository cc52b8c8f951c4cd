// Package transport defines what a game front end needs from its view.
package transport

import (
	"chessrules/internal/rules"
	"chessrules/internal/server/core"
)

// View abstracts display/output operations
type View interface {
	DisplayBoard(rows [8]string, marks []rules.Square)
	ShowMessage(msg string)
	ShowError(err error)
	ShowPrompt(prompt string)
	ShowMove(side rules.Color, m rules.Move, inCheck bool)
	ShowGameHistory(moves []rules.Move, state core.State)
	ShowGameOver(state core.State)
	PromptPromotion(side rules.Color, at rules.Square) rules.PieceKind
}
