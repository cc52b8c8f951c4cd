package display

import "github.com/fatih/color"

// Message styles shared by the client commands
var (
	Info    = color.New(color.FgCyan).SprintFunc()
	Success = color.New(color.FgGreen).SprintFunc()
	Warn    = color.New(color.FgYellow).SprintFunc()
	Error   = color.New(color.FgRed).SprintFunc()
	Request = color.New(color.FgBlue).SprintFunc()
	User    = color.New(color.FgMagenta).SprintFunc()

	whitePiece = color.New(color.FgBlue, color.Bold).SprintFunc()
	blackPiece = color.New(color.FgRed, color.Bold).SprintFunc()
	label      = color.New(color.FgCyan).SprintFunc()
	marked     = color.New(color.FgGreen, color.Bold).SprintFunc()
)

// Prompt returns a colored prompt string
func Prompt(text string) string {
	return Warn(text + " > ")
}

// ColorForTurn returns colored turn indicator
func ColorForTurn(turn string) string {
	if turn == "w" {
		return whitePiece("White")
	}
	return blackPiece("Black")
}
