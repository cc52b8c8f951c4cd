package core

import "chessrules/internal/rules"

type State int

const (
	StateOngoing State = iota
	StateWhiteWins
	StateBlackWins
	StateStalemate
)

func (s State) String() string {
	switch s {
	case StateWhiteWins:
		return "white wins"
	case StateBlackWins:
		return "black wins"
	case StateStalemate:
		return "stalemate"
	case StateOngoing:
		return "ongoing"
	default:
		return "unknown"
	}
}

// IsOver reports whether no further moves are accepted
func (s State) IsOver() bool {
	return s != StateOngoing
}

// WinFor returns the state in which color c has delivered checkmate
func WinFor(c rules.Color) State {
	if c == rules.White {
		return StateWhiteWins
	}
	return StateBlackWins
}
