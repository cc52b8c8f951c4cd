// Package rules implements a deterministic two-player chess rules engine:
// move legality, move application, and check, checkmate and stalemate
// detection over an 8x8 board.
//
// A GameState is not safe for concurrent use, not even by concurrent readers:
// legality checks write the board transiently and restore it before returning.
// Callers must serialize every call on a given state.
package rules

import (
	"fmt"
	"strings"
)

// PromotionHook picks the replacement for a pawn reaching its last rank.
type PromotionHook func(c Color, at Square) PieceKind

// GameState is the complete position of one game: occupants, side to move,
// en-passant window and derived check flag. It is a plain value; copying it
// yields an independent position.
type GameState struct {
	board        [8][8]Piece // [y][x]
	sideToMove   Color
	enPassant    Square
	hasEnPassant bool
	inCheck      bool
	lastMove     Move
	hasLastMove  bool
	promote      PromotionHook
}

var backRow = [8]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// New returns the standard starting position with White to move.
func New() *GameState {
	s := &GameState{sideToMove: White}
	for x := 0; x < 8; x++ {
		s.board[0][x] = Piece{Kind: backRow[x], Color: Black}
		s.board[1][x] = Piece{Kind: Pawn, Color: Black}
		s.board[6][x] = Piece{Kind: Pawn, Color: White}
		s.board[7][x] = Piece{Kind: backRow[x], Color: White}
	}
	return s
}

// SetPromotionHook installs the callback consulted when a move reaching the
// last rank carries no promotion choice. A nil hook promotes to a queen.
func (s *GameState) SetPromotionHook(h PromotionHook) {
	s.promote = h
}

// At returns the occupant of (x,y); off-board squares read as empty.
func (s *GameState) At(x, y int) Piece {
	if !(Square{x, y}).OnBoard() {
		return Piece{}
	}
	return s.board[y][x]
}

func (s *GameState) at(sq Square) Piece {
	return s.board[sq.Y][sq.X]
}

func (s *GameState) set(sq Square, p Piece) {
	s.board[sq.Y][sq.X] = p
}

// SideToMove returns the color whose turn it is.
func (s *GameState) SideToMove() Color {
	return s.sideToMove
}

// InCheck reports whether the side to move had its king attacked after the
// most recent move.
func (s *GameState) InCheck() bool {
	return s.inCheck
}

// LastMove returns the most recently applied move, if any.
func (s *GameState) LastMove() (Move, bool) {
	return s.lastMove, s.hasLastMove
}

// EnPassantTarget returns the square a pawn may capture onto en passant
// during the current reply window.
func (s *GameState) EnPassantTarget() (Square, bool) {
	return s.enPassant, s.hasEnPassant
}

// findKing locates the king of color c
func (s *GameState) findKing(c Color) (Square, bool) {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			p := s.board[y][x]
			if p.Kind == King && p.Color == c {
				return Square{x, y}, true
			}
		}
	}
	return Square{}, false
}

// Rows returns the board as eight strings of diagram symbols, row y=0 first.
func (s *GameState) Rows() [8]string {
	var rows [8]string
	for y := 0; y < 8; y++ {
		var row [8]byte
		for x := 0; x < 8; x++ {
			row[x] = s.board[y][x].Symbol()
		}
		rows[y] = string(row[:])
	}
	return rows
}

// String renders a text diagram labelled with x (columns) and y (rows).
func (s *GameState) String() string {
	var sb strings.Builder
	sb.WriteString("  0 1 2 3 4 5 6 7\n")
	for y := 0; y < 8; y++ {
		sb.WriteString(fmt.Sprintf("%d ", y))
		for x := 0; x < 8; x++ {
			sb.WriteByte(s.board[y][x].Symbol())
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf("%d\n", y))
	}
	sb.WriteString("  0 1 2 3 4 5 6 7")
	return sb.String()
}
