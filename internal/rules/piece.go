package rules

import "fmt"

// Color identifies a side. None marks the absence of a piece.
type Color uint8

const (
	None Color = iota
	White
	Black
)

// Opponent returns the other side; None has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return None
	}
}

func (c Color) String() string {
	switch c {
	case White:
		return "w"
	case Black:
		return "b"
	default:
		return "-"
	}
}

// forward is the y step a pawn of this color advances by
func (c Color) forward() int {
	if c == White {
		return -1
	}
	return 1
}

// backRank is the y coordinate of the color's home rank
func (c Color) backRank() int {
	if c == White {
		return 7
	}
	return 0
}

// PieceKind is the tagged variant dispatched on by every rule.
type PieceKind uint8

const (
	Empty PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindSymbols = [...]byte{Empty: '.', Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k'}

func (k PieceKind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "empty"
	}
}

// Symbol returns the lower-case letter for the kind, '.' for Empty.
func (k PieceKind) Symbol() byte {
	if int(k) < len(kindSymbols) {
		return kindSymbols[k]
	}
	return '?'
}

// KindFromSymbol maps a piece letter (either case) back to its kind.
func KindFromSymbol(ch byte) (PieceKind, bool) {
	if ch >= 'A' && ch <= 'Z' {
		ch += 'a' - 'A'
	}
	for k, s := range kindSymbols {
		if s == ch && PieceKind(k) != Empty {
			return PieceKind(k), true
		}
	}
	return Empty, false
}

// promotable reports whether a pawn may turn into this kind
func (k PieceKind) promotable() bool {
	switch k {
	case Knight, Bishop, Rook, Queen:
		return true
	default:
		return false
	}
}

// Piece is one occupant of the board. HasMoved is only observed for
// kings and rooks (castling).
type Piece struct {
	Kind     PieceKind
	Color    Color
	HasMoved bool
}

// IsEmpty reports whether the square holding this piece is vacant.
func (p Piece) IsEmpty() bool {
	return p.Kind == Empty
}

// Symbol returns the diagram letter: upper case for White, lower case for Black.
func (p Piece) Symbol() byte {
	s := p.Kind.Symbol()
	if p.Color == White && p.Kind != Empty {
		s -= 'a' - 'A'
	}
	return s
}

// Square is a board coordinate. y=0 is Black's back rank, y=7 White's.
type Square struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OnBoard reports whether the square lies on the 8x8 grid.
func (s Square) OnBoard() bool {
	return s.X >= 0 && s.X < 8 && s.Y >= 0 && s.Y < 8
}

func (s Square) String() string {
	return fmt.Sprintf("(%d,%d)", s.X, s.Y)
}

// Move is a from/to pair with an optional promotion choice.
type Move struct {
	FromX     int
	FromY     int
	ToX       int
	ToY       int
	Promotion PieceKind
}

// NewMove builds a move without a promotion choice.
func NewMove(fromX, fromY, toX, toY int) Move {
	return Move{FromX: fromX, FromY: fromY, ToX: toX, ToY: toY}
}

func (m Move) From() Square { return Square{m.FromX, m.FromY} }

func (m Move) To() Square { return Square{m.ToX, m.ToY} }

func (m Move) String() string {
	s := fmt.Sprintf("%s->%s", m.From(), m.To())
	if m.Promotion != Empty {
		s += "=" + string(m.Promotion.Symbol())
	}
	return s
}

// Mask is the set of destinations reachable from one square, indexed [y][x]
// like the board.
type Mask [8][8]bool

// Has reports whether (x,y) is in the mask; off-board squares never are.
func (m Mask) Has(x, y int) bool {
	if !(Square{x, y}).OnBoard() {
		return false
	}
	return m[y][x]
}

// Count returns the number of set squares.
func (m Mask) Count() int {
	n := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if m[y][x] {
				n++
			}
		}
	}
	return n
}

// Squares lists the set squares in row-major order.
func (m Mask) Squares() []Square {
	var out []Square
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if m[y][x] {
				out = append(out, Square{x, y})
			}
		}
	}
	return out
}
