package rules

// IsAttacked reports whether any piece of color by could capture onto sq,
// ignoring whether doing so would expose its own king. It is purely
// geometric and never consults the legality filter.
func (s *GameState) IsAttacked(sq Square, by Color) bool {
	if !sq.OnBoard() || by == None {
		return false
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			p := s.board[y][x]
			if p.Color != by {
				continue
			}
			if s.attacks(p, Square{x, y}, sq) {
				return true
			}
		}
	}
	return false
}

// IsInCheck reports whether the king of color c is attacked. A missing king
// is never in check.
func (s *GameState) IsInCheck(c Color) bool {
	king, ok := s.findKing(c)
	if !ok {
		return false
	}
	return s.IsAttacked(king, c.Opponent())
}

// attacks applies the capture geometry of p standing on from. A pawn only
// attacks its two forward diagonals.
func (s *GameState) attacks(p Piece, from, to Square) bool {
	dx, dy := to.X-from.X, to.Y-from.Y
	switch p.Kind {
	case Pawn:
		return dy == p.Color.forward() && abs(dx) == 1
	case Knight:
		return isKnightStep(dx, dy)
	case Bishop:
		return isDiagonal(dx, dy) && s.pathClear(from, to)
	case Rook:
		return isOrthogonal(dx, dy) && s.pathClear(from, to)
	case Queen:
		return (isDiagonal(dx, dy) || isOrthogonal(dx, dy)) && s.pathClear(from, to)
	case King:
		return max(abs(dx), abs(dy)) == 1
	case Empty:
		return false
	}
	return false
}

// pathClear walks from toward to in unit steps, excluding both endpoints.
// The squares must share a rank, file or diagonal.
func (s *GameState) pathClear(from, to Square) bool {
	stepX, stepY := sign(to.X-from.X), sign(to.Y-from.Y)
	x, y := from.X+stepX, from.Y+stepY
	for x != to.X || y != to.Y {
		if !s.board[y][x].IsEmpty() {
			return false
		}
		x += stepX
		y += stepY
	}
	return true
}

func isKnightStep(dx, dy int) bool {
	ax, ay := abs(dx), abs(dy)
	return (ax == 1 && ay == 2) || (ax == 2 && ay == 1)
}

func isDiagonal(dx, dy int) bool {
	return dx != 0 && abs(dx) == abs(dy)
}

func isOrthogonal(dx, dy int) bool {
	return (dx == 0) != (dy == 0)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
