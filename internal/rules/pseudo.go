package rules

// moveKind is the outcome of classifying a candidate move against piece
// geometry and occupancy. moveInvalid rejects the candidate.
type moveKind uint8

const (
	moveInvalid moveKind = iota
	moveNormal
	moveDoublePush
	moveEnPassant
	moveCastleKingSide
	moveCastleQueenSide
)

// classify runs the shared pre-checks and the per-kind pseudo-move rules.
// Own-king safety is not considered here.
func (s *GameState) classify(from, to Square) moveKind {
	if !from.OnBoard() || !to.OnBoard() || from == to {
		return moveInvalid
	}
	p := s.at(from)
	if p.IsEmpty() || p.Color != s.sideToMove {
		return moveInvalid
	}
	target := s.at(to)
	if !target.IsEmpty() && target.Color == p.Color {
		return moveInvalid
	}

	dx, dy := to.X-from.X, to.Y-from.Y
	switch p.Kind {
	case Pawn:
		return s.classifyPawn(p, from, to, target)
	case Knight:
		if isKnightStep(dx, dy) {
			return moveNormal
		}
	case Bishop:
		if isDiagonal(dx, dy) && s.pathClear(from, to) {
			return moveNormal
		}
	case Rook:
		if isOrthogonal(dx, dy) && s.pathClear(from, to) {
			return moveNormal
		}
	case Queen:
		if (isDiagonal(dx, dy) || isOrthogonal(dx, dy)) && s.pathClear(from, to) {
			return moveNormal
		}
	case King:
		if max(abs(dx), abs(dy)) == 1 {
			return moveNormal
		}
		if dy == 0 && abs(dx) == 2 {
			return s.classifyCastle(p, from, to)
		}
	case Empty:
	}
	return moveInvalid
}

// classifyPawn covers single and double pushes, diagonal captures and
// en-passant recognition. The double push keys off the starting rank, not
// HasMoved.
func (s *GameState) classifyPawn(p Piece, from, to Square, target Piece) moveKind {
	fwd := p.Color.forward()
	dx, dy := to.X-from.X, to.Y-from.Y

	switch {
	case dx == 0 && dy == fwd:
		if target.IsEmpty() {
			return moveNormal
		}
	case dx == 0 && dy == 2*fwd:
		start := p.Color.backRank() + fwd
		if from.Y == start && target.IsEmpty() && s.board[from.Y+fwd][from.X].IsEmpty() {
			return moveDoublePush
		}
	case abs(dx) == 1 && dy == fwd:
		if !target.IsEmpty() {
			return moveNormal
		}
		if s.hasEnPassant && to == s.enPassant {
			victim := s.board[from.Y][to.X]
			if victim.Kind == Pawn && victim.Color == p.Color.Opponent() {
				return moveEnPassant
			}
		}
	}
	return moveInvalid
}
