package rules

// classifyCastle checks every castling precondition for a king stepping two
// files along its back rank. Safety of the destination square is left to
// the legality filter.
func (s *GameState) classifyCastle(king Piece, from, to Square) moveKind {
	y0 := king.Color.backRank()
	if king.HasMoved || from != (Square{4, y0}) || to.Y != y0 {
		return moveInvalid
	}

	kind, rookX, transitX := moveCastleKingSide, 7, 5
	if to.X == 2 {
		kind, rookX, transitX = moveCastleQueenSide, 0, 3
	}

	rook := s.board[y0][rookX]
	if rook.Kind != Rook || rook.Color != king.Color || rook.HasMoved {
		return moveInvalid
	}
	if !s.pathClear(from, Square{rookX, y0}) {
		return moveInvalid
	}

	opp := king.Color.Opponent()
	if s.IsAttacked(from, opp) || s.IsAttacked(Square{transitX, y0}, opp) {
		return moveInvalid
	}
	return kind
}

// castleRook relocates the rook beside a castling king and marks it moved.
func (s *GameState) castleRook(kind moveKind, kingTo Square) {
	rookFrom, rookTo := Square{7, kingTo.Y}, Square{kingTo.X - 1, kingTo.Y}
	if kind == moveCastleQueenSide {
		rookFrom, rookTo = Square{0, kingTo.Y}, Square{kingTo.X + 1, kingTo.Y}
	}
	rook := s.at(rookFrom)
	rook.HasMoved = true
	s.set(rookTo, rook)
	s.set(rookFrom, Piece{})
}

// promotionKind resolves the replacement for a pawn landing on its last
// rank: the move's own choice first, then the hook, then a queen. Kinds a
// pawn cannot become are ignored.
func (s *GameState) promotionKind(c Color, choice PieceKind, at Square) PieceKind {
	if choice.promotable() {
		return choice
	}
	if s.promote != nil {
		if k := s.promote(c, at); k.promotable() {
			return k
		}
	}
	return Queen
}

func isPromotionSquare(p Piece, to Square) bool {
	return p.Kind == Pawn && to.Y == p.Color.Opponent().backRank()
}
