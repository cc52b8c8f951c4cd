package rules

// ApplyMove commits m if it is legal for the side to move and reports
// whether it did. A rejected move leaves the state untouched.
func (s *GameState) ApplyMove(m Move) bool {
	from, to := m.From(), m.To()
	kind := s.classify(from, to)
	if kind == moveInvalid || !s.leavesKingSafe(from, to, kind) {
		return false
	}

	mover := s.at(from)
	// The hook observes the position before the move
	choice := m.Promotion
	m.Promotion = Empty
	if isPromotionSquare(mover, to) {
		mover.Kind = s.promotionKind(mover.Color, choice, to)
		m.Promotion = mover.Kind
	}

	s.enPassant, s.hasEnPassant = Square{}, false

	switch kind {
	case moveEnPassant:
		s.set(Square{to.X, from.Y}, Piece{})
	case moveCastleKingSide, moveCastleQueenSide:
		s.castleRook(kind, to)
	case moveDoublePush:
		s.enPassant, s.hasEnPassant = Square{from.X, (from.Y + to.Y) / 2}, true
	}

	mover.HasMoved = true
	s.set(to, mover)
	s.set(from, Piece{})

	s.sideToMove = s.sideToMove.Opponent()
	s.inCheck = s.IsInCheck(s.sideToMove)
	s.lastMove, s.hasLastMove = m, true
	return true
}

// IsCheckmate reports whether the side to move is in check with no legal move.
func (s *GameState) IsCheckmate() bool {
	return s.IsInCheck(s.sideToMove) && !s.hasLegalMove()
}

// IsStalemate reports whether the side to move is not in check but has no
// legal move.
func (s *GameState) IsStalemate() bool {
	return !s.IsInCheck(s.sideToMove) && !s.hasLegalMove()
}

func (s *GameState) hasLegalMove() bool {
	for fy := 0; fy < 8; fy++ {
		for fx := 0; fx < 8; fx++ {
			if s.board[fy][fx].Color != s.sideToMove {
				continue
			}
			for ty := 0; ty < 8; ty++ {
				for tx := 0; tx < 8; tx++ {
					if s.IsLegal(fx, fy, tx, ty) {
						return true
					}
				}
			}
		}
	}
	return false
}
