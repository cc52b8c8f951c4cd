package rules

// IsLegal reports whether the side to move may play (fromX,fromY) to
// (toX,toY). Out-of-range coordinates are simply illegal. The board is
// unchanged when IsLegal returns.
func (s *GameState) IsLegal(fromX, fromY, toX, toY int) bool {
	from, to := Square{fromX, fromY}, Square{toX, toY}
	kind := s.classify(from, to)
	if kind == moveInvalid {
		return false
	}
	return s.leavesKingSafe(from, to, kind)
}

// leavesKingSafe plays the move speculatively on the cells it touches,
// tests the mover's king and restores those cells before returning.
func (s *GameState) leavesKingSafe(from, to Square, kind moveKind) bool {
	mover := s.at(from)
	savedFrom, savedTo := mover, s.at(to)
	victim := Square{to.X, from.Y}
	savedVictim := s.at(victim)

	s.set(to, mover)
	s.set(from, Piece{})
	if kind == moveEnPassant {
		s.set(victim, Piece{})
	}

	king, ok := to, true
	if mover.Kind != King {
		king, ok = s.findKing(mover.Color)
	}
	safe := !ok || !s.IsAttacked(king, mover.Color.Opponent())

	if kind == moveEnPassant {
		s.set(victim, savedVictim)
	}
	s.set(to, savedTo)
	s.set(from, savedFrom)
	return safe
}
