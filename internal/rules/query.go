package rules

import "context"

// PossibleDestinations returns every square the piece on (x,y) may legally
// move to. The mask is empty for empty squares, opponent pieces and
// off-board coordinates.
func (s *GameState) PossibleDestinations(x, y int) Mask {
	var m Mask
	if !(Square{x, y}).OnBoard() || s.board[y][x].Color != s.sideToMove {
		return m
	}
	for ty := 0; ty < 8; ty++ {
		for tx := 0; tx < 8; tx++ {
			m[ty][tx] = s.IsLegal(x, y, tx, ty)
		}
	}
	return m
}

// LegalMoves lists every legal move for the side to move in row-major
// source order. Promotions appear once, without a promotion choice.
func (s *GameState) LegalMoves() []Move {
	var moves []Move
	for fy := 0; fy < 8; fy++ {
		for fx := 0; fx < 8; fx++ {
			if s.board[fy][fx].Color != s.sideToMove {
				continue
			}
			for _, to := range s.PossibleDestinations(fx, fy).Squares() {
				moves = append(moves, NewMove(fx, fy, to.X, to.Y))
			}
		}
	}
	return moves
}

var promotionChoices = [...]PieceKind{Queen, Rook, Bishop, Knight}

// Perft counts the leaf nodes of the legal move tree to the given depth.
// Each promotion counts once per replacement kind.
func (s *GameState) Perft(depth int) int {
	nodes, _ := s.PerftContext(context.Background(), depth)
	return nodes
}

// PerftContext is Perft that stops between root moves once ctx is done,
// returning the partial count with ctx's error.
func (s *GameState) PerftContext(ctx context.Context, depth int) (int, error) {
	if depth <= 0 {
		return 1, nil
	}
	nodes := 0
	for _, m := range s.perftMoves() {
		if err := ctx.Err(); err != nil {
			return nodes, err
		}
		nodes += s.perftChild(m, depth)
	}
	return nodes, nil
}

// perftMoves expands each promotion into one move per replacement kind
func (s *GameState) perftMoves() []Move {
	var moves []Move
	for _, m := range s.LegalMoves() {
		if !isPromotionSquare(s.at(m.From()), m.To()) {
			moves = append(moves, m)
			continue
		}
		for _, k := range promotionChoices {
			m.Promotion = k
			moves = append(moves, m)
		}
	}
	return moves
}

func (s *GameState) perftChild(m Move, depth int) int {
	if depth == 1 {
		return 1
	}
	child := s.Clone()
	child.ApplyMove(m)
	return child.Perft(depth - 1)
}

// Clone returns an independent copy of the position, hook included.
func (s *GameState) Clone() *GameState {
	c := *s
	return &c
}
