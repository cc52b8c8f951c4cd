package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"chessrules/internal/rules"
	"chessrules/internal/server/core"
	"chessrules/internal/server/game"
	"chessrules/internal/server/storage"

	"github.com/google/uuid"
)

const (
	MaxGames           = 1000
	MaxUsers           = 100
	PermanentSlots     = 10
	TempUserTTL        = 24 * time.Hour
	TokenTTL           = 7 * 24 * time.Hour
	CleanupJobInterval = 1 * time.Hour
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrStorageDisabled = errors.New("storage disabled")
	ErrTooManyGames    = errors.New("game limit reached")
)

// Service coordinates game state, user management, and storage.
//
// Engine queries write the board transiently, so every access to a game
// takes the exclusive lock; there is no read-lock path.
type Service struct {
	games     map[string]*game.Game
	mu        sync.Mutex
	store     *storage.Store
	jwtSecret []byte
	waiter    *WaitRegistry
}

// New creates a new service instance with optional storage
func New(store *storage.Store, jwtSecret []byte) *Service {
	return &Service{
		games:     make(map[string]*game.Game),
		store:     store,
		jwtSecret: jwtSecret,
		waiter:    NewWaitRegistry(WaitTimeout),
	}
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// GenerateGameID returns a fresh id not used by any live game
func (s *Service) GenerateGameID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		id := uuid.New().String()
		if _, exists := s.games[id]; !exists {
			return id
		}
	}
}

// CreateGame registers a new game in the starting position
func (s *Service) CreateGame(gameID string, white, black *core.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[gameID]; exists {
		return fmt.Errorf("game %s already exists", gameID)
	}
	if len(s.games) >= MaxGames {
		return ErrTooManyGames
	}
	s.games[gameID] = game.New(white, black)

	if s.store != nil {
		if err := s.store.RecordNewGame(storage.GameRecord{
			GameID:        gameID,
			WhitePlayerID: white.ID,
			WhiteUserID:   white.UserID,
			BlackPlayerID: black.ID,
			BlackUserID:   black.UserID,
			StartTimeUTC:  time.Now().UTC(),
		}); err != nil {
			log.Printf("Failed to record game %s: %v", gameID, err)
		}
	}
	return nil
}

// WithGame runs fn on the game under the service lock. fn must not retain g.
func (s *Service) WithGame(gameID string, fn func(g *game.Game) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return fn(g)
}

// Snapshot copies the current position so it can be examined without
// holding the lock.
func (s *Service) Snapshot(gameID string) (*rules.GameState, error) {
	var pos *rules.GameState
	err := s.WithGame(gameID, func(g *game.Game) error {
		pos = g.Snapshot()
		return nil
	})
	return pos, err
}

// ApplyMove plays m in the game on behalf of userID. A color claimed by a
// user may only be moved by that user; unclaimed colors accept anyone.
func (s *Service) ApplyMove(gameID, userID string, m rules.Move) (*game.MoveResult, error) {
	var (
		result    *game.MoveResult
		moveCount int
	)
	err := s.WithGame(gameID, func(g *game.Game) error {
		if owner := g.NextPlayer().UserID; owner != "" && owner != userID {
			return fmt.Errorf("%w: %s belongs to another player", ErrNotYourTurn, g.NextTurnColor())
		}
		var err error
		if result, err = g.Apply(m); err != nil {
			return err
		}
		moveCount = g.MoveCount()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		s.persistMove(gameID, moveCount, result)
	}
	s.waiter.Notify(gameID, moveCount)
	return result, nil
}

func (s *Service) persistMove(gameID string, moveNumber int, result *game.MoveResult) {
	rec := storage.MoveRecord{
		GameID:      gameID,
		MoveNumber:  moveNumber,
		FromX:       result.Move.FromX,
		FromY:       result.Move.FromY,
		ToX:         result.Move.ToX,
		ToY:         result.Move.ToY,
		PlayerColor: result.PlayerColor.String(),
		MoveTimeUTC: time.Now().UTC(),
	}
	if result.Move.Promotion != rules.Empty {
		rec.Promotion = string(result.Move.Promotion.Symbol())
	}
	if err := s.store.RecordMove(rec); err != nil {
		log.Printf("Failed to record move %d of game %s: %v", moveNumber, gameID, err)
	}
	if result.GameState.IsOver() {
		if err := s.store.RecordResult(gameID, result.GameState.String()); err != nil {
			log.Printf("Failed to record result of game %s: %v", gameID, err)
		}
	}
}

// ClaimGameSlot claims a player slot for a user
func (s *Service) ClaimGameSlot(gameID string, color rules.Color, userID string) error {
	err := s.WithGame(gameID, func(g *game.Game) error {
		return g.ClaimSlot(color, userID)
	})
	if err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.RecordSlotClaim(gameID, color.String(), userID); err != nil {
			log.Printf("Failed to record slot claim for game %s: %v", gameID, err)
		}
	}
	s.waiter.Notify(gameID, -1)
	return nil
}

// GetSlotOwner returns the user who claimed a slot
func (s *Service) GetSlotOwner(gameID string, color rules.Color) (string, error) {
	var owner string
	err := s.WithGame(gameID, func(g *game.Game) error {
		owner = g.GetSlotOwner(color)
		return nil
	})
	return owner, err
}

// DeleteGame forgets a game and wakes anyone polling it
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	if _, ok := s.games[gameID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	delete(s.games, gameID)
	s.mu.Unlock()

	s.waiter.RemoveGame(gameID)
	return nil
}

// GameCount returns the number of live games
func (s *Service) GameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// WaitForMove parks the caller until the move count of gameID differs from
// moveCount. The count is compared and the waiter registered under the
// service lock, so a move cannot land in between. A nil channel means the
// count already differs.
func (s *Service) WaitForMove(ctx context.Context, gameID string, moveCount int) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	if g.MoveCount() != moveCount {
		return nil, nil
	}
	return s.waiter.Register(ctx, gameID, moveCount), nil
}

// Shutdown gracefully shuts down the service
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, fmt.Errorf("wait registry: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = make(map[string]*game.Game)

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RunCleanupJob periodically removes expired temporary users and sessions
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

func (s *Service) cleanupExpired() {
	if s.store == nil {
		return
	}

	now := time.Now().UTC()
	if deleted, err := s.store.PruneExpiredUsers(now); err != nil {
		log.Printf("cleanup: failed to delete expired users: %v", err)
	} else if deleted > 0 {
		log.Printf("cleanup: deleted %d expired temp users", deleted)
	}

	if deleted, err := s.store.PruneExpiredSessions(now); err != nil {
		log.Printf("cleanup: failed to delete expired sessions: %v", err)
	} else if deleted > 0 {
		log.Printf("cleanup: deleted %d expired sessions", deleted)
	}
}
