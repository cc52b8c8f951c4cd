package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"chessrules/internal/rules"
	"chessrules/internal/server/core"
	"chessrules/internal/server/game"
	"chessrules/internal/server/storage"

	"github.com/lixenwraith/auth"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s := New(nil, []byte("secret"))
	t.Cleanup(func() { s.Shutdown(time.Second) })
	return s
}

func addGame(t *testing.T, s *Service, whiteUser, blackUser string) string {
	t.Helper()
	id := s.GenerateGameID()
	if err := s.CreateGame(id, core.NewPlayer(rules.White, whiteUser), core.NewPlayer(rules.Black, blackUser)); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	return id
}

func TestApplyMoveOwnership(t *testing.T) {
	s := newTestService(t)
	id := addGame(t, s, "alice", "")

	_, err := s.ApplyMove(id, "bob", rules.NewMove(4, 6, 4, 4))
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("got %v want ErrNotYourTurn", err)
	}
	if _, err := s.ApplyMove(id, "alice", rules.NewMove(4, 6, 4, 4)); err != nil {
		t.Fatalf("owner move: %v", err)
	}
	if _, err := s.ApplyMove(id, "bob", rules.NewMove(4, 1, 4, 3)); err != nil {
		t.Fatalf("unclaimed black move: %v", err)
	}
	_, err = s.ApplyMove(id, "alice", rules.NewMove(0, 0, 0, 5))
	if !errors.Is(err, game.ErrIllegalMove) {
		t.Fatalf("got %v want ErrIllegalMove", err)
	}
}

func TestGameNotFound(t *testing.T) {
	s := newTestService(t)
	if _, err := s.ApplyMove("missing", "", rules.NewMove(4, 6, 4, 4)); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("ApplyMove: got %v", err)
	}
	if err := s.DeleteGame("missing"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("DeleteGame: got %v", err)
	}
	if _, err := s.Snapshot("missing"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("Snapshot: got %v", err)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := newTestService(t)
	id := addGame(t, s, "", "")

	pos, err := s.Snapshot(id)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	pos.ApplyMove(rules.NewMove(4, 6, 4, 4))

	s.WithGame(id, func(g *game.Game) error {
		if g.MoveCount() != 0 || g.NextTurnColor() != rules.White {
			t.Fatal("snapshot shares state with the live game")
		}
		return nil
	})
}

func TestWaitWakesOnMove(t *testing.T) {
	s := newTestService(t)
	id := addGame(t, s, "", "")

	ch, err := s.WaitForMove(context.Background(), id, 0)
	if err != nil || ch == nil {
		t.Fatalf("WaitForMove = %v, %v", ch, err)
	}
	if _, err := s.ApplyMove(id, "", rules.NewMove(4, 6, 4, 4)); err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}

	select {
	case _, ok := <-ch:
		if !ok {
			t.Fatal("channel closed instead of notified")
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not notified")
	}
}

func TestWaitRegistry(t *testing.T) {
	t.Run("same count does not wake", func(t *testing.T) {
		w := NewWaitRegistry(time.Minute)
		defer w.Shutdown(time.Second)

		ch := w.Register(context.Background(), "g", 3)
		w.Notify("g", 3)
		select {
		case <-ch:
			t.Fatal("woken without a change")
		case <-time.After(20 * time.Millisecond):
		}
		w.Notify("g", 4)
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("not woken by a change")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		w := NewWaitRegistry(20 * time.Millisecond)
		defer w.Shutdown(time.Second)

		ch := w.Register(context.Background(), "g", 0)
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("wait did not time out")
		}
	})

	t.Run("cancel closes", func(t *testing.T) {
		w := NewWaitRegistry(time.Minute)
		defer w.Shutdown(time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		ch := w.Register(ctx, "g", 0)
		cancel()
		select {
		case _, ok := <-ch:
			if ok {
				t.Fatal("expected closed channel")
			}
		case <-time.After(time.Second):
			t.Fatal("cancel did not release waiter")
		}
		deadline := time.Now().Add(time.Second)
		for w.Pending() != 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if n := w.Pending(); n != 0 {
			t.Fatalf("pending waiters: %d", n)
		}
	})

	t.Run("remove game wakes", func(t *testing.T) {
		w := NewWaitRegistry(time.Minute)
		defer w.Shutdown(time.Second)

		ch := w.Register(context.Background(), "g", 0)
		w.RemoveGame("g")
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("RemoveGame did not wake waiter")
		}
	})
}

func TestUsersRequireStorage(t *testing.T) {
	s := newTestService(t)
	if _, err := s.CreateUser("alice", "", "password1", false); !errors.Is(err, ErrStorageDisabled) {
		t.Fatalf("CreateUser: got %v", err)
	}
	if _, err := s.AuthenticateUser("alice", "password1"); !errors.Is(err, ErrStorageDisabled) {
		t.Fatalf("AuthenticateUser: got %v", err)
	}
}

func TestSessionTokens(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "chess.db"), true)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	s := New(store, []byte("secret"))
	t.Cleanup(func() { s.Shutdown(time.Second) })

	user, err := s.CreateUser("alice", "", "password1", false)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	first, err := s.GenerateUserToken(user.UserID)
	if err != nil {
		t.Fatalf("GenerateUserToken: %v", err)
	}
	if id, _, err := s.ValidateToken(first); err != nil || id != user.UserID {
		t.Fatalf("ValidateToken = %q, %v", id, err)
	}

	second, err := s.GenerateUserToken(user.UserID)
	if err != nil {
		t.Fatalf("GenerateUserToken: %v", err)
	}
	if _, _, err := s.ValidateToken(first); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("superseded token: got %v", err)
	}
	if _, _, err := s.ValidateToken(second); err != nil {
		t.Errorf("current token: %v", err)
	}

	// Signed with the right key for a user with a live session, but unbound
	bare, err := auth.GenerateHS256Token([]byte("secret"), user.UserID,
		map[string]any{"username": user.Username}, TokenTTL)
	if err != nil {
		t.Fatalf("GenerateHS256Token: %v", err)
	}
	if _, _, err := s.ValidateToken(bare); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("token without session id: got %v", err)
	}

	if err := s.Logout(user.UserID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, _, err := s.ValidateToken(second); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("token after logout: got %v", err)
	}
}

func TestWaitForMoveStaleCount(t *testing.T) {
	s := newTestService(t)
	id := addGame(t, s, "", "")
	if _, err := s.ApplyMove(id, "", rules.NewMove(4, 6, 4, 4)); err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}

	// A client that saw count 0 must not be parked after the move landed
	ch, err := s.WaitForMove(context.Background(), id, 0)
	if err != nil {
		t.Fatalf("WaitForMove: %v", err)
	}
	if ch != nil {
		t.Fatal("parked a client whose move count is already stale")
	}
	if n := s.waiter.Pending(); n != 0 {
		t.Fatalf("pending waiters = %d", n)
	}

	if _, err := s.WaitForMove(context.Background(), "missing", 0); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("unknown game: got %v", err)
	}
}

func TestResultStringsMatchStorage(t *testing.T) {
	for state, want := range map[core.State]string{
		core.StateWhiteWins: storage.ResultWhiteWins,
		core.StateBlackWins: storage.ResultBlackWins,
		core.StateStalemate: storage.ResultStalemate,
	} {
		if state.String() != want {
			t.Errorf("state %d records %q, stats count %q", state, state.String(), want)
		}
	}
}
