package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "chess.db"), true)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestGameAndMoveRecords(t *testing.T) {
	s := newTestStore(t)
	start := time.Now().UTC().Truncate(time.Second)

	if err := s.RecordNewGame(GameRecord{
		GameID:        "g1",
		WhitePlayerID: "pw",
		BlackPlayerID: "pb",
		StartTimeUTC:  start,
	}); err != nil {
		t.Fatalf("RecordNewGame: %v", err)
	}
	moves := []MoveRecord{
		{GameID: "g1", MoveNumber: 1, FromX: 4, FromY: 6, ToX: 4, ToY: 4, PlayerColor: "w", MoveTimeUTC: start},
		{GameID: "g1", MoveNumber: 2, FromX: 4, FromY: 1, ToX: 4, ToY: 3, PlayerColor: "b", MoveTimeUTC: start},
	}
	for _, m := range moves {
		if err := s.RecordMove(m); err != nil {
			t.Fatalf("RecordMove: %v", err)
		}
	}
	s.RecordSlotClaim("g1", "b", "user-1")
	s.RecordResult("g1", "stalemate")
	flush(t, s)

	if !s.IsHealthy() {
		t.Fatal("store degraded")
	}

	games, err := s.QueryGames("*", "user-1")
	if err != nil {
		t.Fatalf("QueryGames: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("games: got %d want 1", len(games))
	}
	g := games[0]
	if g.BlackUserID != "user-1" || g.WhiteUserID != "" || g.Result != "stalemate" {
		t.Fatalf("game record: %+v", g)
	}

	got, err := s.QueryMoves("g1")
	if err != nil {
		t.Fatalf("QueryMoves: %v", err)
	}
	if len(got) != 2 || got[0].ToY != 4 || got[1].PlayerColor != "b" {
		t.Fatalf("moves: %+v", got)
	}
}

func TestRecordSlotClaimRejectsBadColor(t *testing.T) {
	s := newTestStore(t)
	if err := s.RecordSlotClaim("g1", "x", "u"); err == nil {
		t.Fatal("expected error for invalid color")
	}
}

func TestDuplicateMoveDegradesStore(t *testing.T) {
	s := newTestStore(t)
	s.RecordNewGame(GameRecord{GameID: "g1", WhitePlayerID: "a", BlackPlayerID: "b", StartTimeUTC: time.Now()})
	m := MoveRecord{GameID: "g1", MoveNumber: 1, ToY: 4, FromY: 6, PlayerColor: "w", MoveTimeUTC: time.Now()}
	s.RecordMove(m)
	s.RecordMove(m)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	s.Flush(ctx)

	if s.IsHealthy() {
		t.Fatal("unique violation should degrade the store")
	}
	// dropped silently once degraded
	if err := s.RecordMove(m); err != nil {
		t.Fatalf("RecordMove on degraded store: %v", err)
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	expires := time.Now().UTC().Add(-time.Hour)

	records := []UserRecord{
		{UserID: "u1", Username: "Alice", Email: "alice@example.com", PasswordHash: "h", AccountType: AccountPermanent, CreatedAt: time.Now().UTC()},
		{UserID: "u2", Username: "bob", PasswordHash: "h", AccountType: AccountTemp, CreatedAt: time.Now().UTC(), ExpiresAt: &expires},
	}
	for _, r := range records {
		if err := s.CreateUser(r); err != nil {
			t.Fatalf("CreateUser %s: %v", r.Username, err)
		}
	}

	dup := records[0]
	dup.UserID = "u3"
	dup.Username = "ALICE"
	if err := s.CreateUser(dup); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate username: got %v want ErrUserExists", err)
	}

	if err := s.CreateUser(UserRecord{UserID: "u1", Username: "carol", PasswordHash: "h", AccountType: AccountTemp}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate id: got %v want ErrUserExists", err)
	}

	counts, err := s.CountUsers()
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if counts != (UserCounts{Total: 2, Permanent: 1, Temp: 1}) {
		t.Fatalf("counts: %+v", counts)
	}

	u, err := s.GetUserByUsername("alice")
	if err != nil || u.UserID != "u1" {
		t.Fatalf("GetUserByUsername: %+v %v", u, err)
	}
	if u, err := s.GetUserByEmail("ALICE@example.com"); err != nil || u.UserID != "u1" {
		t.Fatalf("GetUserByEmail: %+v %v", u, err)
	}
	if _, err := s.GetUserByEmail(""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("empty email: got %v", err)
	}
	if _, err := s.GetUserByID("nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown id: got %v", err)
	}

	n, err := s.PruneExpiredUsers(time.Now().UTC())
	if err != nil || n != 1 {
		t.Fatalf("PruneExpiredUsers: %d %v", n, err)
	}
	if _, err := s.GetUserByID("u2"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expired user still present: %v", err)
	}

	if err := s.PromoteToPermanent("u2"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("promote missing user: got %v", err)
	}
}

func TestEvictOldestTempUser(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.EvictOldestTempUser(); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("empty table: got %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour)
	for i, name := range []string{"old", "newer", "perm"} {
		kind := AccountTemp
		if name == "perm" {
			kind = AccountPermanent
		}
		r := UserRecord{UserID: name, Username: name, PasswordHash: "h", AccountType: kind, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.CreateUser(r); err != nil {
			t.Fatalf("CreateUser %s: %v", name, err)
		}
	}

	evicted, err := s.EvictOldestTempUser()
	if err != nil || evicted.UserID != "old" {
		t.Fatalf("EvictOldestTempUser: %+v %v", evicted, err)
	}
	counts, _ := s.CountUsers()
	if counts != (UserCounts{Total: 2, Permanent: 1, Temp: 1}) {
		t.Fatalf("counts after eviction: %+v", counts)
	}
}

func TestEmptyUserCounts(t *testing.T) {
	s := newTestStore(t)
	counts, err := s.CountUsers()
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if counts != (UserCounts{}) {
		t.Fatalf("counts: %+v", counts)
	}
}

func TestUserGameStats(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()
	for _, name := range []string{"alice", "bob", "idle"} {
		if err := s.CreateUser(UserRecord{UserID: name, Username: name, PasswordHash: "h", AccountType: AccountPermanent, CreatedAt: now}); err != nil {
			t.Fatalf("CreateUser %s: %v", name, err)
		}
	}

	games := []struct {
		id, white, black, result string
	}{
		{"g1", "alice", "bob", ResultWhiteWins},
		{"g2", "bob", "alice", ResultWhiteWins},
		{"g3", "alice", "bob", ResultStalemate},
		{"g4", "alice", "", ""},
		{"g5", "bob", "", ResultBlackWins},
	}
	for _, g := range games {
		s.RecordNewGame(GameRecord{GameID: g.id, WhitePlayerID: "pw-" + g.id, WhiteUserID: g.white, BlackPlayerID: "pb-" + g.id, BlackUserID: g.black, StartTimeUTC: now})
		if g.result != "" {
			s.RecordResult(g.id, g.result)
		}
	}
	flush(t, s)

	tests := []struct {
		user string
		want UserStats
	}{
		{"alice", UserStats{Played: 4, Won: 1, Lost: 1, Drawn: 1, Ongoing: 1}},
		{"bob", UserStats{Played: 4, Won: 1, Lost: 2, Drawn: 1}},
		{"idle", UserStats{}},
		{"nobody", UserStats{}},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			got, err := s.UserGameStats(tt.user)
			if err != nil {
				t.Fatalf("UserGameStats: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v want %+v", got, tt.want)
			}
		})
	}

	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("ListUsers returned %d users", len(users))
	}
	for _, u := range users {
		want, _ := s.UserGameStats(u.UserID)
		if u.Stats != want {
			t.Errorf("%s: listed %+v, direct %+v", u.UserID, u.Stats, want)
		}
	}
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()
	if err := s.CreateUser(UserRecord{UserID: "u1", Username: "alice", PasswordHash: "h", AccountType: AccountPermanent, CreatedAt: now}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	first := SessionRecord{SessionID: "s1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := s.CreateSession(first); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	second := SessionRecord{SessionID: "s2", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := s.CreateSession(second); err != nil {
		t.Fatalf("CreateSession replace: %v", err)
	}

	got, err := s.ActiveSession("u1", now)
	if err != nil {
		t.Fatalf("ActiveSession: %v", err)
	}
	if got.SessionID != "s2" {
		t.Errorf("session = %s, want the replacement s2", got.SessionID)
	}

	if _, err := s.ActiveSession("u1", now.Add(2*time.Hour)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("session past expiry: got %v", err)
	}

	if n, err := s.PruneExpiredSessions(now); err != nil || n != 0 {
		t.Errorf("PruneExpiredSessions = %d, %v; want 0", n, err)
	}

	if ended, err := s.EndSession("u1"); err != nil || !ended {
		t.Fatalf("EndSession = %v, %v", ended, err)
	}
	if ended, err := s.EndSession("u1"); err != nil || ended {
		t.Errorf("second EndSession = %v, %v", ended, err)
	}
	if _, err := s.ActiveSession("u1", now); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("session survived deletion: %v", err)
	}

	stale := SessionRecord{SessionID: "s3", UserID: "u1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	if err := s.CreateSession(stale); err != nil {
		t.Fatalf("CreateSession stale: %v", err)
	}
	if n, err := s.PruneExpiredSessions(now); err != nil || n != 1 {
		t.Errorf("PruneExpiredSessions = %d, %v; want 1", n, err)
	}
}
