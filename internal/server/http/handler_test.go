package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"chessrules/internal/rules"
	"chessrules/internal/server/core"
	"chessrules/internal/server/processor"
	"chessrules/internal/server/service"
	"chessrules/internal/server/storage"

	"github.com/gofiber/fiber/v2"
)

var clientSeq atomic.Int64

type testServer struct {
	app   *fiber.App
	svc   *service.Service
	store *storage.Store
}

func newTestServer(t *testing.T, withStorage bool) *testServer {
	t.Helper()

	var store *storage.Store
	if withStorage {
		var err error
		store, err = storage.NewStore(filepath.Join(t.TempDir(), "chess.db"), true)
		if err != nil {
			t.Fatalf("NewStore: %v", err)
		}
		if err := store.InitDB(); err != nil {
			t.Fatalf("InitDB: %v", err)
		}
	}

	svc := service.New(store, []byte("handler-test-secret"))
	proc := processor.New(svc)
	t.Cleanup(func() {
		proc.Close()
		svc.Shutdown(time.Second)
	})

	return &testServer{app: NewFiberApp(proc, svc, true), svc: svc, store: store}
}

// do sends a request from a fresh client address so the per-IP limiter
// stays out of the way.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	return ts.doFrom(t, fmt.Sprintf("10.0.0.%d", clientSeq.Add(1)%250+1), method, path, token, body)
}

func (ts *testServer) doFrom(t *testing.T, ip, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Forwarded-For", ip)

	resp, err := ts.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func expectStatus(t *testing.T, got, want int, body []byte) {
	t.Helper()
	if got != want {
		t.Fatalf("status: got %d want %d (%s)", got, want, body)
	}
}

func (ts *testServer) newGame(t *testing.T) core.GameResponse {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/api/v1/games", "", map[string]any{})
	expectStatus(t, status, http.StatusCreated, body)
	return decode[core.GameResponse](t, body)
}

func moveBody(fx, fy, tx, ty int) map[string]any {
	return map[string]any{"fromX": fx, "fromY": fy, "toX": tx, "toY": ty}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)
	status, body := ts.do(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, status, http.StatusOK, body)

	h := decode[map[string]any](t, body)
	if h["status"] != "healthy" || h["storage"] != "disabled" {
		t.Fatalf("health: %v", h)
	}
}

func TestGameLifecycle(t *testing.T) {
	ts := newTestServer(t, false)
	g := ts.newGame(t)
	base := "/api/v1/games/" + g.GameID

	status, body := ts.do(t, http.MethodPost, base+"/moves", "", moveBody(4, 6, 4, 4))
	expectStatus(t, status, http.StatusOK, body)
	after := decode[core.GameResponse](t, body)
	if after.Turn != "b" || after.MoveCount != 1 || after.Board[4] != "....P..." {
		t.Fatalf("after e-pawn push: %+v", after)
	}

	status, body = ts.do(t, http.MethodGet, base, "", nil)
	expectStatus(t, status, http.StatusOK, body)
	if got := decode[core.GameResponse](t, body); got.MoveCount != 1 {
		t.Fatalf("get: %+v", got)
	}

	status, body = ts.do(t, http.MethodGet, base+"/board", "", nil)
	expectStatus(t, status, http.StatusOK, body)
	if b := decode[core.BoardResponse](t, body); !strings.Contains(b.Board, "0 1 2 3 4 5 6 7") {
		t.Fatalf("board: %q", b.Board)
	}

	status, body = ts.do(t, http.MethodDelete, base, "", nil)
	expectStatus(t, status, http.StatusNoContent, body)

	status, body = ts.do(t, http.MethodGet, base, "", nil)
	expectStatus(t, status, http.StatusNotFound, body)
	if e := decode[core.ErrorResponse](t, body); e.Code != core.ErrGameNotFound {
		t.Fatalf("code: %+v", e)
	}
}

func TestMoveErrors(t *testing.T) {
	ts := newTestServer(t, false)
	g := ts.newGame(t)
	base := "/api/v1/games/" + g.GameID

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"illegal", base + "/moves", moveBody(4, 6, 4, 3), http.StatusBadRequest, core.ErrInvalidMove},
		{"off board", base + "/moves", moveBody(4, 6, 4, 9), http.StatusBadRequest, core.ErrInvalidRequest},
		{"missing field", base + "/moves", map[string]any{"fromX": 4, "fromY": 6, "toX": 4}, http.StatusBadRequest, core.ErrInvalidRequest},
		{"bad promotion", base + "/moves", map[string]any{"fromX": 4, "fromY": 6, "toX": 4, "toY": 4, "promotion": "k"}, http.StatusBadRequest, core.ErrInvalidRequest},
		{"bad id", "/api/v1/games/not-a-uuid/moves", moveBody(4, 6, 4, 4), http.StatusBadRequest, core.ErrInvalidRequest},
		{"unknown game", "/api/v1/games/00000000-0000-4000-8000-000000000000/moves", moveBody(4, 6, 4, 4), http.StatusNotFound, core.ErrGameNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, http.MethodPost, tt.path, "", tt.body)
			expectStatus(t, status, tt.status, body)
			if e := decode[core.ErrorResponse](t, body); e.Code != tt.code {
				t.Fatalf("code: got %s want %s (%s)", e.Code, tt.code, e.Details)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	ts := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/games", strings.NewReader("color=w"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
}

func TestGameOverConflict(t *testing.T) {
	ts := newTestServer(t, false)
	g := ts.newGame(t)
	base := "/api/v1/games/" + g.GameID

	for _, m := range [][4]int{{5, 6, 5, 5}, {4, 1, 4, 3}, {6, 6, 6, 4}, {3, 0, 7, 4}} {
		status, body := ts.do(t, http.MethodPost, base+"/moves", "", moveBody(m[0], m[1], m[2], m[3]))
		expectStatus(t, status, http.StatusOK, body)
	}

	status, body := ts.do(t, http.MethodPost, base+"/moves", "", moveBody(0, 6, 0, 5))
	expectStatus(t, status, http.StatusConflict, body)
	if e := decode[core.ErrorResponse](t, body); e.Code != core.ErrGameOver {
		t.Fatalf("code: %+v", e)
	}
}

func TestQueryEndpoints(t *testing.T) {
	ts := newTestServer(t, false)
	g := ts.newGame(t)
	base := "/api/v1/games/" + g.GameID

	status, body := ts.do(t, http.MethodGet, base+"/legal?fromX=1&fromY=7&toX=2&toY=5", "", nil)
	expectStatus(t, status, http.StatusOK, body)
	if !decode[core.LegalResponse](t, body).Legal {
		t.Fatal("knight jump should be legal")
	}

	status, body = ts.do(t, http.MethodGet, base+"/legal?fromX=1&fromY=7&toX=1&toY=5", "", nil)
	expectStatus(t, status, http.StatusOK, body)
	if decode[core.LegalResponse](t, body).Legal {
		t.Fatal("knight push should be illegal")
	}

	status, body = ts.do(t, http.MethodGet, base+"/legal?fromX=1&fromY=7&toX=8&toY=5", "", nil)
	expectStatus(t, status, http.StatusBadRequest, body)

	// Missing coordinates are rejected rather than read as 0
	status, body = ts.do(t, http.MethodGet, base+"/legal?fromX=1&fromY=7", "", nil)
	expectStatus(t, status, http.StatusBadRequest, body)
	status, body = ts.do(t, http.MethodGet, base+"/legal", "", nil)
	expectStatus(t, status, http.StatusBadRequest, body)
	status, body = ts.do(t, http.MethodGet, base+"/destinations?x=6", "", nil)
	expectStatus(t, status, http.StatusBadRequest, body)
	status, body = ts.do(t, http.MethodGet, base+"/legal?fromX=0&fromY=0&toX=0&toY=1", "", nil)
	expectStatus(t, status, http.StatusOK, body)
	if decode[core.LegalResponse](t, body).Legal {
		t.Fatal("rook capturing its own pawn should be illegal")
	}

	status, body = ts.do(t, http.MethodGet, base+"/destinations?x=6&y=7", "", nil)
	expectStatus(t, status, http.StatusOK, body)
	d := decode[core.DestinationsResponse](t, body)
	if len(d.Destinations) != 2 {
		t.Fatalf("knight destinations: %+v", d)
	}

	status, body = ts.do(t, http.MethodGet, base+"/destinations?x=4&y=4", "", nil)
	expectStatus(t, status, http.StatusOK, body)
	if d := decode[core.DestinationsResponse](t, body); d.Destinations == nil || len(d.Destinations) != 0 {
		t.Fatalf("empty square destinations: %+v", d)
	}

	status, body = ts.do(t, http.MethodGet, base+"/perft?depth=2", "", nil)
	expectStatus(t, status, http.StatusOK, body)
	if p := decode[core.PerftResponse](t, body); p.Nodes != 400 {
		t.Fatalf("perft: %+v", p)
	}

	status, body = ts.do(t, http.MethodGet, base+"/perft?depth=9", "", nil)
	expectStatus(t, status, http.StatusBadRequest, body)
	status, body = ts.do(t, http.MethodGet, base+"/perft", "", nil)
	expectStatus(t, status, http.StatusBadRequest, body)
}

func TestLongPoll(t *testing.T) {
	ts := newTestServer(t, false)
	g := ts.newGame(t)
	base := "/api/v1/games/" + g.GameID

	// Stale count returns immediately
	status, body := ts.do(t, http.MethodGet, base+"?wait=true&moveCount=5", "", nil)
	expectStatus(t, status, http.StatusOK, body)

	go func() {
		time.Sleep(50 * time.Millisecond)
		ts.svc.ApplyMove(g.GameID, "", rules.NewMove(4, 6, 4, 4))
	}()

	status, body = ts.do(t, http.MethodGet, base+"?wait=true&moveCount=0", "", nil)
	expectStatus(t, status, http.StatusOK, body)
	if got := decode[core.GameResponse](t, body); got.MoveCount != 1 {
		t.Fatalf("long poll returned stale state: %+v", got)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, false)
	g := ts.newGame(t)

	limited := false
	for i := 0; i < rateLimitRate*2+5; i++ {
		status, _ := ts.doFrom(t, "192.0.2.1", http.MethodGet, "/api/v1/games/"+g.GameID, "", nil)
		if status == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("limiter never engaged")
	}
}

func TestAccountsWithoutStorage(t *testing.T) {
	ts := newTestServer(t, false)
	status, body := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"password": "password1",
	})
	expectStatus(t, status, http.StatusServiceUnavailable, body)

	status, body = ts.do(t, http.MethodPost, "/api/v1/games", "", map[string]string{"color": "w"})
	expectStatus(t, status, http.StatusUnauthorized, body)
}

func TestAuthAndSeats(t *testing.T) {
	ts := newTestServer(t, true)

	status, body := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "Alice",
		"password": "password1",
	})
	expectStatus(t, status, http.StatusCreated, body)
	alice := decode[AuthResponse](t, body)
	if alice.Username != "alice" || alice.Token == "" {
		t.Fatalf("register: %+v", alice)
	}

	status, body = ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"password": "password2",
	})
	expectStatus(t, status, http.StatusConflict, body)

	status, body = ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "bob",
		"password": "onlyletters",
	})
	expectStatus(t, status, http.StatusBadRequest, body)

	status, body = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"identifier": "alice",
		"password":   "wrong-password1",
	})
	expectStatus(t, status, http.StatusUnauthorized, body)

	status, body = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"identifier": "ALICE",
		"password":   "password1",
	})
	expectStatus(t, status, http.StatusOK, body)
	token := decode[AuthResponse](t, body).Token

	status, body = ts.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	expectStatus(t, status, http.StatusOK, body)
	if me := decode[UserResponse](t, body); me.UserID != alice.UserID || me.AccountType != storage.AccountTemp {
		t.Fatalf("me: %+v", me)
	}

	status, body = ts.do(t, http.MethodGet, "/api/v1/auth/me", "garbage", nil)
	expectStatus(t, status, http.StatusUnauthorized, body)

	// Alice takes white at creation; anonymous callers cannot move for her
	status, body = ts.do(t, http.MethodPost, "/api/v1/games", token, map[string]string{"color": "w"})
	expectStatus(t, status, http.StatusCreated, body)
	g := decode[core.GameResponse](t, body)
	if g.Players.White.UserID != alice.UserID {
		t.Fatalf("white owner: %+v", g.Players.White)
	}
	base := "/api/v1/games/" + g.GameID

	status, body = ts.do(t, http.MethodPost, base+"/moves", "", moveBody(4, 6, 4, 4))
	expectStatus(t, status, http.StatusForbidden, body)
	status, body = ts.do(t, http.MethodPost, base+"/moves", token, moveBody(4, 6, 4, 4))
	expectStatus(t, status, http.StatusOK, body)

	status, body = ts.do(t, http.MethodPut, base+"/players", "", map[string]string{"color": "b"})
	expectStatus(t, status, http.StatusUnauthorized, body)
	status, body = ts.do(t, http.MethodPut, base+"/players", token, map[string]string{"color": "x"})
	expectStatus(t, status, http.StatusBadRequest, body)

	status, body = ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "bob",
		"password": "password3",
	})
	expectStatus(t, status, http.StatusCreated, body)
	bob := decode[AuthResponse](t, body).Token

	status, body = ts.do(t, http.MethodPut, base+"/players", bob, map[string]string{"color": "w"})
	expectStatus(t, status, http.StatusConflict, body)
	status, body = ts.do(t, http.MethodPut, base+"/players", bob, map[string]string{"color": "b"})
	expectStatus(t, status, http.StatusOK, body)
	if g := decode[core.GameResponse](t, body); g.Players.Black.UserID == "" {
		t.Fatalf("black not claimed: %+v", g.Players.Black)
	}

	// Logging in again superseded the registration token
	status, body = ts.do(t, http.MethodGet, "/api/v1/auth/me", alice.Token, nil)
	expectStatus(t, status, http.StatusUnauthorized, body)

	status, body = ts.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	expectStatus(t, status, http.StatusNoContent, body)
	status, body = ts.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	expectStatus(t, status, http.StatusUnauthorized, body)
	status, body = ts.do(t, http.MethodPost, base+"/moves", token, moveBody(4, 1, 4, 3))
	expectStatus(t, status, http.StatusForbidden, body)
}

func (ts *testServer) register(t *testing.T, username string) AuthResponse {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"password": "password1",
	})
	expectStatus(t, status, http.StatusCreated, body)
	return decode[AuthResponse](t, body)
}

// rawAuth sends GET path with the Authorization header exactly as given
func (ts *testServer) rawAuth(t *testing.T, path, header string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.1.0.%d", clientSeq.Add(1)%250+1))
	resp, err := ts.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestBearerSchemes(t *testing.T) {
	ts := newTestServer(t, true)
	alice := ts.register(t, "alice")

	tests := []struct {
		name   string
		header string
		want   int
		errMsg string
	}{
		{name: "canonical", header: "Bearer " + alice.Token, want: http.StatusOK},
		{name: "lower case scheme", header: "bearer " + alice.Token, want: http.StatusOK},
		{name: "padded", header: "  Bearer   " + alice.Token + " ", want: http.StatusOK},
		{name: "missing", want: http.StatusUnauthorized, errMsg: "missing authorization token"},
		{name: "basic scheme", header: "Basic YWxpY2U6cGFzc3dvcmQx", want: http.StatusUnauthorized, errMsg: "malformed authorization header"},
		{name: "scheme only", header: "Bearer", want: http.StatusUnauthorized, errMsg: "malformed authorization header"},
		{name: "bad token", header: "Bearer not-a-jwt", want: http.StatusUnauthorized, errMsg: "invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.rawAuth(t, "/api/v1/auth/me", tt.header)
			if resp.StatusCode != tt.want {
				t.Fatalf("status: got %d want %d", resp.StatusCode, tt.want)
			}
			if tt.want != http.StatusUnauthorized {
				return
			}
			if got := resp.Header.Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("WWW-Authenticate = %q", got)
			}
			data, _ := io.ReadAll(resp.Body)
			e := decode[core.ErrorResponse](t, data)
			if e.Code != core.ErrUnauthorized || e.Error != tt.errMsg {
				t.Errorf("error body: %+v", e)
			}
		})
	}

	// A superseded session is reported as such rather than as a bad token
	status, body := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"identifier": "alice",
		"password":   "password1",
	})
	expectStatus(t, status, http.StatusOK, body)
	resp := ts.rawAuth(t, "/api/v1/auth/me", "Bearer "+alice.Token)
	data, _ := io.ReadAll(resp.Body)
	if e := decode[core.ErrorResponse](t, data); resp.StatusCode != http.StatusUnauthorized || e.Error != "session ended, log in again" {
		t.Fatalf("superseded token: %d %+v", resp.StatusCode, e)
	}
}

func TestMeReportsGameTally(t *testing.T) {
	ts := newTestServer(t, true)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")

	status, body := ts.do(t, http.MethodPost, "/api/v1/games", alice.Token, map[string]string{"color": "w"})
	expectStatus(t, status, http.StatusCreated, body)
	base := "/api/v1/games/" + decode[core.GameResponse](t, body).GameID
	status, body = ts.do(t, http.MethodPut, base+"/players", bob.Token, map[string]string{"color": "b"})
	expectStatus(t, status, http.StatusOK, body)

	// Fool's mate: black wins
	tokens := []string{alice.Token, bob.Token}
	for i, m := range [][4]int{{5, 6, 5, 5}, {4, 1, 4, 3}, {6, 6, 6, 4}, {3, 0, 7, 4}} {
		status, body := ts.do(t, http.MethodPost, base+"/moves", tokens[i%2], moveBody(m[0], m[1], m[2], m[3]))
		expectStatus(t, status, http.StatusOK, body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ts.store.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  storage.UserStats
	}{
		{"loser", alice.Token, storage.UserStats{Played: 1, Lost: 1}},
		{"winner", bob.Token, storage.UserStats{Played: 1, Won: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, http.MethodGet, "/api/v1/auth/me", tt.token, nil)
			expectStatus(t, status, http.StatusOK, body)
			me := decode[UserResponse](t, body)
			if me.Games == nil || *me.Games != tt.want {
				t.Fatalf("games: %+v want %+v", me.Games, tt.want)
			}
		})
	}
}
