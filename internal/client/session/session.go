// Package session holds the client REPL's mutable state between commands.
package session

import "chessrules/internal/client/api"

type Session struct {
	APIBaseURL    string
	Client        *api.Client
	AuthToken     string
	UserID        string
	Username      string
	CurrentGame   string
	LastMoveCount int
	GameState     *api.GameResponse
	PlayerColor   string // "w", "b" or "" when not seated
	Verbose       bool
}

func New(baseURL string) *Session {
	return &Session{
		APIBaseURL: baseURL,
		Client:     api.New(baseURL),
	}
}

func (s *Session) GetAPIBaseURL() string { return s.APIBaseURL }

func (s *Session) SetAPIBaseURL(u string) {
	s.APIBaseURL = u
	s.Client.SetBaseURL(u)
}

func (s *Session) GetClient() *api.Client { return s.Client }
func (s *Session) IsVerbose() bool        { return s.Verbose }

func (s *Session) GetCurrentGame() string { return s.CurrentGame }

// SetCurrentGame switches games and forgets the previous game's state
func (s *Session) SetCurrentGame(id string) {
	if id != s.CurrentGame {
		s.GameState = nil
		s.PlayerColor = ""
		s.LastMoveCount = 0
	}
	s.CurrentGame = id
}

func (s *Session) GetUserID() string    { return s.UserID }
func (s *Session) GetUsername() string  { return s.Username }
func (s *Session) GetAuthToken() string { return s.AuthToken }

// SetAuth records the logged-in user; empty values log out
func (s *Session) SetAuth(token, userID, username string) {
	s.AuthToken = token
	s.UserID = userID
	s.Username = username
	s.Client.SetToken(token)
	s.updatePlayerColor()
}

func (s *Session) GetLastMoveCount() int           { return s.LastMoveCount }
func (s *Session) GetGameState() *api.GameResponse { return s.GameState }
func (s *Session) GetPlayerColor() string          { return s.PlayerColor }

// SetGameState stores the latest game snapshot and derives move count and
// the caller's seat from it.
func (s *Session) SetGameState(g *api.GameResponse) {
	s.GameState = g
	if g == nil {
		return
	}
	s.LastMoveCount = g.MoveCount
	s.updatePlayerColor()
}

func (s *Session) updatePlayerColor() {
	s.PlayerColor = ""
	if s.GameState == nil || s.UserID == "" {
		return
	}
	switch s.UserID {
	case s.GameState.Players.White.UserID:
		s.PlayerColor = "w"
	case s.GameState.Players.Black.UserID:
		s.PlayerColor = "b"
	}
}
