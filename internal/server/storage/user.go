package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrUserExists   = errors.New("username or email already exists")
	ErrUserNotFound = errors.New("user not found")
)

// Final states as recorded in games.result
const (
	ResultWhiteWins = "white wins"
	ResultBlackWins = "black wins"
	ResultStalemate = "stalemate"
)

const userColumns = `user_id, username, email, password_hash, account_type, created_at, expires_at, last_login_at`

// UserCounts is the population of the users table by account type
type UserCounts struct {
	Total     int
	Permanent int
	Temp      int
}

// UserStats tallies the recorded games a user held a seat in
type UserStats struct {
	Played  int `json:"played"`
	Won     int `json:"won"`
	Lost    int `json:"lost"`
	Drawn   int `json:"drawn"`
	Ongoing int `json:"ongoing"`
}

// UserSummary is a user row together with its game tally
type UserSummary struct {
	UserRecord
	Stats UserStats
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser reads userColumns, followed by any extra destinations
func scanUser(row rowScanner, extra ...any) (*UserRecord, error) {
	var u UserRecord
	dest := append([]any{
		&u.UserID, &u.Username, &u.Email, &u.PasswordHash,
		&u.AccountType, &u.CreatedAt, &u.ExpiresAt, &u.LastLoginAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// statsColumns aggregates games joined on seat ownership by uid, an SQL
// expression naming the user.
func statsColumns(uid string) string {
	won := fmt.Sprintf(`(g.white_user_id = %[1]s AND g.result = '%[2]s') OR (g.black_user_id = %[1]s AND g.result = '%[3]s')`,
		uid, ResultWhiteWins, ResultBlackWins)
	lost := fmt.Sprintf(`(g.white_user_id = %[1]s AND g.result = '%[3]s') OR (g.black_user_id = %[1]s AND g.result = '%[2]s')`,
		uid, ResultWhiteWins, ResultBlackWins)
	return `COUNT(g.game_id),
		COALESCE(SUM(CASE WHEN ` + won + ` THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN ` + lost + ` THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN g.result = '` + ResultStalemate + `' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN g.result = '' THEN 1 ELSE 0 END), 0)`
}

func (st *UserStats) dest() []any {
	return []any{&st.Played, &st.Won, &st.Lost, &st.Drawn, &st.Ongoing}
}

// CreateUser inserts record; a username or email clash, compared without
// case, yields ErrUserExists.
func (s *Store) CreateUser(record UserRecord) error {
	_, err := s.db.Exec(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
		record.UserID, record.Username, record.Email, record.PasswordHash,
		record.AccountType, record.CreatedAt, record.ExpiresAt,
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return ErrUserExists
	}
	return err
}

func (s *Store) GetUserByID(userID string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID))
}

func (s *Store) GetUserByUsername(username string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username))
}

func (s *Store) GetUserByEmail(email string) (*UserRecord, error) {
	if email == "" {
		return nil, ErrUserNotFound
	}
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email))
}

// CountUsers returns the current population by account type
func (s *Store) CountUsers() (UserCounts, error) {
	var c UserCounts
	err := s.db.QueryRow(`SELECT
		COUNT(*),
		COALESCE(SUM(account_type = ?), 0),
		COALESCE(SUM(account_type = ?), 0)
	FROM users`, AccountPermanent, AccountTemp).Scan(&c.Total, &c.Permanent, &c.Temp)
	return c, err
}

// EvictOldestTempUser removes the longest-standing temporary account and
// returns it. ErrUserNotFound means there was none to evict.
func (s *Store) EvictOldestTempUser() (*UserRecord, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	oldest, err := scanUser(tx.QueryRow(`SELECT `+userColumns+` FROM users
		WHERE account_type = ? ORDER BY created_at ASC LIMIT 1`, AccountTemp))
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`DELETE FROM users WHERE user_id = ?`, oldest.UserID); err != nil {
		return nil, err
	}
	return oldest, tx.Commit()
}

// PruneExpiredUsers removes temporary accounts whose expiry is before now
func (s *Store) PruneExpiredUsers(now time.Time) (int64, error) {
	return s.execCount(`DELETE FROM users WHERE account_type = ? AND expires_at < ?`, AccountTemp, now)
}

// PromoteToPermanent clears the expiry of a temporary account
func (s *Store) PromoteToPermanent(userID string) error {
	n, err := s.execCount(`UPDATE users SET account_type = ?, expires_at = NULL WHERE user_id = ?`,
		AccountPermanent, userID)
	if err == nil && n == 0 {
		return ErrUserNotFound
	}
	return err
}

// TouchLastLogin queues the login timestamp update
func (s *Store) TouchLastLogin(userID string, at time.Time) error {
	return s.enqueue("last login", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE users SET last_login_at = ? WHERE user_id = ?`, at, userID)
		return err
	})
}

// DeleteUser queues removal of a user; its session goes with it
func (s *Store) DeleteUser(userID string) error {
	return s.enqueue("user deletion", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM users WHERE user_id = ?`, userID)
		return err
	})
}

// UserGameStats tallies the games in which userID held either seat
func (s *Store) UserGameStats(userID string) (UserStats, error) {
	var st UserStats
	err := s.db.QueryRow(`SELECT `+statsColumns("@uid")+`
		FROM games g WHERE g.white_user_id = @uid OR g.black_user_id = @uid`,
		sql.Named("uid", userID),
	).Scan(st.dest()...)
	return st, err
}

// ListUsers returns every user, newest first, with their game tallies
func (s *Store) ListUsers() ([]UserSummary, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + `, ` + statsColumns("u.user_id") + `
		FROM users u
		LEFT JOIN games g ON g.white_user_id = u.user_id OR g.black_user_id = u.user_id
		GROUP BY u.user_id
		ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var users []UserSummary
	for rows.Next() {
		var sum UserSummary
		u, err := scanUser(rows, sum.Stats.dest()...)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		sum.UserRecord = *u
		users = append(users, sum)
	}
	return users, rows.Err()
}

func (s *Store) execCount(query string, args ...any) (int64, error) {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
