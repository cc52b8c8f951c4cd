package storage

import (
	"database/sql"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("no active session")

// CreateSession makes record the user's only session. An older session of
// the same user is overwritten in place, which invalidates its tokens.
func (s *Store) CreateSession(record SessionRecord) error {
	_, err := s.db.Exec(`INSERT INTO sessions (session_id, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			session_id = excluded.session_id,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		record.SessionID, record.UserID, record.CreatedAt, record.ExpiresAt,
	)
	return err
}

// ActiveSession returns the session of userID unless there is none or it
// expired before now.
func (s *Store) ActiveSession(userID string, now time.Time) (*SessionRecord, error) {
	var rec SessionRecord
	err := s.db.QueryRow(`SELECT session_id, user_id, created_at, expires_at FROM sessions WHERE user_id = ?`, userID).
		Scan(&rec.SessionID, &rec.UserID, &rec.CreatedAt, &rec.ExpiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrSessionNotFound
	case err != nil:
		return nil, err
	case now.After(rec.ExpiresAt):
		return nil, ErrSessionNotFound
	}
	return &rec, nil
}

// EndSession removes the session of userID and reports whether one existed
func (s *Store) EndSession(userID string) (bool, error) {
	n, err := s.execCount(`DELETE FROM sessions WHERE user_id = ?`, userID)
	return n > 0, err
}

// PruneExpiredSessions removes sessions whose expiry is before now
func (s *Store) PruneExpiredSessions(now time.Time) (int64, error) {
	return s.execCount(`DELETE FROM sessions WHERE expires_at < ?`, now)
}
