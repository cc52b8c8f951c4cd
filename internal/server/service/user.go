package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"chessrules/internal/server/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = storage.ErrUserNotFound
	ErrUserLimit          = errors.New("user limit reached")
	ErrSessionExpired     = errors.New("session expired or logged out")
)

// User represents a registered user account
type User struct {
	UserID      string
	Username    string
	Email       string
	AccountType string
	CreatedAt   time.Time
	ExpiresAt   *time.Time
}

// CreateUser registers an account. Temporary accounts expire after
// TempUserTTL; when the user table is full the oldest temporary account is
// evicted to make room.
func (s *Service) CreateUser(username, email, password string, permanent bool) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	if err := s.ensureCapacity(permanent); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.generateUniqueUserID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate unique ID: %w", err)
	}

	record := storage.UserRecord{
		UserID:       userID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		AccountType:  storage.AccountTemp,
		CreatedAt:    time.Now().UTC(),
	}
	if permanent {
		record.AccountType = storage.AccountPermanent
	} else {
		expires := record.CreatedAt.Add(TempUserTTL)
		record.ExpiresAt = &expires
	}

	if err = s.store.CreateUser(record); err != nil {
		return nil, err
	}

	return userFromRecord(&record), nil
}

func (s *Service) ensureCapacity(permanent bool) error {
	counts, err := s.store.CountUsers()
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if permanent && counts.Permanent >= PermanentSlots {
		return fmt.Errorf("%w: no permanent slots left", ErrUserLimit)
	}
	if counts.Total < MaxUsers {
		return nil
	}

	evicted, err := s.store.EvictOldestTempUser()
	if err != nil {
		return fmt.Errorf("%w: %d users", ErrUserLimit, counts.Total)
	}
	log.Printf("User limit reached, evicted temporary user %s", evicted.Username)
	return nil
}

// AuthenticateUser verifies user credentials and returns user information
func (s *Service) AuthenticateUser(identifier, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	var (
		record *storage.UserRecord
		err    error
	)
	if strings.Contains(identifier, "@") {
		record, err = s.store.GetUserByEmail(identifier)
	} else {
		record, err = s.store.GetUserByUsername(identifier)
	}

	if err != nil {
		// Hash anyway so unknown users cost the same as wrong passwords
		auth.HashPassword(password)
		return nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(password, record.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return userFromRecord(record), nil
}

// UpdateLastLogin updates the last login timestamp for a user
func (s *Service) UpdateLastLogin(userID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	return s.store.TouchLastLogin(userID, time.Now().UTC())
}

// GetUserByID retrieves user information by user ID
func (s *Service) GetUserByID(userID string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	record, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	return userFromRecord(record), nil
}

// GenerateUserToken starts a new session for the user, replacing any
// previous one, and returns a JWT bound to it.
func (s *Service) GenerateUserToken(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	session := storage.SessionRecord{
		SessionID: uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(TokenTTL),
	}
	if err := s.store.CreateSession(session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	claims := map[string]any{
		"username": user.Username,
		"email":    user.Email,
		"sid":      session.SessionID,
	}

	return auth.GenerateHS256Token(s.jwtSecret, userID, claims, TokenTTL)
}

// ValidateToken verifies the JWT and that it belongs to the user's current
// session. It returns the user ID with the token claims.
func (s *Service) ValidateToken(token string) (string, map[string]any, error) {
	userID, claims, err := auth.ValidateHS256Token(s.jwtSecret, token)
	if err != nil {
		return "", nil, err
	}
	if s.store == nil {
		return "", nil, ErrStorageDisabled
	}

	session, err := s.store.ActiveSession(userID, time.Now().UTC())
	if err != nil {
		return "", nil, ErrSessionExpired
	}
	// Tokens without a session id predate sessions or were minted elsewhere
	if sid, ok := claims["sid"].(string); !ok || sid != session.SessionID {
		return "", nil, ErrSessionExpired
	}
	return userID, claims, nil
}

// Logout ends the user's session; every token issued for it stops validating.
func (s *Service) Logout(userID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	_, err := s.store.EndSession(userID)
	return err
}

// GetUserStats tallies the recorded games in which the user held a seat
func (s *Service) GetUserStats(userID string) (storage.UserStats, error) {
	if s.store == nil {
		return storage.UserStats{}, ErrStorageDisabled
	}
	return s.store.UserGameStats(userID)
}

func userFromRecord(r *storage.UserRecord) *User {
	return &User{
		UserID:      r.UserID,
		Username:    r.Username,
		Email:       r.Email,
		AccountType: r.AccountType,
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
	}
}

// generateUniqueUserID creates a unique user ID with collision detection
func (s *Service) generateUniqueUserID() (string, error) {
	const maxAttempts = 10

	for i := 0; i < maxAttempts; i++ {
		id := uuid.New().String()
		_, err := s.store.GetUserByID(id)
		if errors.Is(err, ErrUserNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("failed to generate unique ID after %d attempts", maxAttempts)
}
