package http

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"chessrules/internal/server/core"
	"chessrules/internal/server/service"
	"chessrules/internal/server/storage"

	"github.com/gofiber/fiber/v2"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{1,40}$`)

// RegisterRequest defines the user registration payload
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=40"`
	Email    string `json:"email" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest defines the authentication payload
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"` // username or email
	Password   string `json:"password" validate:"required"`
}

// AuthResponse contains JWT token and user information
type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserResponse contains current user information
type UserResponse struct {
	UserID      string             `json:"userId"`
	Username    string             `json:"username"`
	Email       string             `json:"email,omitempty"`
	AccountType string             `json:"accountType"`
	CreatedAt   time.Time          `json:"createdAt"`
	ExpiresAt   *time.Time         `json:"expiresAt,omitempty"`
	Games       *storage.UserStats `json:"games,omitempty"`
}

// RegisterHandler creates a temporary user account and logs it in
func (h *HTTPHandler) RegisterHandler(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body", err.Error())
	}
	if err := validateStruct(&req); err != nil {
		return err
	}

	if !usernameRegex.MatchString(req.Username) {
		return badRequest("invalid username format", "username must be 1-40 characters, alphanumeric and underscore only")
	}
	if req.Email != "" && !emailRegex.MatchString(req.Email) {
		return badRequest("invalid email format", "email must be a valid email address")
	}
	if err := validatePassword(req.Password); err != nil {
		return badRequest("weak password", err.Error())
	}

	// Normalize for case-insensitive storage
	req.Username = strings.ToLower(req.Username)
	req.Email = strings.ToLower(req.Email)

	user, err := h.svc.CreateUser(req.Username, req.Email, req.Password, false)
	switch {
	case errors.Is(err, storage.ErrUserExists):
		return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
			Error:   "user already exists",
			Code:    core.ErrInvalidRequest,
			Details: "username or email already taken",
		})
	case errors.Is(err, service.ErrStorageDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(core.ErrorResponse{
			Error: "accounts require storage",
			Code:  core.ErrStorageDisabled,
		})
	case errors.Is(err, service.ErrUserLimit):
		return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
			Error: "user limit reached",
			Code:  core.ErrResourceLimit,
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to create user",
			Code:  core.ErrInternalError,
		})
	}

	return h.issueToken(c, fiber.StatusCreated, user)
}

// validatePassword requires at least one letter and one number
func validatePassword(password string) error {
	const (
		minPasswordLength = 8
		maxPasswordLength = 128
	)
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLength)
	}

	hasLetter, hasNumber := false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsNumber(r):
			hasNumber = true
		}
	}
	if !hasLetter || !hasNumber {
		return fmt.Errorf("password must contain at least one letter and one number")
	}
	return nil
}

// LoginHandler authenticates user and returns JWT token
func (h *HTTPHandler) LoginHandler(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body", err.Error())
	}
	if err := validateStruct(&req); err != nil {
		return err
	}

	user, err := h.svc.AuthenticateUser(strings.ToLower(req.Identifier), req.Password)
	if errors.Is(err, service.ErrStorageDisabled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(core.ErrorResponse{
			Error: "accounts require storage",
			Code:  core.ErrStorageDisabled,
		})
	}
	if err != nil {
		// Same answer for unknown user and bad password
		return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
			Error: "invalid credentials",
			Code:  core.ErrUnauthorized,
		})
	}

	_ = h.svc.UpdateLastLogin(user.UserID)

	return h.issueToken(c, fiber.StatusOK, user)
}

func (h *HTTPHandler) issueToken(c *fiber.Ctx, status int, user *service.User) error {
	token, err := h.svc.GenerateUserToken(user.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to generate token",
			Code:  core.ErrInternalError,
		})
	}

	return c.Status(status).JSON(AuthResponse{
		Token:     token,
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(service.TokenTTL),
	})
}

// GetCurrentUserHandler returns the authenticated user and their game tally
func (h *HTTPHandler) GetCurrentUserHandler(c *fiber.Ctx) error {
	user, err := h.svc.GetUserByID(callerID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "user not found",
			Code:  core.ErrInvalidRequest,
		})
	}

	resp := UserResponse{
		UserID:      user.UserID,
		Username:    user.Username,
		Email:       user.Email,
		AccountType: user.AccountType,
		CreatedAt:   user.CreatedAt,
		ExpiresAt:   user.ExpiresAt,
	}
	if stats, err := h.svc.GetUserStats(user.UserID); err == nil {
		resp.Games = &stats
	}
	return c.JSON(resp)
}

// LogoutHandler ends the caller's session
func (h *HTTPHandler) LogoutHandler(c *fiber.Ctx) error {
	userID := callerID(c)
	if err := h.svc.Logout(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to end session",
			Code:  core.ErrInternalError,
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
