package http

import (
	"errors"
	"strings"

	"chessrules/internal/server/core"
	"chessrules/internal/server/service"

	"github.com/gofiber/fiber/v2"
)

// localUserID is the Locals key carrying the authenticated user
const localUserID = "userID"

// TokenValidator validates JWT tokens
type TokenValidator func(token string) (userID string, claims map[string]any, err error)

func unauthorized(msg string) error {
	return &requestError{
		status: fiber.StatusUnauthorized,
		body:   core.ErrorResponse{Error: msg, Code: core.ErrUnauthorized},
	}
}

// bearerToken extracts the credential from an Authorization header. The
// scheme is matched without case. present is false when there is no header.
func bearerToken(header string) (token string, present bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	scheme, cred, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(cred), true
}

// authenticate resolves the caller of c. A request without credentials is
// anonymous and returns "" and no error.
func authenticate(c *fiber.Ctx, validate TokenValidator) (string, error) {
	token, present := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !present {
		return "", nil
	}
	if token == "" {
		return "", unauthorized("malformed authorization header")
	}

	userID, _, err := validate(token)
	switch {
	case errors.Is(err, service.ErrSessionExpired):
		return "", unauthorized("session ended, log in again")
	case err != nil:
		return "", unauthorized("invalid or expired token")
	}
	return userID, nil
}

// AuthRequired rejects requests that do not carry a valid bearer token
func AuthRequired(validate TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := authenticate(c, validate)
		if err == nil && userID == "" {
			err = unauthorized("missing authorization token")
		}
		if err != nil {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return err
		}
		c.Locals(localUserID, userID)
		return c.Next()
	}
}

// OptionalAuth records the caller when a valid token is present; a bad or
// missing token leaves the request anonymous.
func OptionalAuth(validate TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, err := authenticate(c, validate); err == nil && userID != "" {
			c.Locals(localUserID, userID)
		}
		return c.Next()
	}
}

// callerID returns the user authenticated for c, or "" for anonymous callers
func callerID(c *fiber.Ctx) string {
	userID, _ := c.Locals(localUserID).(string)
	return userID
}
