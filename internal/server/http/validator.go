package http

import (
	"fmt"
	"reflect"
	"strings"

	"chessrules/internal/server/core"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

// requestError is returned by handlers when the request itself is at fault;
// customErrorHandler renders it.
type requestError struct {
	status int
	body   core.ErrorResponse
}

func (e *requestError) Error() string { return e.body.Error }

func badRequest(msg, details string) error {
	return &requestError{
		status: fiber.StatusBadRequest,
		body:   core.ErrorResponse{Error: msg, Code: core.ErrInvalidRequest, Details: details},
	}
}

// validationMiddleware parses and validates JSON bodies of the game routes
func validationMiddleware(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodGet || method == fiber.MethodDelete || method == fiber.MethodOptions {
		return c.Next()
	}

	path := c.Path()
	var requestType any

	switch {
	case strings.HasSuffix(path, "/games") && method == fiber.MethodPost:
		requestType = &core.CreateGameRequest{}
	case strings.HasSuffix(path, "/players") && method == fiber.MethodPut:
		requestType = &core.ClaimSlotRequest{}
	case strings.HasSuffix(path, "/moves") && method == fiber.MethodPost:
		requestType = &core.MoveRequest{}
	default:
		return c.Next()
	}

	// An empty body is a valid create request
	if len(c.Body()) > 0 {
		if err := c.BodyParser(requestType); err != nil {
			return badRequest("invalid request body", err.Error())
		}
	}

	if err := validateStruct(requestType); err != nil {
		return err
	}

	c.Locals("validatedBody", requestType)
	c.Locals("validated", true)

	return c.Next()
}

// validateStruct runs the struct tags and renders failures as one message
func validateStruct(v any) error {
	errs := validate.Struct(v)
	if errs == nil {
		return nil
	}
	verrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		return badRequest("validation failed", errs.Error())
	}

	var details strings.Builder
	for _, err := range verrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch err.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", err.Field()))
		case "oneof":
			details.WriteString(fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param()))
		case "min":
			if err.Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at least %s", err.Field(), err.Param()))
			}
		case "max":
			if err.Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at most %s", err.Field(), err.Param()))
			}
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag()))
		}
	}

	return badRequest("validation failed", details.String())
}

// validatedBody fetches the body stored by validationMiddleware
func validatedBody[T any](c *fiber.Ctx) (*T, error) {
	validated, ok := c.Locals("validated").(bool)
	if !ok || !validated {
		return nil, &requestError{
			status: fiber.StatusInternalServerError,
			body:   core.ErrorResponse{Error: "validation bypass detected", Code: core.ErrInternalError},
		}
	}
	body, ok := c.Locals("validatedBody").(*T)
	if !ok || body == nil {
		return nil, &requestError{
			status: fiber.StatusInternalServerError,
			body:   core.ErrorResponse{Error: "validation data missing", Code: core.ErrInternalError},
		}
	}
	return body, nil
}

// validatedQuery parses and validates the query string into T
func validatedQuery[T any](c *fiber.Ctx) (*T, error) {
	q := new(T)
	if err := c.QueryParser(q); err != nil {
		return nil, badRequest("invalid query", err.Error())
	}
	if err := validateStruct(q); err != nil {
		return nil, err
	}
	return q, nil
}

// gameIDParam returns the :gameId path parameter if it is a UUID
func gameIDParam(c *fiber.Ctx) (string, error) {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return "", badRequest("invalid game ID format", "game ID must be a valid UUID")
	}
	return gameID, nil
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
