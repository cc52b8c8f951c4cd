package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chessrules/internal/server/core"
	"chessrules/internal/server/processor"
	"chessrules/internal/server/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc, svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", h.Health)

	api := app.Group("/api/v1")
	validateToken := svc.ValidateToken

	auth := api.Group("/auth")
	auth.Post("/register", perMinuteLimit(5, "registrations"), h.RegisterHandler)
	auth.Post("/login", perMinuteLimit(10, "login attempts"), h.LoginHandler)
	auth.Get("/me", AuthRequired(validateToken), h.GetCurrentUserHandler)
	auth.Post("/logout", AuthRequired(validateToken), h.LogoutHandler)

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:          maxReq,
		Expiration:   1 * time.Second,
		KeyGenerator: clientKey,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Post("/games", OptionalAuth(validateToken), h.CreateGame)
	api.Get("/games/:gameId", h.GetGame)
	api.Delete("/games/:gameId", h.DeleteGame)
	api.Put("/games/:gameId/players", AuthRequired(validateToken), h.ClaimSlot)
	api.Post("/games/:gameId/moves", OptionalAuth(validateToken), h.MakeMove)
	api.Get("/games/:gameId/board", h.GetBoard)
	api.Get("/games/:gameId/legal", h.CheckMove)
	api.Get("/games/:gameId/destinations", h.GetDestinations)
	api.Get("/games/:gameId/perft", h.Perft)

	return app
}

// perMinuteLimit builds a per-IP limiter for the auth endpoints
func perMinuteLimit(max int, what string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d %s per minute allowed", max, what),
			})
		},
	})
}

// clientKey prefers the first X-Forwarded-For hop over the peer address
func clientKey(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	return c.IP()
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	var re *requestError
	if errors.As(err, &re) {
		return c.Status(re.status).JSON(re.body)
	}

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// statusFor maps an API error code onto an HTTP status
func statusFor(code string) int {
	switch code {
	case core.ErrGameNotFound:
		return fiber.StatusNotFound
	case core.ErrUnauthorized:
		return fiber.StatusUnauthorized
	case core.ErrNotYourTurn:
		return fiber.StatusForbidden
	case core.ErrGameOver, core.ErrSlotTaken:
		return fiber.StatusConflict
	case core.ErrResourceLimit, core.ErrRateLimitExceeded:
		return fiber.StatusTooManyRequests
	case core.ErrTimeout:
		return fiber.StatusGatewayTimeout
	case core.ErrStorageDisabled:
		return fiber.StatusServiceUnavailable
	case core.ErrInternalError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

// respond writes a processor response, using okStatus on success
func respond(c *fiber.Ctx, resp processor.ProcessorResponse, okStatus int) error {
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}
	if resp.Data == nil {
		return c.SendStatus(okStatus)
	}
	return c.Status(okStatus).JSON(resp.Data)
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"games":   h.svc.GameCount(),
		"storage": h.svc.GetStorageHealth(),
	})
}

// CreateGame starts a game, optionally seating the caller
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, err := validatedBody[core.CreateGameRequest](c)
	if err != nil {
		return err
	}

	userID := callerID(c)
	resp := h.proc.Execute(processor.NewCreateGameCommand(userID, *req))
	return respond(c, resp, fiber.StatusCreated)
}

// ClaimSlot binds a color of the game to the authenticated caller
func (h *HTTPHandler) ClaimSlot(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	req, err := validatedBody[core.ClaimSlotRequest](c)
	if err != nil {
		return err
	}

	userID := callerID(c)
	resp := h.proc.Execute(processor.NewClaimSlotCommand(gameID, userID, *req))
	return respond(c, resp, fiber.StatusOK)
}

// GetGame retrieves current game state, optionally long-polling for a change
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}

	if c.Query("wait", "false") != "true" {
		return respond(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
	}

	moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
	if err != nil {
		moveCount = -1
	}

	ctx := c.Context()
	notify, err := h.svc.WaitForMove(ctx, gameID, moveCount)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "game not found",
			Code:  core.ErrGameNotFound,
		})
	}
	if notify == nil {
		return respond(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
	}

	select {
	case <-notify:
		// Changed, timed out, or deleted; report whatever is there now
		return respond(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
	case <-ctx.Done():
		return nil
	}
}

// MakeMove submits a coordinate move
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	req, err := validatedBody[core.MoveRequest](c)
	if err != nil {
		return err
	}

	userID := callerID(c)
	resp := h.proc.Execute(processor.NewMakeMoveCommand(gameID, userID, *req))
	return respond(c, resp, fiber.StatusOK)
}

// DeleteGame ends and cleans up a game
func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	return respond(c, h.proc.Execute(processor.NewDeleteGameCommand(gameID)), fiber.StatusNoContent)
}

// GetBoard returns the text diagram of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	return respond(c, h.proc.Execute(processor.NewGetBoardCommand(gameID)), fiber.StatusOK)
}

// CheckMove reports whether a move would be legal for the side to move
func (h *HTTPHandler) CheckMove(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	q, err := validatedQuery[core.LegalQuery](c)
	if err != nil {
		return err
	}
	return respond(c, h.proc.Execute(processor.NewCheckMoveCommand(gameID, *q)), fiber.StatusOK)
}

// GetDestinations lists the legal destinations of the piece on a square
func (h *HTTPHandler) GetDestinations(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	q, err := validatedQuery[core.DestinationsQuery](c)
	if err != nil {
		return err
	}
	return respond(c, h.proc.Execute(processor.NewGetDestinationsCommand(gameID, *q)), fiber.StatusOK)
}

// Perft counts leaf nodes of the legal move tree from the current position
func (h *HTTPHandler) Perft(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	q, err := validatedQuery[core.PerftQuery](c)
	if err != nil {
		return err
	}
	return respond(c, h.proc.Execute(processor.NewPerftCommand(gameID, *q)), fiber.StatusOK)
}
