// Package api is a thin, chatty HTTP client for the chess rules server.
// Every request and its status are echoed to Out.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"chessrules/internal/client/display"
)

// StatusError is returned for any response with status >= 400
type StatusError struct {
	Status int
	Body   ErrorResponse
}

func (e *StatusError) Error() string {
	if e.Body.Code != "" {
		return fmt.Sprintf("request failed with status %d (%s)", e.Status, e.Body.Code)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

type Client struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
	Verbose    bool
	Out        io.Writer
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		// Long-poll requests are held up to 25s by the server
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Out:        os.Stdout,
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

// SetBaseURL updates the API base URL for the client
func (c *Client) SetBaseURL(u string) {
	c.BaseURL = strings.TrimRight(u, "/")
}

func (c *Client) SetToken(token string) {
	c.AuthToken = token
}

func (c *Client) doRequest(method, path string, body any, result any) error {
	var bodyReader io.Reader
	var bodyJSON []byte
	if body != nil {
		var err error
		bodyJSON, err = json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(bodyJSON)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	fmt.Fprintf(c.Out, "\n%s\n", display.Request(fmt.Sprintf("[API] %s %s", method, path)))
	if len(bodyJSON) > 0 {
		if c.Verbose {
			fmt.Fprintf(c.Out, "%s\n%s\n", display.Info("Request Body:"), indent(bodyJSON))
		} else {
			fmt.Fprintln(c.Out, display.Request(string(bodyJSON)))
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		fmt.Fprintln(c.Out, display.Error("[ERROR] "+err.Error()))
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	status := fmt.Sprintf("[%d %s]", resp.StatusCode, http.StatusText(resp.StatusCode))
	if resp.StatusCode >= 400 {
		fmt.Fprintln(c.Out, display.Error(status))
	} else {
		fmt.Fprintln(c.Out, display.Success(status))
	}
	if c.Verbose && len(respBody) > 0 {
		fmt.Fprintf(c.Out, "%s\n%s\n", display.Info("Response Body:"), indent(respBody))
	}

	if resp.StatusCode >= 400 {
		statusErr := &StatusError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, &statusErr.Body); err != nil {
			statusErr.Body.Error = strings.TrimSpace(string(respBody))
		}
		if !c.Verbose {
			fmt.Fprintln(c.Out, display.Error("Error: "+statusErr.Body.Error))
			if statusErr.Body.Details != "" {
				fmt.Fprintln(c.Out, display.Error("Details: "+statusErr.Body.Details))
			}
		}
		return statusErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			fmt.Fprintln(c.Out, display.Error("Response parse error: "+err.Error()))
			return err
		}
	}
	return nil
}

// indent pretty-prints JSON, falling back to the raw bytes
func indent(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func gamePath(gameID, suffix string) string {
	return "/api/v1/games/" + url.PathEscape(gameID) + suffix
}

// API Methods

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest(http.MethodGet, "/health", nil, &resp)
	return &resp, err
}

func (c *Client) CreateGame(req *CreateGameRequest) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest(http.MethodPost, "/api/v1/games", req, &resp)
	return &resp, err
}

func (c *Client) GetGame(gameID string) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest(http.MethodGet, gamePath(gameID, ""), nil, &resp)
	return &resp, err
}

// GetGameWithPoll blocks until the game's move count differs from moveCount
// or the server's wait timeout passes.
func (c *Client) GetGameWithPoll(gameID string, moveCount int) (*GameResponse, error) {
	var resp GameResponse
	path := gamePath(gameID, fmt.Sprintf("?wait=true&moveCount=%d", moveCount))
	err := c.doRequest(http.MethodGet, path, nil, &resp)
	return &resp, err
}

func (c *Client) DeleteGame(gameID string) error {
	return c.doRequest(http.MethodDelete, gamePath(gameID, ""), nil, nil)
}

func (c *Client) ClaimSlot(gameID, color string) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest(http.MethodPut, gamePath(gameID, "/players"), &ClaimSlotRequest{Color: color}, &resp)
	return &resp, err
}

func (c *Client) MakeMove(gameID string, req *MoveRequest) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest(http.MethodPost, gamePath(gameID, "/moves"), req, &resp)
	return &resp, err
}

func (c *Client) GetBoard(gameID string) (*BoardResponse, error) {
	var resp BoardResponse
	err := c.doRequest(http.MethodGet, gamePath(gameID, "/board"), nil, &resp)
	return &resp, err
}

func (c *Client) CheckMove(gameID string, fx, fy, tx, ty int) (*LegalResponse, error) {
	var resp LegalResponse
	q := url.Values{}
	q.Set("fromX", fmt.Sprint(fx))
	q.Set("fromY", fmt.Sprint(fy))
	q.Set("toX", fmt.Sprint(tx))
	q.Set("toY", fmt.Sprint(ty))
	err := c.doRequest(http.MethodGet, gamePath(gameID, "/legal?"+q.Encode()), nil, &resp)
	return &resp, err
}

func (c *Client) GetDestinations(gameID string, x, y int) (*DestinationsResponse, error) {
	var resp DestinationsResponse
	path := gamePath(gameID, fmt.Sprintf("/destinations?x=%d&y=%d", x, y))
	err := c.doRequest(http.MethodGet, path, nil, &resp)
	return &resp, err
}

func (c *Client) Perft(gameID string, depth int) (*PerftResponse, error) {
	var resp PerftResponse
	err := c.doRequest(http.MethodGet, gamePath(gameID, fmt.Sprintf("/perft?depth=%d", depth)), nil, &resp)
	return &resp, err
}

func (c *Client) Register(username, password, email string) (*AuthResponse, error) {
	req := &RegisterRequest{
		Username: username,
		Password: password,
		Email:    email,
	}
	var resp AuthResponse
	err := c.doRequest(http.MethodPost, "/api/v1/auth/register", req, &resp)
	return &resp, err
}

func (c *Client) Login(identifier, password string) (*AuthResponse, error) {
	req := &LoginRequest{
		Identifier: identifier,
		Password:   password,
	}
	var resp AuthResponse
	err := c.doRequest(http.MethodPost, "/api/v1/auth/login", req, &resp)
	return &resp, err
}

func (c *Client) GetCurrentUser() (*UserResponse, error) {
	var resp UserResponse
	err := c.doRequest(http.MethodGet, "/api/v1/auth/me", nil, &resp)
	return &resp, err
}

// Logout ends the server-side session of the current token
func (c *Client) Logout() error {
	return c.doRequest(http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

// RawRequest performs a raw HTTP request for debugging purposes
func (c *Client) RawRequest(method, path string, body string) error {
	var bodyData any
	if body != "" {
		if err := json.Unmarshal([]byte(body), &bodyData); err != nil {
			bodyData = body
		}
	}
	return c.doRequest(method, path, bodyData, nil)
}
