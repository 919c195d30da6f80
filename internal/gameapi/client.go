// Package gameapi is a typed client for the remote Purelands game service.
//
// The service owns game state, rounds, agents, messages, thoughts and deals;
// this package only maps requests and responses. A Client is constructed
// explicitly with the service base address and passed to whoever needs it.
package gameapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrMissingBaseURL is returned by New when no service address is configured.
var ErrMissingBaseURL = errors.New("API URL is required")

// ErrMissingGameID is returned before any request is sent when an operation
// needs a game identifier and none was given.
var ErrMissingGameID = errors.New("game ID is required")

// APIError is a non-2xx response from the service. Its message is the
// service's human-readable detail string, verbatim.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return "API request failed"
	}
	return e.Detail
}

// TransportError is a request that never produced an HTTP response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsNetworkFailure reports whether err came from a rejected request or a
// non-2xx response.
func IsNetworkFailure(err error) bool {
	var apiErr *APIError
	var tErr *TransportError
	return errors.As(err, &apiErr) || errors.As(err, &tErr)
}

// Client talks to one game service.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit throttles outbound requests. rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse API URL %q: %w", baseURL, err)
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service address the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// CreateGame submits a ticket price and agent roster and returns the new game id.
func (c *Client) CreateGame(ctx context.Context, cfg GameConfig) (GameResponse, error) {
	var out GameResponse
	err := c.do(ctx, http.MethodPost, "/game/create", cfg, &out)
	return out, err
}

// ListGames returns every game known to the service.
func (c *Client) ListGames(ctx context.Context) ([]Game, error) {
	var out []Game
	err := c.do(ctx, http.MethodGet, "/games", nil, &out)
	return out, err
}

// ResetGame resets a game to its initial state.
func (c *Client) ResetGame(ctx context.Context, gameID string) (GameResponse, error) {
	var out GameResponse
	if gameID == "" {
		return out, ErrMissingGameID
	}
	err := c.do(ctx, http.MethodPost, "/game/"+url.PathEscape(gameID)+"/reset", nil, &out)
	return out, err
}

// ProgressRound advances a game's round pointer.
func (c *Client) ProgressRound(ctx context.Context, gameID string) (GameResponse, error) {
	var out GameResponse
	if gameID == "" {
		return out, ErrMissingGameID
	}
	err := c.do(ctx, http.MethodPost, "/game/"+url.PathEscape(gameID)+"/progress", nil, &out)
	return out, err
}

// GameState returns the aggregate state of a game.
func (c *Client) GameState(ctx context.Context, gameID string) (GameState, error) {
	var out GameState
	if gameID == "" {
		return out, ErrMissingGameID
	}
	err := c.do(ctx, http.MethodGet, "/game/"+url.PathEscape(gameID)+"/state", nil, &out)
	return out, err
}

// Agents returns the current state of every agent in a game, keyed by name.
func (c *Client) Agents(ctx context.Context, gameID string) (map[string]AgentState, error) {
	if gameID == "" {
		return nil, ErrMissingGameID
	}
	var out map[string]AgentState
	err := c.do(ctx, http.MethodGet, "/game/"+url.PathEscape(gameID)+"/agents", nil, &out)
	return out, err
}

// AgentInteractions returns the messages, deals and alliances between two agents.
func (c *Client) AgentInteractions(ctx context.Context, gameID, agentA, agentB string) (Interactions, error) {
	var out Interactions
	if gameID == "" {
		return out, ErrMissingGameID
	}
	path := fmt.Sprintf("/game/%s/agent-interactions/%s/%s",
		url.PathEscape(gameID), url.PathEscape(agentA), url.PathEscape(agentB))
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// ThoughtProcesses returns every thought-process entry recorded for a game.
func (c *Client) ThoughtProcesses(ctx context.Context, gameID string) ([]Thought, error) {
	if gameID == "" {
		return nil, ErrMissingGameID
	}
	var out []Thought
	err := c.do(ctx, http.MethodGet, "/game/"+url.PathEscape(gameID)+"/thought-processes", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Method: method, Path: path, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err))
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
		zap.String("request_id", reqID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb struct {
			Detail any `json:"detail"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		_ = json.Unmarshal(raw, &eb)
		return &APIError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Detail: detailString(eb.Detail),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// detailString flattens the detail field. FastAPI-style services send either
// a string or a list of validation objects carrying a "msg".
func detailString(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case []any:
		var parts []string
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m["msg"].(string); ok {
					parts = append(parts, msg)
				}
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
