// Package remote implements the HTTP and websocket bindings the board core
// uses to reach the idea service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ideaboard/internal/board"
	"ideaboard/internal/models"
)

// Client talks to the idea service's REST API on behalf of one user. It
// implements board.RemoteStore.
type Client struct {
	baseURL string
	userID  uint
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient builds a REST client rooted at baseURL (e.g. "http://localhost:8080").
func NewClient(baseURL string, userID uint, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) FetchIdeas(ctx context.Context) ([]*models.Idea, error) {
	var ideas []*models.Idea
	if err := c.do(ctx, http.MethodGet, "/api/ideas", nil, &ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

func (c *Client) FetchSubjects(ctx context.Context) ([]string, error) {
	var subjects []string
	if err := c.do(ctx, http.MethodGet, "/api/subjects", nil, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (c *Client) CreateIdea(ctx context.Context, in board.CreateInput) (*models.Idea, error) {
	var idea models.Idea
	if err := c.do(ctx, http.MethodPost, "/api/ideas", in, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (c *Client) UpdateIdea(ctx context.Context, ideaID uint, fields board.EditFields) (*models.Idea, error) {
	var idea models.Idea
	path := "/api/ideas/" + strconv.FormatUint(uint64(ideaID), 10)
	if err := c.do(ctx, http.MethodPut, path, fields, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (c *Client) Like(ctx context.Context, ideaID uint) (int, error) {
	var resp struct {
		LikeCount int `json:"likeCount"`
	}
	path := fmt.Sprintf("/api/ideas/%d/like", ideaID)
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.LikeCount, nil
}

func (c *Client) Unlike(ctx context.Context, ideaID uint) (int, error) {
	var resp struct {
		LikeCount int `json:"likeCount"`
	}
	path := fmt.Sprintf("/api/ideas/%d/like", ideaID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.LikeCount, nil
}

func (c *Client) ChangeStatus(ctx context.Context, ideaID uint, newStatus, reason string) (*models.Idea, error) {
	body := map[string]string{"newStatus": newStatus, "reason": reason}
	var idea models.Idea
	path := fmt.Sprintf("/api/ideas/%d/status", ideaID)
	if err := c.do(ctx, http.MethodPatch, path, body, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (c *Client) FetchStats(ctx context.Context, userID uint) (*models.UserStats, error) {
	var stats models.UserStats
	path := fmt.Sprintf("/api/users/%d/stats", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// do issues one request and decodes the response into out. Error bodies are
// decoded into the service's error envelope and surfaced as typed errors;
// connection-level failures become TransportError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return models.NewInternalError(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return models.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", strconv.FormatUint(uint64(c.userID), 10))

	resp, err := c.http.Do(req)
	if err != nil {
		return models.NewTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.NewTransportError(err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var envelope models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == "" {
		return &models.AppError{
			Code:    codeForStatus(resp.StatusCode),
			Message: fmt.Sprintf("Request failed with status %d", resp.StatusCode),
		}
	}

	code := envelope.Code
	if code == "" {
		code = codeForStatus(resp.StatusCode)
	}
	return &models.AppError{Code: code, Message: envelope.Error}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return models.CodeValidation
	case http.StatusForbidden:
		return models.CodeForbidden
	case http.StatusNotFound:
		return models.CodeNotFound
	case http.StatusConflict:
		return models.CodeConflict
	default:
		return models.CodeInternal
	}
}
