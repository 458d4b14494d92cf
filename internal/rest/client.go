package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Config holds backend HTTP settings for one client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is the REST counterpart of the socket adapter. It fetches the
// bootstrap data a session needs before realtime events take over.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

// UserMessages fetches the flat direct-message list involving a user.
func (c *Client) UserMessages(ctx context.Context, userID int64) ([]domain.DirectMessage, error) {
	var msgs []domain.DirectMessage
	path := fmt.Sprintf("/messages/user/%d", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, fmt.Errorf("fetch user messages: %w", err)
	}
	return msgs, nil
}

// CreateMessage persists a direct message over HTTP. The socket path is
// preferred; this is the fallback used when the socket is down.
func (c *Client) CreateMessage(ctx context.Context, p domain.SendMessagePayload) (*domain.DirectMessage, error) {
	var msg domain.DirectMessage
	if err := c.do(ctx, http.MethodPost, "/messages", p, &msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &msg, nil
}

// ClassMessagesResponse pairs a class's message history with its class
// header, the way the backend returns them in one round trip.
type ClassMessagesResponse struct {
	Messages      []domain.GroupMessage `json:"messages"`
	AcademicClass *domain.AcademicClass `json:"academicClass,omitempty"`
}

// ClassMessages fetches a class room's message history.
func (c *Client) ClassMessages(ctx context.Context, classID string) (*ClassMessagesResponse, error) {
	var resp ClassMessagesResponse
	path := "/group-messages/class/" + classID
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch class messages: %w", err)
	}
	return &resp, nil
}

// Users fetches the user directory used to start new conversations.
func (c *Client) Users(ctx context.Context) ([]domain.UserSummary, error) {
	var users []domain.UserSummary
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	return users, nil
}

// AcademicClass fetches one class header.
func (c *Client) AcademicClass(ctx context.Context, classID string) (*domain.AcademicClass, error) {
	var class domain.AcademicClass
	if err := c.do(ctx, http.MethodGet, "/academic-classes/"+classID, nil, &class); err != nil {
		return nil, fmt.Errorf("fetch academic class: %w", err)
	}
	return &class, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: apiMessage(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiMessage pulls the message field out of an error body, falling back
// to the raw body.
func apiMessage(data []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(data))
}
