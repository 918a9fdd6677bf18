// Package taskhub is the Go client for the task-management backend's
// notification subsystem: the REST notification surface plus the
// real-time WebSocket connection with reconnect, heartbeat, and
// message-type routing.
//
// Example:
//
//	client := taskhub.NewClient(token, taskhub.WithBaseURL("https://tasks.example.com"))
//
//	// REST surface
//	page, _ := client.Notifications().List(ctx, &taskhub.ListOptions{Limit: 20})
//
//	// Real-time surface
//	store := taskhub.NewNotificationStore(client, logger)
//	sock := taskhub.NewNotificationSocket(client, creds, store, alerter, nil, logger)
//	sock.Connect(ctx)
package taskhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds each REST round-trip.
	DefaultTimeout = 30 * time.Second

	notificationsPath = "/notifications"
)

// ============================================================================
// Client
// ============================================================================

// Client talks to the task-management backend over HTTP with a bearer
// token. It is safe for concurrent use.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client

	notifications *NotificationsClient
}

type ClientOption func(*Client)

// WithBaseURL sets the backend base address (scheme + host).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// NewClient creates a backend client. The base URL must be provided via
// WithBaseURL; the client fails fast on requests when it is unset.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.notifications = &NotificationsClient{client: c}
	return c
}

// SetToken replaces the bearer token, e.g. after a refresh.
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the configured backend base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Notifications returns the notification REST sub-client.
func (c *Client) Notifications() *NotificationsClient {
	return c.notifications
}

// ============================================================================
// Internal request helper
// ============================================================================

// errorBody is the backend's error shape for non-2xx responses.
type errorBody struct {
	Detail string `json:"detail"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, query map[string]string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("base URL is not configured")
	}

	u := c.baseURL + path
	if len(query) > 0 {
		params := url.Values{}
		for k, v := range query {
			params.Set(k, v)
		}
		u += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: eb.Detail}
	}

	return data, nil
}

func decodeJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// ============================================================================
// Notifications REST sub-client
// ============================================================================

// NotificationsClient covers the /notifications REST surface.
type NotificationsClient struct {
	client *Client
}

// List fetches one page of notifications plus server-truth counters.
func (n *NotificationsClient) List(ctx context.Context, opts *ListOptions) (*NotificationPage, error) {
	var query map[string]string
	if opts != nil {
		query = map[string]string{}
		if opts.Skip > 0 {
			query["skip"] = strconv.Itoa(opts.Skip)
		}
		if opts.Limit > 0 {
			query["limit"] = strconv.Itoa(opts.Limit)
		}
		if opts.UnreadOnly {
			query["unread_only"] = "true"
		}
		if len(query) == 0 {
			query = nil
		}
	}

	data, err := n.client.doRequest(ctx, http.MethodGet, notificationsPath+"/", nil, query)
	if err != nil {
		return nil, err
	}
	return decodeJSON[NotificationPage](data)
}

// Get fetches a single notification by id.
func (n *NotificationsClient) Get(ctx context.Context, id int64) (*Notification, error) {
	data, err := n.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("%s/%d", notificationsPath, id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[Notification](data)
}

// MarkRead marks one notification read and returns the updated record.
func (n *NotificationsClient) MarkRead(ctx context.Context, id int64) (*Notification, error) {
	data, err := n.client.doRequest(ctx, http.MethodPatch, fmt.Sprintf("%s/%d/read", notificationsPath, id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[Notification](data)
}

// MarkAllRead marks every unread notification read.
func (n *NotificationsClient) MarkAllRead(ctx context.Context) (*MarkAllResult, error) {
	data, err := n.client.doRequest(ctx, http.MethodPatch, notificationsPath+"/read-all", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[MarkAllResult](data)
}

// Delete removes a notification server-side.
func (n *NotificationsClient) Delete(ctx context.Context, id int64) (*DeleteResult, error) {
	data, err := n.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", notificationsPath, id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[DeleteResult](data)
}

// Stats fetches the aggregate notification summary.
func (n *NotificationsClient) Stats(ctx context.Context) (*NotificationStats, error) {
	data, err := n.client.doRequest(ctx, http.MethodGet, notificationsPath+"/stats/summary", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[NotificationStats](data)
}
