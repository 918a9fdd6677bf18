package taskhub

import (
	"fmt"
	"time"
)

// ============================================================================
// Shared Types
// ============================================================================

// APIError represents a structured error returned by the backend.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// FetchError is returned when a REST call completes with a non-success
// HTTP status. The store leaves its state untouched when it sees one.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// ============================================================================
// Notification Types
// ============================================================================

// NotificationType is the server-assigned category tag on a notification.
type NotificationType string

const (
	TypeAssignment   NotificationType = "ASSIGNMENT"
	TypeStatusChange NotificationType = "STATUS_CHANGE"
	TypeReminder     NotificationType = "REMINDER"
	TypeEscalation   NotificationType = "ESCALATION"
	TypeGeneral      NotificationType = "GENERAL"
	TypeBroadcast    NotificationType = "BROADCAST"
)

// Notification is a single persisted notification. IDs are assigned by
// the backend; ReadAt is set iff IsRead is true.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	TaskID    *int64           `json:"task_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
}

// NotificationPage is the response of the list endpoint: one page of
// notifications plus server-truth counters.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	UnreadCount   int            `json:"unread_count"`
}

// NotificationStats is the aggregate summary from /notifications/stats/summary.
type NotificationStats struct {
	Total  int            `json:"total"`
	Unread int            `json:"unread"`
	ByType map[string]int `json:"by_type"`
}

// MarkAllResult is the response of the read-all endpoint.
type MarkAllResult struct {
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
}

// DeleteResult is the response of the delete endpoint.
type DeleteResult struct {
	Message string `json:"message"`
}

// ListOptions filters a notification list fetch. Zero values are omitted
// from the query string.
type ListOptions struct {
	Skip       int
	Limit      int
	UnreadOnly bool
}

// ============================================================================
// Roster Types
// ============================================================================

// RosterEntry is one currently-connected user from a users_list frame.
type RosterEntry struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
