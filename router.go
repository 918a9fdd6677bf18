package taskhub

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// ============================================================================
// Wire frames
// ============================================================================

// FrameType is the type discriminator on an inbound JSON frame.
type FrameType string

const (
	FrameNotification FrameType = "notification"
	FrameConnection   FrameType = "connection"
	FrameBroadcast    FrameType = "broadcast"
	FrameToast        FrameType = "toast"
	FrameTask         FrameType = "task_notification"
	FrameTeam         FrameType = "team_notification"
	FrameProject      FrameType = "project_notification"
	FrameUsersList    FrameType = "users_list"
)

// Liveness tokens exchanged on the heartbeat. The reply is plain text,
// not JSON, and never reaches the JSON parse path.
const (
	heartbeatProbe = "ping"
	heartbeatReply = "pong"
)

// Frame is the superset of all inbound frame shapes. Which fields are
// populated depends on Type; unknown fields are ignored.
type Frame struct {
	Type FrameType `json:"type"`

	// notification / broadcast payload
	Data json.RawMessage `json:"data,omitempty"`

	// connection / toast / domain-notification text
	Message string `json:"message,omitempty"`
	Title   string `json:"title,omitempty"`

	// toast decoration
	ToastType string `json:"toast_type,omitempty"`
	Target    string `json:"target,omitempty"`
	TargetID  int64  `json:"target_id,omitempty"`
	Sender    string `json:"sender,omitempty"`

	// domain-notification subtype
	NotificationType string `json:"notification_type,omitempty"`

	// roster snapshot
	Users []RosterEntry `json:"users,omitempty"`
}

// ============================================================================
// Subtype tone tables
// ============================================================================

// domainTones maps domain-notification subtypes to alert severities.
// Subtypes missing from the table fall back to informational.
var domainTones = map[string]Severity{
	// task lifecycle
	"task_assigned":       SeverityInfo,
	"task_status_changed": SeverityInfo,
	"task_completed":      SeveritySuccess,
	"task_due_soon":       SeverityWarning,
	"task_overdue":        SeverityError,
	"task_escalated":      SeverityError,
	"task_deleted":        SeverityWarning,

	// team lifecycle
	"team_created":        SeveritySuccess,
	"team_member_added":   SeveritySuccess,
	"team_member_removed": SeverityWarning,
	"team_deleted":        SeverityError,

	// project lifecycle
	"project_created":   SeveritySuccess,
	"project_completed": SeveritySuccess,
	"project_archived":  SeverityWarning,
	"project_deleted":   SeverityError,
}

func domainTone(subtype string) Severity {
	if tone, ok := domainTones[subtype]; ok {
		return tone
	}
	return SeverityInfo
}

// ============================================================================
// Router
// ============================================================================

// Router classifies inbound frames and dispatches them: persistent
// events mutate the store, transient ones go to the alert sink, and
// liveness replies are discarded before JSON parsing. It never returns
// an error to the read loop; malformed or unknown frames are logged
// and dropped so a misbehaving server cannot take the connection down.
type Router struct {
	store  *NotificationStore
	alerts AlertSink
	logger *zap.Logger
}

// NewRouter wires a router to its store and alert sink. A nil sink
// discards alerts; a nil logger disables logging.
func NewRouter(store *NotificationStore, alerts AlertSink, logger *zap.Logger) *Router {
	if alerts == nil {
		alerts = NopAlerter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		store:  store,
		alerts: alerts,
		logger: logger,
	}
}

// Route processes one raw inbound frame.
func (r *Router) Route(raw []byte) {
	if string(raw) == heartbeatReply {
		return
	}

	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		r.logger.Warn("discarding unparseable frame", zap.Error(err))
		return
	}

	switch frame.Type {
	case FrameNotification:
		r.handleNotification(&frame)
	case FrameConnection:
		r.logger.Info("connection message", zap.String("message", frame.Message))
	case FrameBroadcast:
		r.logger.Info("broadcast received", zap.Int("bytes", len(frame.Data)))
	case FrameToast:
		r.handleToast(&frame)
	case FrameTask, FrameTeam, FrameProject:
		r.handleDomainNotification(&frame)
	case FrameUsersList:
		r.store.ReplaceRoster(frame.Users)
	default:
		// Forward compatibility: unknown types are ignored, not errors.
		r.logger.Warn("discarding frame with unknown type", zap.String("type", string(frame.Type)))
	}
}

// handleNotification appends a push-delivered notification to the store
// and surfaces it as a success-toned alert.
func (r *Router) handleNotification(frame *Frame) {
	var n Notification
	if err := json.Unmarshal(frame.Data, &n); err != nil {
		r.logger.Warn("discarding notification frame with bad payload", zap.Error(err))
		return
	}

	r.store.ApplyPush(n)
	r.alerts.Notify(NewAlert(SeveritySuccess, n.Title, n.Message))
}

// handleToast surfaces a generic toast instruction. No store mutation.
func (r *Router) handleToast(frame *Frame) {
	alert := NewAlert(ParseSeverity(frame.ToastType), decorateToastTitle(frame), frame.Message)
	alert.Target = frame.Target
	alert.Sender = frame.Sender
	r.alerts.Notify(alert)
}

// handleDomainNotification surfaces a task/team/project lifecycle event
// with a tone picked from the subtype table.
func (r *Router) handleDomainNotification(frame *Frame) {
	r.alerts.Notify(NewAlert(domainTone(frame.NotificationType), frame.Title, frame.Message))
}

// decorateToastTitle appends target and sender context when present,
// e.g. "Task updated (task #42) from alice".
func decorateToastTitle(frame *Frame) string {
	title := frame.Title
	if frame.Target != "" {
		if frame.TargetID != 0 {
			title = fmt.Sprintf("%s (%s #%d)", title, frame.Target, frame.TargetID)
		} else {
			title = fmt.Sprintf("%s (%s)", title, frame.Target)
		}
	}
	if frame.Sender != "" {
		title = fmt.Sprintf("%s from %s", title, frame.Sender)
	}
	return title
}
