package taskhub

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// ============================================================================
// Test Helpers
// ============================================================================

// captureAlerter records every alert it receives.
type captureAlerter struct {
	mu     sync.Mutex
	alerts []Alert
}

func (c *captureAlerter) Notify(alert Alert) {
	c.mu.Lock()
	c.alerts = append(c.alerts, alert)
	c.mu.Unlock()
}

func (c *captureAlerter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alerts)
}

func (c *captureAlerter) last() Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.alerts) == 0 {
		return Alert{}
	}
	return c.alerts[len(c.alerts)-1]
}

func newTestRouter() (*Router, *NotificationStore, *captureAlerter) {
	store := NewNotificationStore(NewClient("test-token"), nil)
	alerts := &captureAlerter{}
	return NewRouter(store, alerts, nil), store, alerts
}

func pushFrame(id int64, title string) []byte {
	return []byte(fmt.Sprintf(
		`{"type":"notification","data":{"id":%d,"user_id":7,"type":"ASSIGNMENT","title":%q,"message":"check it","is_read":false,"created_at":"2026-01-01T00:00:00Z"}}`,
		id, title))
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// ============================================================================
// Liveness reply and malformed frames
// ============================================================================

func TestRouteLivenessReply(t *testing.T) {
	router, store, alerts := newTestRouter()

	router.Route([]byte("pong"))

	if alerts.count() != 0 {
		t.Fatal("pong must never surface an alert")
	}
	if len(store.Notifications()) != 0 {
		t.Fatal("pong must never mutate the store")
	}
}

func TestRouteMalformedFrame(t *testing.T) {
	router, store, alerts := newTestRouter()

	router.Route([]byte("{not json"))
	router.Route([]byte(""))

	if alerts.count() != 0 || len(store.Notifications()) != 0 {
		t.Fatal("malformed frames must be discarded without side effects")
	}
}

func TestRouteUnknownType(t *testing.T) {
	router, store, alerts := newTestRouter()
	store.ReplaceRoster([]RosterEntry{{UserID: 1, Username: "alice"}})

	router.Route([]byte(`{"type":"presence_update","data":{"x":1}}`))

	if alerts.count() != 0 {
		t.Fatal("unknown type must not alert")
	}
	if len(store.Notifications()) != 0 {
		t.Fatal("unknown type must not mutate the list")
	}
	if len(store.Roster()) != 1 {
		t.Fatal("unknown type must not mutate the roster")
	}
}

// ============================================================================
// Notification frames
// ============================================================================

func TestRouteNotification(t *testing.T) {
	router, store, alerts := newTestRouter()

	router.Route(pushFrame(42, "New assignment"))

	list := store.Notifications()
	if len(list) != 1 || list[0].ID != 42 {
		t.Fatalf("expected notification 42 at head, got %+v", list)
	}
	if store.UnreadCount() != 1 {
		t.Fatalf("expected unread 1, got %d", store.UnreadCount())
	}
	if alerts.count() != 1 {
		t.Fatalf("expected exactly one alert, got %d", alerts.count())
	}
	alert := alerts.last()
	if alert.Severity != SeveritySuccess {
		t.Fatalf("expected success tone, got %s", alert.Severity)
	}
	if alert.Title != "New assignment" || alert.Body != "check it" {
		t.Fatalf("alert should carry the notification text, got %+v", alert)
	}
}

func TestRouteNotificationOrdering(t *testing.T) {
	router, store, _ := newTestRouter()

	router.Route(pushFrame(1, "first"))
	router.Route(pushFrame(2, "second"))

	list := store.Notifications()
	if len(list) != 2 || list[0].ID != 2 || list[1].ID != 1 {
		t.Fatalf("push events must apply in arrival order, newest first: %+v", list)
	}
}

func TestRouteNotificationBadPayload(t *testing.T) {
	router, store, alerts := newTestRouter()

	router.Route([]byte(`{"type":"notification","data":"oops"}`))

	if len(store.Notifications()) != 0 || alerts.count() != 0 {
		t.Fatal("bad payload must be dropped whole, not partially applied")
	}
}

// ============================================================================
// Toast frames
// ============================================================================

func TestRouteToast(t *testing.T) {
	t.Run("tone and text", func(t *testing.T) {
		router, store, alerts := newTestRouter()

		router.Route([]byte(`{"type":"toast","toast_type":"warning","title":"Deadline moved","message":"Sprint ends Friday"}`))

		if len(store.Notifications()) != 0 {
			t.Fatal("toast must not mutate the store")
		}
		alert := alerts.last()
		if alert.Severity != SeverityWarning {
			t.Fatalf("expected warning tone, got %s", alert.Severity)
		}
		if alert.Title != "Deadline moved" || alert.Body != "Sprint ends Friday" {
			t.Fatalf("unexpected alert: %+v", alert)
		}
	})

	t.Run("unknown tone defaults to info", func(t *testing.T) {
		router, _, alerts := newTestRouter()
		router.Route([]byte(`{"type":"toast","toast_type":"fancy","title":"Hi"}`))
		if alerts.last().Severity != SeverityInfo {
			t.Fatalf("expected info default, got %s", alerts.last().Severity)
		}
	})

	t.Run("title decorated with target and sender", func(t *testing.T) {
		router, _, alerts := newTestRouter()
		router.Route([]byte(`{"type":"toast","toast_type":"info","title":"Task updated","message":"x","target":"task","target_id":42,"sender":"alice"}`))
		if alerts.last().Title != "Task updated (task #42) from alice" {
			t.Fatalf("unexpected decorated title: %q", alerts.last().Title)
		}
	})

	t.Run("target without id", func(t *testing.T) {
		router, _, alerts := newTestRouter()
		router.Route([]byte(`{"type":"toast","title":"Heads up","target":"team"}`))
		if alerts.last().Title != "Heads up (team)" {
			t.Fatalf("unexpected decorated title: %q", alerts.last().Title)
		}
	})
}

// ============================================================================
// Domain notification frames
// ============================================================================

func TestRouteDomainNotificationTones(t *testing.T) {
	cases := []struct {
		frameType string
		subtype   string
		want      Severity
	}{
		{"task_notification", "task_completed", SeveritySuccess},
		{"task_notification", "task_overdue", SeverityError},
		{"task_notification", "task_due_soon", SeverityWarning},
		{"task_notification", "task_assigned", SeverityInfo},
		{"team_notification", "team_member_added", SeveritySuccess},
		{"team_notification", "team_deleted", SeverityError},
		{"project_notification", "project_archived", SeverityWarning},
		{"project_notification", "project_renamed", SeverityInfo}, // unknown subtype
	}

	for _, tc := range cases {
		t.Run(tc.subtype, func(t *testing.T) {
			router, store, alerts := newTestRouter()

			frame := fmt.Sprintf(`{"type":%q,"notification_type":%q,"title":"t","message":"m"}`, tc.frameType, tc.subtype)
			router.Route([]byte(frame))

			if len(store.Notifications()) != 0 {
				t.Fatal("domain notifications must not mutate the store")
			}
			if got := alerts.last().Severity; got != tc.want {
				t.Fatalf("subtype %s: expected %s, got %s", tc.subtype, tc.want, got)
			}
		})
	}
}

// ============================================================================
// Roster and log-only frames
// ============================================================================

func TestRouteUsersList(t *testing.T) {
	router, store, alerts := newTestRouter()

	router.Route([]byte(`{"type":"users_list","users":[{"user_id":1,"username":"alice"},{"user_id":2,"username":"bob"}]}`))

	roster := store.Roster()
	if len(roster) != 2 || roster[0].Username != "alice" || roster[1].Username != "bob" {
		t.Fatalf("unexpected roster: %+v", roster)
	}
	if alerts.count() != 0 {
		t.Fatal("roster snapshots must not alert")
	}

	// A fresh snapshot replaces, never merges.
	router.Route([]byte(`{"type":"users_list","users":[{"user_id":2,"username":"bob"}]}`))
	if len(store.Roster()) != 1 {
		t.Fatalf("expected roster replaced, got %+v", store.Roster())
	}
}

func TestRouteLogOnlyFrames(t *testing.T) {
	router, store, alerts := newTestRouter()

	router.Route([]byte(`{"type":"connection","message":"connected as alice"}`))
	router.Route([]byte(`{"type":"broadcast","data":{"announcement":"maintenance"}}`))

	if alerts.count() != 0 || len(store.Notifications()) != 0 {
		t.Fatal("connection and broadcast frames are log-only")
	}
}
