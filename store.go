package taskhub

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ============================================================================
// NotificationStore
// ============================================================================

// NotificationStore holds the client's view of the notification list,
// unread count, aggregate stats, and the connected-user roster. It is
// fed from two sides: REST reconciliation calls issued through its own
// methods, and push events applied by the message router.
//
// Counts are adjusted incrementally on push/mark-read/delete and are
// re-anchored to server truth on every Load/Refresh, so a failed
// mutation never leaves permanent drift. A store is scoped to one
// authenticated session: construct it on login, drop it on logout.
type NotificationStore struct {
	client *Client
	logger *zap.Logger

	mu            sync.RWMutex
	notifications []Notification
	unread        int
	stats         *NotificationStats
	roster        []RosterEntry
}

// NewNotificationStore creates an empty store backed by the given client.
// A nil logger disables logging.
func NewNotificationStore(client *Client, logger *zap.Logger) *NotificationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationStore{
		client: client,
		logger: logger,
	}
}

// ============================================================================
// REST-backed operations
// ============================================================================

// Load replaces the in-memory list and unread count with server truth.
// On failure the store is left untouched and the error is returned to
// the caller, which owns user-facing presentation.
func (s *NotificationStore) Load(ctx context.Context, opts *ListOptions) (*NotificationPage, error) {
	page, err := s.client.Notifications().List(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.notifications = append([]Notification(nil), page.Notifications...)
	s.unread = page.UnreadCount
	s.mu.Unlock()

	return page, nil
}

// LoadStats refreshes the aggregate counters independently of the list.
func (s *NotificationStore) LoadStats(ctx context.Context) (*NotificationStats, error) {
	stats, err := s.client.Notifications().Stats(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()

	return stats, nil
}

// MarkAsRead marks one notification read, server round-trip first. On
// success the matching list entry is replaced and the unread count is
// decremented with a floor of zero; on failure nothing changes.
func (s *NotificationStore) MarkAsRead(ctx context.Context, id int64) (*Notification, error) {
	updated, err := s.client.Notifications().MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for i := range s.notifications {
		if s.notifications[i].ID != id {
			continue
		}
		if !s.notifications[i].IsRead && s.unread > 0 {
			s.unread--
		}
		s.notifications[i] = *updated
		break
	}
	s.mu.Unlock()

	return updated, nil
}

// MarkAllAsRead marks every notification read and zeroes the unread
// count. Idempotent: a second call succeeds with an updated count of 0.
func (s *NotificationStore) MarkAllAsRead(ctx context.Context) (*MarkAllResult, error) {
	result, err := s.client.Notifications().MarkAllRead(ctx)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	s.mu.Lock()
	for i := range s.notifications {
		if !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			s.notifications[i].ReadAt = &now
		}
	}
	s.unread = 0
	s.mu.Unlock()

	return result, nil
}

// Delete removes a notification after a confirmed server-side delete.
// Deleting an unread entry decrements the unread count (floor zero).
func (s *NotificationStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.client.Notifications().Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.notifications {
		if s.notifications[i].ID != id {
			continue
		}
		if !s.notifications[i].IsRead && s.unread > 0 {
			s.unread--
		}
		s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
		break
	}
	s.mu.Unlock()

	return nil
}

// Refresh runs Load and LoadStats concurrently and waits for both.
// A failure in either does not block the other; the list error wins
// because stale stats are tolerated while a stale list is not.
func (s *NotificationStore) Refresh(ctx context.Context) error {
	var wg sync.WaitGroup
	var loadErr, statsErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, loadErr = s.Load(ctx, nil)
	}()
	go func() {
		defer wg.Done()
		_, statsErr = s.LoadStats(ctx)
	}()
	wg.Wait()

	if statsErr != nil {
		s.logger.Warn("stats refresh failed", zap.Error(statsErr))
	}
	return loadErr
}

// ============================================================================
// Push-side mutations (called by the message router)
// ============================================================================

// ApplyPush prepends a push-delivered notification and bumps the unread
// count when it arrives unread. Frames are applied in arrival order.
func (s *NotificationStore) ApplyPush(n Notification) {
	s.mu.Lock()
	s.notifications = append([]Notification{n}, s.notifications...)
	if !n.IsRead {
		s.unread++
	}
	s.mu.Unlock()
}

// ReplaceRoster swaps the connected-user roster for a fresh snapshot.
func (s *NotificationStore) ReplaceRoster(entries []RosterEntry) {
	s.mu.Lock()
	s.roster = append([]RosterEntry(nil), entries...)
	s.mu.Unlock()
}

// ============================================================================
// Accessors
// ============================================================================

// Notifications returns a copy of the current list, newest first.
func (s *NotificationStore) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Notification(nil), s.notifications...)
}

// UnreadCount returns the current unread counter. Never negative.
func (s *NotificationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Stats returns the last loaded aggregate stats, or nil before the
// first successful LoadStats.
func (s *NotificationStore) Stats() *NotificationStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stats == nil {
		return nil
	}
	cp := *s.stats
	return &cp
}

// Roster returns a copy of the connected-user roster.
func (s *NotificationStore) Roster() []RosterEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RosterEntry(nil), s.roster...)
}
