package testutil

import (
	"context"
	"sync"

	"anoa.com/fitsquad/internal/entity"
	"github.com/google/uuid"
)

// Notifier records created notifications in memory.
type Notifier struct {
	mu   sync.Mutex
	sent []entity.Notification
}

func (n *Notifier) CreateNotification(_ context.Context, notification *entity.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, *notification)
	return nil
}

func (n *Notifier) GetNotifications(_ context.Context, userID uuid.UUID, _, _ int) ([]entity.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []entity.Notification
	for _, sent := range n.sent {
		if sent.UserID == userID {
			out = append(out, sent)
		}
	}
	return out, nil
}

func (n *Notifier) MarkAsRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (n *Notifier) MarkAllAsRead(context.Context, uuid.UUID) error         { return nil }
func (n *Notifier) UnreadCount(context.Context, uuid.UUID) (int64, error)  { return 0, nil }

// Sent returns a copy of every notification so far.
func (n *Notifier) Sent() []entity.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]entity.Notification(nil), n.sent...)
}
