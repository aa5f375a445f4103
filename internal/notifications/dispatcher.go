package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/auto-assign/internal/logging"
	"github.com/ziadkadry99/auto-assign/internal/metrics"
)

// subscriberBuffer bounds how far a slow feed subscriber may lag before
// notifications are dropped for it.
const subscriberBuffer = 64

// Digest summarises notifications for a team over a time period.
type Digest struct {
	TeamID        string         `json:"team_id"`
	Period        string         `json:"period"`
	Notifications []Notification `json:"notifications"`
	Summary       string         `json:"summary"`
}

// Dispatcher records notifications and fans them out to in-process
// subscribers such as the websocket event feed.
type Dispatcher struct {
	store  *Store
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[int]chan Notification
	nextID int
}

// NewDispatcher creates a Dispatcher backed by the given store.
func NewDispatcher(store *Store, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		logger: logging.OrNop(logger),
		subs:   make(map[int]chan Notification),
	}
}

// Notify implements Notifier: it persists n and publishes it to subscribers.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if err := d.store.Create(ctx, n); err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	metrics.NotificationsDispatched.WithLabelValues(string(n.Type)).Inc()

	d.mu.Lock()
	defer d.mu.Unlock()
	for id, ch := range d.subs {
		select {
		case ch <- n:
		default:
			d.logger.Warn("dropping notification for slow subscriber",
				zap.Int("subscriber", id), zap.String("notification_id", n.ID))
		}
	}
	return nil
}

// Subscribe registers a feed subscriber. The returned cancel func must be
// called to release it; the channel is closed on cancel.
func (d *Dispatcher) Subscribe() (<-chan Notification, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	ch := make(chan Notification, subscriberBuffer)
	d.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// GenerateDigest builds a summary of notifications for a team since the given time.
func (d *Dispatcher) GenerateDigest(ctx context.Context, teamID string, since time.Time) (*Digest, error) {
	all, err := d.store.List(ctx, ListFilter{Since: since})
	if err != nil {
		return nil, fmt.Errorf("listing notifications for digest: %w", err)
	}

	var matched []Notification
	for _, n := range all {
		for _, t := range n.AffectedTeams {
			if t == teamID {
				matched = append(matched, n)
				break
			}
		}
	}

	period := fmt.Sprintf("%s to %s",
		since.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339))

	summary := fmt.Sprintf("%d notification(s) for team %s", len(matched), teamID)

	return &Digest{
		TeamID:        teamID,
		Period:        period,
		Notifications: matched,
		Summary:       summary,
	}, nil
}
