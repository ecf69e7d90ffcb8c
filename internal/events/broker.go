// Package events fans published snapshots out to subscribers. Each
// subscriber holds at most one pending snapshot: a slow reader skips
// intermediate snapshots and always sees the newest one.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitthemes/internal/logger"
	"github.com/julianstephens/habitthemes/internal/models"
)

type Broker struct {
	mu     sync.Mutex
	seq    int64
	latest *models.Snapshot
	subs   map[uuid.UUID]*Subscription
	closed bool
	now    func() time.Time
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[uuid.UUID]*Subscription),
		now:  time.Now,
	}
}

// Subscription receives snapshots on C until it or its broker is closed.
type Subscription struct {
	id     uuid.UUID
	ch     chan models.Snapshot
	broker *Broker
	once   sync.Once
}

func (s *Subscription) ID() uuid.UUID { return s.id }

// C delivers snapshots. It is closed when the subscription ends.
func (s *Subscription) C() <-chan models.Snapshot { return s.ch }

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	s.once.Do(func() {
		delete(s.broker.subs, s.id)
		close(s.ch)
	})
}

// offer replaces any undelivered snapshot with snap. Callers hold the broker
// lock, which is the only path that sends on ch.
func (s *Subscription) offer(snap models.Snapshot) {
	select {
	case s.ch <- snap:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

// Publish stamps themes with the next sequence number and delivers the
// snapshot to every subscriber without blocking.
func (b *Broker) Publish(themes []models.Theme) models.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	snap := models.Snapshot{
		Sequence:    b.seq,
		PublishedAt: b.now(),
		Themes:      themes,
	}
	if b.closed {
		return snap
	}
	b.latest = &snap

	for _, sub := range b.subs {
		sub.offer(snap)
	}
	logger.Debug("snapshot published", "sequence", snap.Sequence, "themes", len(themes), "subscribers", len(b.subs))
	return snap
}

// Subscribe registers a new subscriber. If a snapshot has been published it
// is delivered immediately.
func (b *Broker) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		id:     uuid.New(),
		ch:     make(chan models.Snapshot, 1),
		broker: b,
	}
	if b.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}

	b.subs[sub.id] = sub
	if b.latest != nil {
		sub.ch <- *b.latest
	}
	return sub
}

// Latest returns the most recent snapshot, if any.
func (b *Broker) Latest() (models.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.latest == nil {
		return models.Snapshot{}, false
	}
	return *b.latest, true
}

// Subscribers returns the number of open subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Later publications are dropped.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		sub.closeLocked()
	}
}
