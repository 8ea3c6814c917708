package session

import (
	"context"
	"sync"
	"time"
)

// Event types
const (
	SignedIn       = "signed_in"
	SignedOut      = "signed_out"
	ProfileUpdated = "profile_updated"
)

// Event is a change to a user's session
type Event struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// Broker fans session events out to subscribers of the same user
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[chan Event]struct{}
	buffer int
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan Event]struct{}), buffer: 8}
}

// Subscribe returns a stream of the user's events. The channel is closed when ctx is done.
func (b *Broker) Subscribe(ctx context.Context, userID string) <-chan Event {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan Event]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[userID], ch)
		if len(b.subs[userID]) == 0 {
			delete(b.subs, userID)
		}
		b.mu.Unlock()
		close(ch)
	}()
	return ch
}

// Publish delivers ev to the user's subscribers. Slow subscribers miss events instead of
// blocking the publisher.
func (b *Broker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
