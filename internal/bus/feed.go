// Package bus provides latest-value publish/subscribe feeds. Each engine
// component publishes its newest snapshot; consumers either pull the last
// published value synchronously or subscribe for re-emissions.
package bus

import (
	"sync"

	"github.com/google/uuid"
)

// Feed holds the latest published value of one snapshot type and fans out
// notifications to subscribers. Delivery to a slow subscriber is dropped
// rather than blocking the publisher; the latest value is always
// available through Latest.
type Feed[T any] struct {
	mu          sync.RWMutex
	latest      T
	hasValue    bool
	subscribers map[string]chan T
}

func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subscribers: make(map[string]chan T)}
}

// Publish replaces the latest value wholesale and notifies subscribers.
// Sends happen under the lock so an Unsubscribe cannot close a channel
// mid-send; the sends are non-blocking, so the critical section stays
// short.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = v
	f.hasValue = true
	for _, ch := range f.subscribers {
		select {
		case ch <- v:
		default:
		}
	}
}

// Latest returns the last published value; ok is false before the first
// publish.
func (f *Feed[T]) Latest() (T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest, f.hasValue
}

// Subscribe registers a buffered channel re-emitting every publish. The
// returned ID unsubscribes via Unsubscribe.
func (f *Feed[T]) Subscribe(buffer int) (string, <-chan T) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)
	id := uuid.NewString()

	f.mu.Lock()
	f.subscribers[id] = ch
	f.mu.Unlock()
	return id, ch
}

func (f *Feed[T]) Unsubscribe(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subscribers[id]; ok {
		delete(f.subscribers, id)
		close(ch)
		return true
	}
	return false
}

func (f *Feed[T]) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}
