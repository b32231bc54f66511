// Package events is the typed in-process bus the daemon uses to hand cart,
// checkout and reload notifications between its workers. It is not durable;
// the journal lives in internal/eventstore.
package events

import (
	"context"
	"reflect"
	"sync"

	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// Bus fans values out to subscribers of their exact type.
//
// Delivery holds a read lock, so unsubscribing or closing waits for
// in-flight publishes. Publishers must pass a context that is canceled on
// shutdown.
type Bus struct {
	mu     sync.RWMutex
	topics map[reflect.Type]channelSet
	closed bool
}

type channelSet interface {
	size() int
	closeAll()
}

type topic[T any] struct {
	next int
	subs map[int]chan T
}

func (t *topic[T]) size() int { return len(t.subs) }

func (t *topic[T]) closeAll() {
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}
}

func NewBus() *Bus {
	return &Bus{topics: make(map[reflect.Type]channelSet)}
}

// topicOf returns the topic for T; b.mu must be held.
func topicOf[T any](b *Bus, create bool) *topic[T] {
	key := reflect.TypeFor[T]()
	if t, ok := b.topics[key]; ok {
		return t.(*topic[T])
	}
	if !create {
		return nil
	}
	t := &topic[T]{subs: make(map[int]chan T)}
	b.topics[key] = t
	return t
}

// Subscribe returns a channel receiving every published T and a func that
// unsubscribes and closes it. Subscribing to a closed bus yields a closed
// channel.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	ch := make(chan T, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	t := topicOf[T](b, true)
	id := t.next
	t.next++
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if t.subs[id] == nil {
				return // already closed by Close
			}
			close(ch)
			delete(t.subs, id)
		})
	}
}

// SubscriberCount returns the number of live subscriptions for T.
func SubscriberCount[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if t := topicOf[T](b, false); t != nil {
		return t.size()
	}
	return 0
}

// Publish hands evt to every subscriber of T, blocking on full channels
// until ctx is done.
func Publish[T any](ctx context.Context, b *Bus, evt T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errors.DaemonError("event bus is closed").Build()
	}
	t := topicOf[T](b, false)
	if t == nil {
		return nil
	}
	for _, ch := range t.subs {
		select {
		case ch <- evt:
		case <-ctx.Done():
			return errors.WrapError(ctx.Err(), errors.CategoryDaemon, "event publish canceled").
				WithContext("event_type", reflect.TypeFor[T]().String()).
				Build()
		}
	}
	return nil
}

// Close closes every subscription. Later publishes fail.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, t := range b.topics {
		t.closeAll()
	}
}
