package auth

import "sync"

type EventType string

const (
	SignedIn  EventType = "SIGNED_IN"
	SignedOut EventType = "SIGNED_OUT"
)

// Event is a session change. Session is always set; after SignedOut it is
// the session that ended.
type Event struct {
	Type    EventType
	Session *Session
}

// Broker fans session changes out to subscribers. Listeners run on the
// publishing goroutine, in subscription order.
type Broker struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]func(Event)
	order     []int
}

func NewBroker() *Broker {
	return &Broker{listeners: make(map[int]func(Event))}
}

// Subscribe registers fn and returns the function that removes it.
func (b *Broker) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.listeners[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Broker) Publish(e Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.listeners[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Len is the number of active subscriptions.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
