// Package notify carries table change notifications from a data source to the
// views that depend on it.
package notify

import "sync"

// Subscription is released exactly once with Close; further calls are no-ops.
type Subscription interface {
	Close()
}

// Subscriber is implemented by anything that can report changes to a table.
type Subscriber interface {
	Subscribe(table string, onChange func()) Subscription
}

// Bus fans table change events out to registered callbacks. Callbacks run on
// the publishing goroutine and must not block.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[uint64]func())}
}

// Subscribe registers onChange for table until the returned subscription is closed.
func (b *Bus) Subscribe(table string, onChange func()) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[table] == nil {
		b.subs[table] = make(map[uint64]func())
	}
	b.subs[table][id] = onChange

	return &subscription{release: func() { b.remove(table, id) }}
}

// Publish invokes every callback registered for table.
func (b *Bus) Publish(table string) {
	b.mu.Lock()
	callbacks := make([]func(), 0, len(b.subs[table]))
	for _, fn := range b.subs[table] {
		callbacks = append(callbacks, fn)
	}
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Count returns the number of live subscriptions for table.
func (b *Bus) Count(table string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[table])
}

func (b *Bus) remove(table string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs[table], id)
	if len(b.subs[table]) == 0 {
		delete(b.subs, table)
	}
}

type subscription struct {
	once    sync.Once
	release func()
}

func (s *subscription) Close() {
	s.once.Do(s.release)
}
