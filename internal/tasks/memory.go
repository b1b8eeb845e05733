package tasks

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryQueue is an in-process Queue used in tests and single-node
// setups without Redis. Firing is manual: FireDue invokes the handler
// synchronously for every task whose time has come.
type MemoryQueue struct {
	mu      sync.Mutex
	pending map[string]time.Time
	handler Handler
}

func NewMemoryQueue(handler Handler) *MemoryQueue {
	return &MemoryQueue{
		pending: make(map[string]time.Time),
		handler: handler,
	}
}

func (q *MemoryQueue) Upsert(_ context.Context, key string, fireAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[key] = fireAt
	return nil
}

func (q *MemoryQueue) Cancel(_ context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, key)
	return nil
}

// Pending returns the fire time for a key and whether it is queued.
func (q *MemoryQueue) Pending(key string) (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	at, ok := q.pending[key]
	return at, ok
}

// Len reports how many tasks are queued.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// FireDue removes every task due at or before now and runs the handler
// for each, in fire-time order.
func (q *MemoryQueue) FireDue(ctx context.Context, now time.Time) {
	q.mu.Lock()
	type due struct {
		key string
		at  time.Time
	}
	var batch []due
	for key, at := range q.pending {
		if !at.After(now) {
			batch = append(batch, due{key, at})
			delete(q.pending, key)
		}
	}
	q.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].at.Before(batch[j].at) })
	for _, d := range batch {
		deviceID, err := DeviceIDFromKey(d.key)
		if err != nil {
			continue
		}
		if q.handler != nil {
			q.handler(ctx, deviceID)
		}
	}
}
