package events

import (
	"context"
	"sync"
	"time"
)

const defaultCapacity = 512

// subscriberBuffer is the per-subscriber channel depth. Slow subscribers miss
// events rather than blocking publishers; they can catch up with Fetch.
const subscriberBuffer = 64

// Publisher is the write side of the hub used by sync and enrichment.
type Publisher interface {
	Publish(ctx context.Context, msg Message)
}

// Hub stores recent events and wakes waiters when new events arrive.
type Hub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []Event
	nextSeq  uint64
	subs     map[int]chan Event
	nextSub  int
}

// NewHub constructs a bounded in-memory event buffer.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	h := &Hub{capacity: capacity, subs: make(map[int]chan Event)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish appends msg to the hub and fans it out to subscribers.
func (h *Hub) Publish(ctx context.Context, msg Message) {
	if h == nil || msg == nil {
		return
	}
	evt := Event{
		Timestamp: time.Now().UTC(),
		Type:      msg.EventType(),
		RunID:     runIDFrom(ctx),
		Payload:   msg,
	}

	h.mu.Lock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	h.cond.Broadcast()
	h.mu.Unlock()
}

// Subscribe returns a channel receiving every event published from now on and
// a cancel func that closes it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Fetch returns events with sequence greater than since, at most limit of them,
// and the sequence to pass as since on the next call. When wait is true, Fetch
// blocks until at least one event is available or the context ends.
func (h *Hub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.mu.Lock()
				h.cond.Broadcast()
				h.mu.Unlock()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	h.mu.Lock()
	defer h.mu.Unlock()

	for {
		events, next := h.snapshotLocked(since, limit)
		if len(events) > 0 || !wait {
			return events, next, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
		h.cond.Wait()
	}
}

// LastSequence reports the sequence of the newest event.
func (h *Hub) LastSequence() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nextSeq
}

func (h *Hub) snapshotLocked(since uint64, limit int) ([]Event, uint64) {
	startIdx := -1
	for i, evt := range h.buffer {
		if evt.Sequence > since {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		if since > h.nextSeq {
			return nil, h.nextSeq
		}
		return nil, since
	}
	end := startIdx + limit
	if end > len(h.buffer) {
		end = len(h.buffer)
	}
	out := make([]Event, end-startIdx)
	copy(out, h.buffer[startIdx:end])
	return out, out[len(out)-1].Sequence
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
