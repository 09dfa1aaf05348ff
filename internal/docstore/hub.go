package docstore

import (
	"context"
	"reflect"
	"sync"
)

// FetchFunc runs a query against the backend.
type FetchFunc func(ctx context.Context, q Query) (Snapshot, error)

// Hub fans store writes out to the live queries they affect. Backends that
// have no native snapshot listener call Publish after every commit, and each
// affected subscription re-runs its query on its own goroutine. Writes that
// land while a query is being re-run are coalesced into one more run, which
// is enough because every delivery is a full result.
type Hub struct {
	fetch FetchFunc

	mu     sync.Mutex
	subs   map[uint64]*hubSub
	nextID uint64
	closed bool
}

type hubSub struct {
	query    Query
	listener Listener

	notify   chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	finished chan struct{}
}

func NewHub(fetch FetchFunc) *Hub {
	return &Hub{
		fetch: fetch,
		subs:  make(map[uint64]*hubSub),
	}
}

func (h *Hub) Subscribe(ctx context.Context, q Query, l Listener) (Registration, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrStoreClosed
	}
	id := h.nextID
	h.nextID++
	s := &hubSub{
		query:    q,
		listener: l,
		notify:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	h.subs[id] = s
	h.mu.Unlock()

	go h.run(ctx, id, s)

	return RegistrationFunc(func() {
		h.remove(id, s)
	}), nil
}

func (h *Hub) run(ctx context.Context, id uint64, s *hubSub) {
	defer close(s.finished)
	defer h.forget(id)

	var (
		last      []Document
		delivered bool
	)
	for {
		snap, err := h.fetch(ctx, s.query)
		if s.stopped() || ctx.Err() != nil {
			return
		}
		if err != nil {
			s.listener(Snapshot{Query: s.query}, err)
			return
		}
		if !delivered || !reflect.DeepEqual(last, snap.Documents) {
			s.listener(snap, nil)
			last = snap.Documents
			delivered = true
		}

		select {
		case <-s.notify:
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *hubSub) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (h *Hub) forget(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (h *Hub) remove(id uint64, s *hubSub) {
	s.stopOnce.Do(func() { close(s.stop) })
	h.forget(id)
	<-s.finished
}

// Publish wakes every subscription whose result may change because of a
// write to one of refs. It never blocks.
func (h *Hub) Publish(refs ...DocumentRef) {
	if len(refs) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs {
		for _, ref := range refs {
			if s.query.Affected(ref) {
				select {
				case s.notify <- struct{}{}:
				default:
				}
				break
			}
		}
	}
}

// PublishAll wakes every subscription. Backends use it after they may have
// missed change notifications, for example after a reconnect.
func (h *Hub) PublishAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs {
		select {
		case s.notify <- struct{}{}:
		default:
		}
	}
}

// Len is the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close stops every subscription and waits for their callbacks to return.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make(map[uint64]*hubSub, len(h.subs))
	for id, s := range h.subs {
		subs[id] = s
	}
	h.mu.Unlock()

	for id, s := range subs {
		h.remove(id, s)
	}
}
