package dashboard

import (
	"context"
	"sync"
	"time"
)

// Sequencer hands out monotonically increasing tickets for loads of one
// resource. A result is committed only if its ticket is newer than the last
// committed one; committing cancels every older load still in flight.
type Sequencer struct {
	mu       sync.Mutex
	last     uint64
	applied  uint64
	inflight map[uint64]context.CancelFunc
}

// Ticket identifies one load.
type Ticket struct {
	n   uint64
	seq *Sequencer
}

// Begin derives a cancellable context for a new load.
func (s *Sequencer) Begin(ctx context.Context) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight == nil {
		s.inflight = make(map[uint64]context.CancelFunc)
	}
	s.last++
	s.inflight[s.last] = cancel
	return ctx, Ticket{n: s.last, seq: s}
}

// Commit runs apply when the ticket is still the newest result. It reports
// whether apply ran.
func (t Ticket) Commit(apply func()) bool {
	s := t.seq
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.n <= s.applied {
		return false
	}
	s.applied = t.n
	apply()

	for n, cancel := range s.inflight {
		if n < t.n {
			cancel()
			delete(s.inflight, n)
		}
	}
	return true
}

// Superseded reports whether a newer load has already been committed.
func (t Ticket) Superseded() bool {
	s := t.seq
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.n < s.applied
}

// Done releases the ticket's context. Safe to call more than once.
func (t Ticket) Done() {
	s := t.seq
	s.mu.Lock()
	cancel, ok := s.inflight[t.n]
	delete(s.inflight, t.n)
	s.mu.Unlock()

	if ok {
		cancel()
	}
}

// Snapshot holds the last successfully loaded value of a resource. A failed
// load keeps the previous value.
type Snapshot[T any] struct {
	seq Sequencer

	mu       sync.RWMutex
	value    T
	loaded   bool
	loadedAt time.Time
}

// Load fetches a fresh value. It returns the value current after the attempt
// together with the fetch error, so callers can keep showing stale data.
// A load overtaken by a newer one returns the newer value without error.
func (s *Snapshot[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	ctx, ticket := s.seq.Begin(ctx)
	defer ticket.Done()

	v, err := fetch(ctx)
	if err != nil {
		if ticket.Superseded() {
			return s.Get(), nil
		}
		return s.Get(), err
	}

	ticket.Commit(func() {
		s.mu.Lock()
		s.value = v
		s.loaded = true
		s.loadedAt = time.Now()
		s.mu.Unlock()
	})
	return s.Get(), nil
}

// Current reuses a loaded value unless fresh is set.
func (s *Snapshot[T]) Current(ctx context.Context, fresh bool, fetch func(context.Context) (T, error)) (T, error) {
	if !fresh && s.Loaded() {
		return s.Get(), nil
	}
	return s.Load(ctx, fetch)
}

func (s *Snapshot[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Loaded reports whether any load has succeeded yet.
func (s *Snapshot[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Snapshot[T]) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Update patches the current value in place. It does not take a ticket, so
// the next committed load replaces the patch wholesale.
func (s *Snapshot[T]) Update(fn func(T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = fn(s.value)
}

// Keyed keeps one snapshot per key, e.g. one per manager id.
type Keyed[T any] struct {
	mu    sync.Mutex
	items map[string]*Snapshot[T]
}

func (k *Keyed[T]) For(key string) *Snapshot[T] {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.items == nil {
		k.items = make(map[string]*Snapshot[T])
	}
	s, ok := k.items[key]
	if !ok {
		s = &Snapshot[T]{}
		k.items[key] = s
	}
	return s
}

// Forget drops the snapshot for key.
func (k *Keyed[T]) Forget(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.items, key)
}
