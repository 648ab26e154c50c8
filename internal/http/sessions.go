package http

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifedash/internal/cache"
	"lifedash/internal/core"
	"lifedash/internal/vocab"
	"lifedash/internal/workout"
)

var ErrSessionNotFound = fmt.Errorf("%w: session", core.ErrNotFound)

// session guards one stateful value. Handlers only touch value under mu.
type session[T any] struct {
	mu      sync.Mutex
	value   T
	touched time.Time
}

// registry keeps in-progress workout recorders and quizzes by session id.
// Sessions idle for longer than ttl are dropped by CleanExpired.
type registry[T any] struct {
	mu    sync.Mutex
	items map[string]*session[T]
	ttl   time.Duration
	now   func() time.Time
}

var (
	_ cache.Cleaner = (*registry[*workout.Recorder])(nil)
	_ cache.Cleaner = (*registry[*vocab.Quiz])(nil)
)

func newRegistry[T any](ttl time.Duration, now func() time.Time) *registry[T] {
	if now == nil {
		now = time.Now
	}
	return &registry[T]{items: make(map[string]*session[T]), ttl: ttl, now: now}
}

func (g *registry[T]) create(v T) string {
	id := uuid.NewString()
	g.mu.Lock()
	g.items[id] = &session[T]{value: v, touched: g.now()}
	g.mu.Unlock()
	return id
}

// with runs fn on the session's value while holding that session's lock.
func (g *registry[T]) with(id string, fn func(T) error) error {
	g.mu.Lock()
	s, ok := g.items[id]
	g.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = g.now()
	return fn(s.value)
}

func (g *registry[T]) remove(id string) {
	g.mu.Lock()
	delete(g.items, id)
	g.mu.Unlock()
}

func (g *registry[T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

// CleanExpired drops idle sessions. A session in use is never dropped.
func (g *registry[T]) CleanExpired() int {
	if g.ttl <= 0 {
		return 0
	}
	cutoff := g.now().Add(-g.ttl)

	g.mu.Lock()
	defer g.mu.Unlock()
	removed := 0
	for id, s := range g.items {
		if !s.mu.TryLock() {
			continue
		}
		if s.touched.Before(cutoff) {
			delete(g.items, id)
			removed++
		}
		s.mu.Unlock()
	}
	return removed
}
