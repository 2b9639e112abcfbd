// Package events carries cross-container signals between the session and
// cart containers.
package events

import (
	"context"
	"sort"
	"sync"

	"storefront-client/internal/domain"
)

type Kind string

const (
	// LoggedIn follows a successful login or revalidation.
	LoggedIn Kind = "logged_in"
	// LoggedOut follows an explicit logout or an invalidated session.
	LoggedOut Kind = "logged_out"
	// Unauthorized is raised by the HTTP client on any 401 response.
	Unauthorized Kind = "unauthorized"
)

type Event struct {
	Kind   Kind
	User   *domain.User
	Reason string
	// Token is the credential an Unauthorized response was issued for.
	Token string
}

type Handler func(ctx context.Context, ev Event)

// Bus is a synchronous publish/subscribe hub. Handlers run on the publishing
// goroutine, in subscription order, with no bus lock held.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Kind]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Kind]map[int]Handler)}
}

// Subscribe registers h for kind and returns a function that removes it.
func (b *Bus) Subscribe(kind Kind, h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[int]Handler)
	}
	b.subs[kind][id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[kind], id)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(ctx context.Context, ev Event) {
	for _, h := range b.handlers(ev.Kind) {
		h(ctx, ev)
	}
}

func (b *Bus) handlers(kind Kind) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]int, 0, len(b.subs[kind]))
	for id := range b.subs[kind] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Handler, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.subs[kind][id])
	}
	return out
}
