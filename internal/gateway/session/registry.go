// Package session holds one App per connected client: the navigation stack,
// the preview workflow and the chat transcript. Sessions are independent;
// nothing is shared across them.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"ucraft/internal/chat"
	"ucraft/internal/preview"
	"ucraft/internal/view"
)

type App struct {
	ID      string
	Router  *view.Router
	Preview *preview.Session
	Chat    *chat.Session

	mu       sync.Mutex
	lastSeen time.Time
}

func (a *App) touch() {
	a.mu.Lock()
	a.lastSeen = time.Now()
	a.mu.Unlock()
}

func (a *App) idleSince(now time.Time) time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return now.Sub(a.lastSeen)
}

// Factory builds the per-session state machines.
type Factory func(id string) (*preview.Session, *chat.Session)

type Registry struct {
	mu      sync.Mutex
	byID    map[string]*App
	ttl     time.Duration
	factory Factory
	stop    chan struct{}
	once    sync.Once
}

func NewRegistry(ttl time.Duration, factory Factory) *Registry {
	r := &Registry{
		byID:    make(map[string]*App),
		ttl:     ttl,
		factory: factory,
		stop:    make(chan struct{}),
	}
	go r.sweep()
	return r
}

func (r *Registry) Create() *App {
	id := uuid.NewString()
	prev, ch := r.factory(id)
	app := &App{
		ID:       id,
		Router:   view.NewRouter(),
		Preview:  prev,
		Chat:     ch,
		lastSeen: time.Now(),
	}
	r.mu.Lock()
	r.byID[id] = app
	r.mu.Unlock()
	return app
}

// Get returns the session and refreshes its idle timer.
func (r *Registry) Get(id string) (*App, bool) {
	r.mu.Lock()
	app, ok := r.byID[id]
	r.mu.Unlock()
	if ok {
		app.touch()
	}
	return app, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *Registry) Close() {
	r.once.Do(func() { close(r.stop) })
}

func (r *Registry) sweep() {
	interval := r.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.mu.Lock()
			for id, app := range r.byID {
				if app.idleSince(now) > r.ttl {
					delete(r.byID, id)
				}
			}
			r.mu.Unlock()
		}
	}
}
