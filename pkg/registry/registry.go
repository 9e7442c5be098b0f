// Package registry keeps the wizard controllers that are live in this process.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/dealreg/internal/keylock"
	"github.com/aretw0/dealreg/pkg/wizard"
)

// ErrNotLive is returned when no live controller holds the session.
var ErrNotLive = errors.New("session is not live")

// Registry maps session IDs to live controllers.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]*wizard.Controller

	guards *keylock.Set
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		controllers: make(map[string]*wizard.Controller),
		guards:      keylock.New(),
	}
}

// Guard blocks until the caller is the only one holding sessionID and returns
// the release func. Lookup-then-build sequences run under it so that one
// session never gets two controllers.
func (r *Registry) Guard(sessionID string) (release func()) {
	return r.guards.Lock(sessionID)
}

// Register adds a controller under its session ID.
// A controller already registered under that ID is closed and replaced.
func (r *Registry) Register(c *wizard.Controller) {
	id := c.SessionID()

	r.mu.Lock()
	prev := r.controllers[id]
	r.controllers[id] = c
	r.mu.Unlock()

	if prev != nil && prev != c {
		prev.Close()
	}
}

// Get looks up a live controller.
func (r *Registry) Get(sessionID string) (*wizard.Controller, error) {
	r.mu.RLock()
	c, ok := r.controllers[sessionID]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotLive, sessionID)
	}
	return c, nil
}

// Remove closes and forgets a controller. Removing an unknown ID is a no-op.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	c := r.controllers[sessionID]
	delete(r.controllers, sessionID)
	r.mu.Unlock()

	if c != nil {
		c.Close()
	}
}

// IDs returns the sorted IDs of live sessions.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.controllers))
	for id := range r.controllers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.controllers)
}

// CloseAll closes and forgets every controller.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.controllers
	r.controllers = make(map[string]*wizard.Controller)
	r.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
}
