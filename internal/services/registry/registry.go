// Package registry tracks the live conversation connection of each principal.
package registry

import (
	"context"
	"sync"
)

// Handle is what the registry keeps for one live connection.
type Handle struct {
	// ConnectionID distinguishes connections of the same principal.
	ConnectionID string
	// Cancel stops the connection. Used on shutdown.
	Cancel func()
}

// Registry maps a principal to its most recent live connection. Registering a
// second connection for the same principal replaces the entry without stopping
// the older connection; that connection keeps running untracked by principal
// until it unregisters. Every connection stays reachable from CancelAll and Wait
// until it unregisters.
type Registry struct {
	mu          sync.Mutex
	byPrincipal map[string]*entry
	live        map[*entry]struct{}
	wg          sync.WaitGroup
}

type entry struct {
	principalID string
	handle      Handle
	once        sync.Once
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byPrincipal: make(map[string]*entry),
		live:        make(map[*entry]struct{}),
	}
}

// Register records h as the live connection of principalID. It reports whether a
// previous entry was replaced. The returned function removes the registration; it
// is safe to call more than once and never removes a newer connection's entry.
func (r *Registry) Register(principalID string, h Handle) (unregister func(), replaced bool) {
	e := &entry{principalID: principalID, handle: h}

	r.mu.Lock()
	_, replaced = r.byPrincipal[principalID]
	r.byPrincipal[principalID] = e
	r.live[e] = struct{}{}
	r.wg.Add(1)
	r.mu.Unlock()

	return func() { r.unregister(e) }, replaced
}

func (r *Registry) unregister(e *entry) {
	e.once.Do(func() {
		r.mu.Lock()
		if r.byPrincipal[e.principalID] == e {
			delete(r.byPrincipal, e.principalID)
		}
		delete(r.live, e)
		r.mu.Unlock()
		r.wg.Done()
	})
}

// Lookup returns the current connection of a principal.
func (r *Registry) Lookup(principalID string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byPrincipal[principalID]
	if !ok {
		return Handle{}, false
	}
	return e.handle, true
}

// Count returns the number of principals with a tracked connection.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPrincipal)
}

// Live returns the number of registered connections, replaced ones included.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// CancelAll cancels every registered connection and returns how many were cancelled.
func (r *Registry) CancelAll() (canceled int) {
	var cancels []func()

	r.mu.Lock()
	for e := range r.live {
		if e.handle.Cancel != nil {
			cancels = append(cancels, e.handle.Cancel)
		}
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
		canceled++
	}
	return canceled
}

// Wait blocks until every registered connection has unregistered or ctx is done.
// It reports whether all connections finished.
func (r *Registry) Wait(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
