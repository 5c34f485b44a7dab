package platform

import (
	"sync"

	"github.com/brizzai/codetrack/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Snapshot is a point-in-time copy of every platform's link state. Platforms
// without an entry are Unlinked.
type Snapshot map[Platform]LinkState

// Get returns the state of p, defaulting to Unlinked.
func (s Snapshot) Get(p Platform) LinkState {
	if st, ok := s[p]; ok && st != nil {
		return st
	}
	return Unlinked{}
}

// Registry is the client's view of which platforms are linked. It is a plain
// state container; the verification workflow is its only writer.
type Registry struct {
	mu    sync.RWMutex
	links map[Platform]LinkState
}

func NewRegistry() *Registry {
	return &Registry{links: make(map[Platform]LinkState)}
}

func (r *Registry) Get(p Platform) LinkState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot(r.links).Get(p)
}

// Snapshot returns a copy that callers may keep and read freely.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(Snapshot, len(All()))
	for _, p := range All() {
		out[p] = copyState(Snapshot(r.links).Get(p))
	}
	return out
}

// Replace swaps in the backend's mapping wholesale. Challenges still pending
// on the client survive unless the backend now reports that platform verified.
func (r *Registry) Replace(links map[Platform]LinkState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[Platform]LinkState, len(links))
	for p, st := range links {
		if _, ok := catalog[p]; !ok {
			logger.Debug("Ignoring link for unsupported platform", zap.String("platform", string(p)))
			continue
		}
		if st == nil || st.Status() == StatusUnlinked {
			continue
		}
		next[p] = st
	}
	for p, st := range r.links {
		pending, ok := st.(Pending)
		if !ok {
			continue
		}
		if incoming, has := next[p]; has && incoming.Status() == StatusVerified {
			continue
		}
		next[p] = pending
	}
	r.links = next
}

// Set stores the state of a single platform.
func (r *Registry) Set(p Platform, st LinkState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st == nil || st.Status() == StatusUnlinked {
		delete(r.links, p)
		return
	}
	r.links[p] = st
}

// Clear forgets every link, including pending challenges.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.links = make(map[Platform]LinkState)
	r.mu.Unlock()
}

func copyState(st LinkState) LinkState {
	if v, ok := st.(Verified); ok {
		v.Stats = v.Stats.Clone()
		return v
	}
	return st
}

// Module provides the process-wide link registry.
var Module = fx.Module("platform",
	fx.Provide(NewRegistry),
)
