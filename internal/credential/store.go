// Package credential holds the current access credential for the running
// client process. Nothing here is ever written to disk.
package credential

import (
	"sync"

	"go.uber.org/fx"
)

// Store is the single mutable cell for the access credential.
// An empty value means the session is anonymous.
type Store interface {
	Get() string
	Set(token string)
	Clear()
}

// MemoryStore is a Store safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set replaces the credential wholesale.
func (s *MemoryStore) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *MemoryStore) Clear() {
	s.Set("")
}

// Module provides the process-wide credential store.
var Module = fx.Module("credential",
	fx.Provide(
		fx.Annotate(
			NewMemoryStore,
			fx.As(new(Store)),
		),
	),
)
