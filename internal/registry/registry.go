// Package registry tracks open pools for a process. It is the collaborator
// spec.md names as "the process-level registry of pools", deliberately kept
// out of the allocator engine's core: its only contract is the open/get/
// close/list operations below, guarded by a mutex since, unlike a single
// pool, the registry may be shared across goroutines.
package registry

import (
	"sync"

	"github.com/google/uuid"

	poolerrors "github.com/voxelcore/regionpool/internal/errors"
	"github.com/voxelcore/regionpool/internal/metrics"
	"github.com/voxelcore/regionpool/internal/pool"
)

// Registry is a process-global, externally-synchronized table of open
// pools, mirroring the teacher's PoolAllocatorImpl map-of-pools pattern.
type Registry struct {
	mu    sync.RWMutex
	pools map[uuid.UUID]*pool.Pool

	observer metrics.Observer
}

// New creates an empty registry. Pass a non-nil observer (e.g. a
// *metrics.Registry) to have every pool created through this registry
// report its counters after each mutating call.
func New(observer metrics.Observer) *Registry {
	return &Registry{
		pools:    make(map[uuid.UUID]*pool.Pool),
		observer: observer,
	}
}

// Create opens a new pool and adds it to the registry.
func (r *Registry) Create(totalSize int, policy pool.Policy) (uuid.UUID, error) {
	p, err := pool.Open(totalSize, policy)
	if err != nil {
		return uuid.Nil, err
	}

	if r.observer != nil {
		p.SetObserver(r.observer)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pools[p.ID]; exists {
		return uuid.Nil, poolerrors.AlreadyInitialized(p.ID.String())
	}

	r.pools[p.ID] = p

	return p.ID, nil
}

// Get returns the pool registered under id.
func (r *Registry) Get(id uuid.UUID) (*pool.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pools[id]
	if !ok {
		return nil, poolerrors.NotInitialized(id.String())
	}

	return p, nil
}

// Close closes and forgets the pool registered under id. It refuses, just
// as pool.Pool.Close does, when the pool still has live allocations or
// un-coalesced gaps.
func (r *Registry) Close(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pools[id]
	if !ok {
		return poolerrors.NotInitialized(id.String())
	}

	if err := p.Close(); err != nil {
		return err
	}

	delete(r.pools, id)

	if forgetter, ok := r.observer.(interface{ Forget(string) }); ok {
		forgetter.Forget(id.String())
	}

	return nil
}

// List returns the IDs of every currently open pool.
func (r *Registry) List() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.pools))
	for id := range r.pools {
		ids = append(ids, id)
	}

	return ids
}
