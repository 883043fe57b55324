// Package pool implements the fixed-region memory pool allocator engine:
// the region, its segment list, the gap index, and the placement/split/
// coalesce algorithms. It is single-owner and synchronous — callers needing
// concurrent access must wrap calls in a mutex external to the engine.
// internal/registry locks only its own table of pools; it does not
// serialize calls on a pool it hands out.
package pool

import (
	"github.com/google/uuid"

	poolerrors "github.com/voxelcore/regionpool/internal/errors"
	"github.com/voxelcore/regionpool/internal/metrics"
)

// initialCapacity is the starting capacity for both the node arena and the
// gap index; the 0.75/x2 growth rule takes over from there.
const initialCapacity = 8

// DebugChecks, when set, makes Allocate and Release run CheckInvariants
// after every mutation and panic on the first violation. It mirrors the
// teacher's EnableDebug/EnableLeakCheck switches: off by default in
// production, flipped on by tests and debug builds that want invariant
// violations to fail loudly instead of corrupting state silently.
var DebugChecks = false

// Pool manages sub-allocation of a single fixed-size region of bytes,
// allocated by Open, under a chosen placement Policy.
type Pool struct {
	ID     uuid.UUID
	Policy Policy

	region []byte

	arena *arena
	gaps  *gapIndex

	head int // arena index of the lowest-address segment

	totalSize int
	allocSize int
	numAllocs int
	numGaps   int

	closed bool

	observer metrics.Observer
}

// Open creates a pool managing a freshly allocated region of totalSize
// bytes, with one gap segment covering the whole region.
func Open(totalSize int, policy Policy) (*Pool, error) {
	if totalSize <= 0 {
		return nil, poolerrors.OutOfMemory("pool_open: region size must be positive")
	}

	region := make([]byte, totalSize)

	a := newArena(initialCapacity)
	g := newGapIndex(initialCapacity)

	rootIdx := a.acquire()
	root := a.get(rootIdx)
	root.base = 0
	root.size = totalSize
	root.allocated = false

	g.insert(gapEntry{size: totalSize, base: 0, index: rootIdx})

	return &Pool{
		ID:        uuid.New(),
		Policy:    policy,
		region:    region,
		arena:     a,
		gaps:      g,
		head:      rootIdx,
		totalSize: totalSize,
		numGaps:   1,
	}, nil
}

// SetObserver registers o to receive a counter Snapshot after every
// mutating operation. Pass nil to stop observing.
func (p *Pool) SetObserver(o metrics.Observer) {
	p.observer = o
}

// Close releases the pool's internal structures. It refuses when any
// allocation is outstanding or more than one gap remains, since either
// would mean a live caller reference is about to be invalidated.
func (p *Pool) Close() error {
	if p.numAllocs != 0 || p.numGaps != 1 {
		return poolerrors.NotFreed(p.numAllocs, p.numGaps)
	}

	p.region = nil
	p.arena = nil
	p.gaps = nil
	p.closed = true

	return nil
}

// checkOpen rejects a call against a pool whose Close has already
// succeeded, rather than letting it nil-deref the engine's internal
// structures. Using a closed handle is caller error, so this returns the
// same taxonomy as an invalid handle rather than panicking (spec §7: the
// engine never panics on caller error).
func (p *Pool) checkOpen() error {
	if p.closed {
		return poolerrors.InvalidHandle("pool is closed")
	}

	return nil
}

// Region returns the byte slice backing this pool. Callers must not write
// outside any handle's [Base, Base+Size) range, and must not retain this
// slice past Close.
func (p *Pool) Region() []byte { return p.region }

// TotalSize returns the pool's fixed region size.
func (p *Pool) TotalSize() int { return p.totalSize }

// AllocSize returns the total bytes currently allocated.
func (p *Pool) AllocSize() int { return p.allocSize }

// NumAllocs returns the number of live allocations.
func (p *Pool) NumAllocs() int { return p.numAllocs }

// NumGaps returns the number of free gap segments.
func (p *Pool) NumGaps() int { return p.numGaps }

func (p *Pool) notify() {
	if p.observer == nil {
		return
	}

	p.observer.Observe(metrics.Snapshot{
		PoolID:    p.ID.String(),
		TotalSize: p.totalSize,
		AllocSize: p.allocSize,
		NumAllocs: p.numAllocs,
		NumGaps:   p.numGaps,
	})
}
