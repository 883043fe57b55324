package pool

import poolerrors "github.com/voxelcore/regionpool/internal/errors"

// Allocate reserves size bytes from the pool under its placement Policy,
// splitting the chosen gap into an allocation plus an optional residual
// gap. It returns out-of-space if no gap is large enough.
func (p *Pool) Allocate(size int) (Handle, error) {
	if err := p.checkOpen(); err != nil {
		return Handle{}, err
	}

	if size <= 0 {
		return Handle{}, poolerrors.Inconsistency("allocate: size must be > 0")
	}

	if p.numGaps == 0 {
		return Handle{}, poolerrors.OutOfSpace(size)
	}

	// Growth check happens before any record is captured by pointer below,
	// so a residual's acquire() can never trigger a mid-operation
	// reallocation that would invalidate target.
	p.arena.growIfNeeded()
	p.gaps.growIfNeeded()

	var (
		candidate gapEntry
		found     bool
	)

	if p.Policy == BestFit {
		candidate, found = p.gaps.bestFit(size)
	} else {
		candidate, found = p.firstFitScan(size)
	}

	if !found {
		return Handle{}, poolerrors.OutOfSpace(size)
	}

	if !p.gaps.remove(candidate.index) {
		return Handle{}, poolerrors.Inconsistency("allocate: candidate gap missing from index")
	}

	target := p.arena.get(candidate.index)
	residualSize := target.size - size

	target.size = size
	target.allocated = true

	if residualSize > 0 {
		residualIdx := p.arena.acquire()
		residual := p.arena.get(residualIdx)
		residual.base = target.base + size
		residual.size = residualSize
		residual.allocated = false
		residual.prev = candidate.index
		residual.next = target.next

		if target.next != nilIndex {
			p.arena.get(target.next).prev = residualIdx
		}

		target.next = residualIdx

		p.gaps.insert(gapEntry{size: residualSize, base: residual.base, index: residualIdx})
	} else {
		p.numGaps--
	}

	p.numAllocs++
	p.allocSize += size

	h := Handle{
		index:      candidate.index,
		generation: p.arena.generation(candidate.index),
		base:       target.base,
		size:       size,
	}

	p.notify()
	debugCheck(p)

	return h, nil
}

// firstFitScan walks the segment list in address order, returning the
// first gap with size >= request.
func (p *Pool) firstFitScan(request int) (gapEntry, bool) {
	for idx := p.head; idx != nilIndex; {
		s := p.arena.get(idx)
		if !s.allocated && s.size >= request {
			return gapEntry{size: s.size, base: s.base, index: idx}, true
		}

		idx = s.next
	}

	return gapEntry{}, false
}
