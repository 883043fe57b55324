package pool

import poolerrors "github.com/voxelcore/regionpool/internal/errors"

// Release returns a previously allocated Handle's bytes to the pool,
// coalescing with each adjacent gap neighbor. The order — forward then
// backward — is arbitrary; both must be attempted since the released
// segment may have gap neighbors on either side, or both.
func (p *Pool) Release(h Handle) error {
	if err := p.checkOpen(); err != nil {
		return err
	}

	if h.index < 0 || h.index >= len(p.arena.records) {
		return poolerrors.InvalidHandle("handle references no arena slot")
	}

	target := p.arena.get(h.index)

	if !target.used || !target.allocated {
		return poolerrors.InvalidHandle("handle already released or not allocated")
	}

	if p.arena.generation(h.index) != h.generation {
		return poolerrors.InvalidHandle("handle generation mismatch: stale or foreign")
	}

	// Retire this allocation's generation so the handle is rejected even if
	// the slot survives as a gap and is later split by another Allocate.
	p.arena.generations[h.index]++

	target.allocated = false
	p.numAllocs--
	p.allocSize -= target.size

	targetIdx := h.index

	if target.next != nilIndex {
		if err := p.coalesceForward(targetIdx, target); err != nil {
			return err
		}
	}

	if target.prev != nilIndex {
		newIdx, newTarget, err := p.coalesceBackward(targetIdx, target)
		if err != nil {
			return err
		}

		targetIdx, target = newIdx, newTarget
	}

	p.gaps.insert(gapEntry{size: target.size, base: target.base, index: targetIdx})
	p.numGaps++

	p.notify()
	debugCheck(p)

	return nil
}

// coalesceForward absorbs target.next into target when that neighbor is a
// gap, mutating target in place and retiring the neighbor's arena slot.
func (p *Pool) coalesceForward(targetIdx int, target *segment) error {
	next := p.arena.get(target.next)
	if next.allocated {
		return nil
	}

	absorbedIdx := target.next
	target.size += next.size
	target.next = next.next

	if next.next != nilIndex {
		p.arena.get(next.next).prev = targetIdx
	}

	if !p.gaps.remove(absorbedIdx) {
		return poolerrors.Inconsistency("release: forward gap missing from index")
	}

	p.arena.release(absorbedIdx)
	p.numGaps--

	return nil
}

// coalesceBackward absorbs target into target.prev when that neighbor is a
// gap, retiring target's own arena slot and returning the surviving
// segment's index and record.
func (p *Pool) coalesceBackward(targetIdx int, target *segment) (int, *segment, error) {
	prev := p.arena.get(target.prev)
	if prev.allocated {
		return targetIdx, target, nil
	}

	prevIdx := target.prev
	prev.size += target.size
	prev.next = target.next

	if target.next != nilIndex {
		p.arena.get(target.next).prev = prevIdx
	}

	if !p.gaps.remove(prevIdx) {
		return targetIdx, target, poolerrors.Inconsistency("release: backward gap missing from index")
	}

	p.arena.release(targetIdx)
	p.numGaps--

	return prevIdx, prev, nil
}
