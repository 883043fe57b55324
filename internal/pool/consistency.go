package pool

import (
	"fmt"

	poolerrors "github.com/voxelcore/regionpool/internal/errors"
)

// CheckInvariants walks the pool's segment list and gap index and verifies
// every invariant in spec §3/§8. It never mutates state; callers — tests in
// particular — are expected to call it after every operation.
func CheckInvariants(p *Pool) error {
	if p.closed {
		return nil
	}

	var violations []string

	expectBase := 0
	numAllocs := 0
	numGaps := 0
	allocSize := 0
	gapSize := 0
	prevWasGap := false

	lastIdx := nilIndex
	idx := p.head

	for idx != nilIndex {
		s := p.arena.get(idx)

		if !s.used {
			violations = append(violations, fmt.Sprintf("segment %d in list but marked unused", idx))
		}

		if s.base != expectBase {
			violations = append(violations, fmt.Sprintf("segment %d base %d != expected %d", idx, s.base, expectBase))
		}

		if s.prev != lastIdx {
			violations = append(violations, fmt.Sprintf("segment %d prev %d != expected %d", idx, s.prev, lastIdx))
		}

		if s.allocated {
			numAllocs++
			allocSize += s.size
			prevWasGap = false
		} else {
			numGaps++
			gapSize += s.size

			if prevWasGap {
				violations = append(violations, fmt.Sprintf("segment %d is a gap adjacent to another gap", idx))
			}

			prevWasGap = true
		}

		expectBase += s.size
		lastIdx = idx
		idx = s.next
	}

	if expectBase != p.totalSize {
		violations = append(violations, fmt.Sprintf("segments cover %d bytes, expected total_size %d", expectBase, p.totalSize))
	}

	if numAllocs != p.numAllocs {
		violations = append(violations, fmt.Sprintf("counted %d allocations, pool reports %d", numAllocs, p.numAllocs))
	}

	if numGaps != p.numGaps {
		violations = append(violations, fmt.Sprintf("counted %d gaps, pool reports %d", numGaps, p.numGaps))
	}

	if allocSize != p.allocSize {
		violations = append(violations, fmt.Sprintf("counted alloc_size %d, pool reports %d", allocSize, p.allocSize))
	}

	if allocSize+gapSize != p.totalSize {
		violations = append(violations, fmt.Sprintf("alloc_size+gap_size=%d != total_size %d", allocSize+gapSize, p.totalSize))
	}

	if p.gaps.len() != numGaps {
		violations = append(violations, fmt.Sprintf("gap index has %d entries, list has %d gaps", p.gaps.len(), numGaps))
	}

	for i := 1; i < len(p.gaps.entries); i++ {
		if gapLess(p.gaps.entries[i], p.gaps.entries[i-1]) {
			violations = append(violations, fmt.Sprintf("gap index not sorted at position %d", i))
		}
	}

	seen := make(map[int]bool, len(p.gaps.entries))

	for _, e := range p.gaps.entries {
		if seen[e.index] {
			violations = append(violations, fmt.Sprintf("gap index references segment %d more than once", e.index))
		}

		seen[e.index] = true

		if p.arena.get(e.index).allocated {
			violations = append(violations, fmt.Sprintf("gap index references allocated segment %d", e.index))
		}
	}

	if len(violations) == 0 {
		return nil
	}

	return poolerrors.Inconsistency(fmt.Sprintf("%d invariant violation(s): %v", len(violations), violations))
}

// debugCheck runs CheckInvariants when DebugChecks is set, panicking on the
// first violation instead of letting corrupted state propagate silently.
func debugCheck(p *Pool) {
	if !DebugChecks {
		return
	}

	if err := CheckInvariants(p); err != nil {
		panic(err)
	}
}
