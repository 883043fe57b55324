package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_FreshPool(t *testing.T) {
	p, err := Open(1000, BestFit)
	require.NoError(t, err)
	require.NoError(t, CheckInvariants(p))

	require.Equal(t, 0, p.NumAllocs())
	require.Equal(t, 1, p.NumGaps())
	require.Equal(t, 0, p.AllocSize())
	require.Equal(t, 1000, p.TotalSize())
}

func TestAllocate_SingleAllocation(t *testing.T) {
	p, err := Open(1000, BestFit)
	require.NoError(t, err)

	h, err := p.Allocate(100)
	require.NoError(t, err)
	require.NoError(t, CheckInvariants(p))

	require.Equal(t, 0, h.Base())
	require.Equal(t, 100, h.Size())
	require.Equal(t, 1, p.NumAllocs())
	require.Equal(t, 1, p.NumGaps())
	require.Equal(t, 100, p.AllocSize())
}

func TestAllocate_SplitMergeRoundTrip(t *testing.T) {
	p, err := Open(1000, BestFit)
	require.NoError(t, err)

	h1, err := p.Allocate(100)
	require.NoError(t, err)
	require.Equal(t, 0, h1.Base())

	h2, err := p.Allocate(200)
	require.NoError(t, err)
	require.Equal(t, 100, h2.Base())

	h3, err := p.Allocate(50)
	require.NoError(t, err)
	require.Equal(t, 300, h3.Base())

	require.NoError(t, CheckInvariants(p))
	require.Equal(t, 1, p.NumGaps())
	require.Equal(t, 350, p.AllocSize())

	require.NoError(t, p.Release(h2))
	require.NoError(t, CheckInvariants(p))
	require.Equal(t, 2, p.NumGaps(), "released segment has an allocation on each side, no coalesce")

	require.NoError(t, p.Release(h3))
	require.NoError(t, CheckInvariants(p))

	require.Equal(t, 1, p.NumAllocs())
	require.Equal(t, 1, p.NumGaps())
	require.Equal(t, 100, p.AllocSize())
}

func TestAllocate_Exhaustion(t *testing.T) {
	p, err := Open(300, FirstFit)
	require.NoError(t, err)

	_, err = p.Allocate(300)
	require.NoError(t, err)
	require.NoError(t, CheckInvariants(p))

	before := snapshotCounters(p)

	_, err = p.Allocate(1)
	require.ErrorContains(t, err, "out-of-space")
	require.Equal(t, before, snapshotCounters(p), "state must be unchanged after out-of-space")
	require.Equal(t, 1, p.NumAllocs())
	require.Equal(t, 0, p.NumGaps())
}

func TestAllocate_PolicyDivergence(t *testing.T) {
	newScenario := func(policy Policy) *Pool {
		p, err := Open(100, policy)
		require.NoError(t, err)

		h1, err := p.Allocate(30) // base 0
		require.NoError(t, err)
		_, err = p.Allocate(30) // base 30, stays allocated
		require.NoError(t, err)
		h3, err := p.Allocate(40) // base 60
		require.NoError(t, err)

		require.NoError(t, p.Release(h1))
		require.NoError(t, p.Release(h3))
		require.NoError(t, CheckInvariants(p))

		return p
	}

	for _, policy := range []Policy{BestFit, FirstFit} {
		p := newScenario(policy)

		h, err := p.Allocate(25)
		require.NoError(t, err)
		require.Equal(t, 0, h.Base(), "%s should pick the gap at base 0 for size 25", policy)
	}

	pBest := newScenario(BestFit)
	hBest, err := pBest.Allocate(35)
	require.NoError(t, err)
	require.Equal(t, 60, hBest.Base(), "best-fit should pick the smaller-but-sufficient gap at 60")

	pFirst := newScenario(FirstFit)
	hFirst, err := pFirst.Allocate(35)
	require.NoError(t, err)
	require.Equal(t, 60, hFirst.Base(), "first-fit also lands on 60: it's the first gap in address order that fits")
}

func TestClose_RefusesWithLiveAllocations(t *testing.T) {
	p, err := Open(100, BestFit)
	require.NoError(t, err)

	h, err := p.Allocate(10)
	require.NoError(t, err)

	err = p.Close()
	require.ErrorContains(t, err, "not-freed")

	require.NoError(t, p.Release(h))
	require.NoError(t, p.Close())
}

func TestAllocate_RefusesAfterClose(t *testing.T) {
	p, err := Open(100, BestFit)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = p.Allocate(10)
	require.ErrorContains(t, err, "invalid-handle")
}

func TestRelease_RefusesAfterClose(t *testing.T) {
	p, err := Open(100, BestFit)
	require.NoError(t, err)

	h, err := p.Allocate(10)
	require.NoError(t, err)
	require.NoError(t, p.Release(h))
	require.NoError(t, p.Close())

	err = p.Release(h)
	require.ErrorContains(t, err, "invalid-handle")
}

func TestWalk_ReturnsNilAfterClose(t *testing.T) {
	p, err := Open(100, BestFit)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	require.Nil(t, p.Walk())
}

func TestDebugChecks_PanicsOnInjectedViolation(t *testing.T) {
	DebugChecks = true
	defer func() { DebugChecks = false }()

	p, err := Open(100, BestFit)
	require.NoError(t, err)

	require.Panics(t, func() {
		p.numGaps = 99 // corrupt state before the post-mutation debugCheck runs
		_, _ = p.Allocate(10)
	})
}

func TestRelease_ExactSizeNoResidual(t *testing.T) {
	p, err := Open(500, BestFit)
	require.NoError(t, err)

	h, err := p.Allocate(500)
	require.NoError(t, err)
	require.Equal(t, 0, p.NumGaps())

	require.NoError(t, p.Release(h))
	require.NoError(t, CheckInvariants(p))
	require.Equal(t, 1, p.NumGaps())
	require.Equal(t, 500, p.TotalSize())
}

func TestRelease_LeftmostCoalescesForwardOnly(t *testing.T) {
	p, err := Open(300, FirstFit)
	require.NoError(t, err)

	h1, err := p.Allocate(100)
	require.NoError(t, err)
	h2, err := p.Allocate(100)
	require.NoError(t, err)
	_, err = p.Allocate(100)
	require.NoError(t, err)

	require.NoError(t, p.Release(h2))
	require.NoError(t, p.Release(h1))
	require.NoError(t, CheckInvariants(p))
	require.Equal(t, 1, p.NumGaps())
}

func TestRelease_RightmostCoalescesBackwardOnly(t *testing.T) {
	p, err := Open(300, FirstFit)
	require.NoError(t, err)

	_, err = p.Allocate(100)
	require.NoError(t, err)
	h2, err := p.Allocate(100)
	require.NoError(t, err)
	h3, err := p.Allocate(100)
	require.NoError(t, err)

	require.NoError(t, p.Release(h2))
	require.NoError(t, p.Release(h3))
	require.NoError(t, CheckInvariants(p))
	require.Equal(t, 1, p.NumGaps())
}

func TestRelease_BetweenTwoGapsCoalescesBoth(t *testing.T) {
	p, err := Open(300, FirstFit)
	require.NoError(t, err)

	h1, err := p.Allocate(100)
	require.NoError(t, err)
	h2, err := p.Allocate(100)
	require.NoError(t, err)
	h3, err := p.Allocate(100)
	require.NoError(t, err)

	require.NoError(t, p.Release(h1))
	require.NoError(t, p.Release(h3))
	require.NoError(t, CheckInvariants(p))
	require.Equal(t, 2, p.NumGaps())

	require.NoError(t, p.Release(h2))
	require.NoError(t, CheckInvariants(p))
	require.Equal(t, 1, p.NumGaps())
}

func TestRelease_InvalidHandle(t *testing.T) {
	p, err := Open(100, BestFit)
	require.NoError(t, err)

	h, err := p.Allocate(10)
	require.NoError(t, err)

	require.NoError(t, p.Release(h))

	err = p.Release(h)
	require.ErrorContains(t, err, "invalid-handle")
}

func TestAllocate_ReleaseRoundTripIsByteIdentical(t *testing.T) {
	p, err := Open(1000, BestFit)
	require.NoError(t, err)

	before := snapshotCounters(p)

	h, err := p.Allocate(250)
	require.NoError(t, err)
	require.NoError(t, p.Release(h))
	require.NoError(t, CheckInvariants(p))

	require.Equal(t, before, snapshotCounters(p))
	require.Equal(t, 1, p.NumGaps())
}

func TestAllocate_PermutedReleaseReturnsToSingleGap(t *testing.T) {
	permutations := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}

	for _, order := range permutations {
		p, err := Open(400, BestFit)
		require.NoError(t, err)

		handles := make([]Handle, 4)
		for i := 0; i < 4; i++ {
			h, err := p.Allocate(100)
			require.NoError(t, err)
			handles[i] = h
		}

		for _, i := range order {
			require.NoError(t, p.Release(handles[i]))
			require.NoError(t, CheckInvariants(p))
		}

		require.Equal(t, 0, p.NumAllocs())
		require.Equal(t, 1, p.NumGaps())
		require.Equal(t, 400, p.gaps.entries[0].size)
	}
}

func TestArena_GrowthAcrossManyAllocations(t *testing.T) {
	const n = 64

	p, err := Open(n*20, FirstFit)
	require.NoError(t, err)

	handles := make([]Handle, 0, n)

	for i := 0; i < n; i++ {
		h, err := p.Allocate(10)
		require.NoError(t, err)
		handles = append(handles, h)
		require.NoError(t, CheckInvariants(p))
	}

	for i := 0; i < n; i += 2 {
		require.NoError(t, p.Release(handles[i]))
		require.NoError(t, CheckInvariants(p))
	}

	for i := 1; i < n; i += 2 {
		require.NoError(t, p.Release(handles[i]))
		require.NoError(t, CheckInvariants(p))
	}

	require.Equal(t, 0, p.NumAllocs())
	require.Equal(t, 1, p.NumGaps())
}

type counterSnapshot struct {
	allocSize, numAllocs, numGaps int
}

func snapshotCounters(p *Pool) counterSnapshot {
	return counterSnapshot{allocSize: p.allocSize, numAllocs: p.numAllocs, numGaps: p.numGaps}
}
