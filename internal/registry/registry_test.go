package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxelcore/regionpool/internal/pool"
)

func TestRegistry_CreateGetClose(t *testing.T) {
	r := New(nil)

	id, err := r.Create(1024, pool.BestFit)
	require.NoError(t, err)

	p, err := r.Get(id)
	require.NoError(t, err)
	require.Equal(t, 1024, p.TotalSize())

	require.Contains(t, r.List(), id)

	require.NoError(t, r.Close(id))

	_, err = r.Get(id)
	require.ErrorContains(t, err, "not-initialized")
}

func TestRegistry_CloseRefusesWithLiveAllocations(t *testing.T) {
	r := New(nil)

	id, err := r.Create(1024, pool.BestFit)
	require.NoError(t, err)

	p, err := r.Get(id)
	require.NoError(t, err)

	h, err := p.Allocate(10)
	require.NoError(t, err)

	err = r.Close(id)
	require.ErrorContains(t, err, "not-freed")

	require.NoError(t, p.Release(h))
	require.NoError(t, r.Close(id))
}
