package scenario

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxelcore/regionpool/internal/inspect"
)

func TestRun_PolicyDivergenceScenario(t *testing.T) {
	s := &Scenario{
		TotalSize: 100,
		Policy:    "best-fit",
		Operations: []Operation{
			{Op: "allocate", Size: 30},
			{Op: "allocate", Size: 30},
			{Op: "allocate", Size: 40},
			{Op: "release", Handle: 0},
			{Op: "release", Handle: 2},
			{Op: "allocate", Size: 25},
			{Op: "inspect"},
		},
	}

	steps, err := Run(s)
	require.NoError(t, err)
	require.Len(t, steps, 7)

	final := steps[len(steps)-1]
	require.Equal(t, "inspect", final.Operation.Op)
	require.Equal(t, []inspect.Segment{
		{Base: 0, Size: 25, Allocated: true},
		{Base: 25, Size: 5, Allocated: false},
		{Base: 30, Size: 30, Allocated: true},
		{Base: 60, Size: 40, Allocated: false},
	}, final.Segments)
}

func TestRun_StopsAtFirstError(t *testing.T) {
	s := &Scenario{
		TotalSize: 10,
		Operations: []Operation{
			{Op: "allocate", Size: 5},
			{Op: "allocate", Size: 100},
			{Op: "allocate", Size: 1},
		},
	}

	steps, err := Run(s)
	require.Error(t, err)
	require.ErrorContains(t, err, "out-of-space")
	require.Len(t, steps, 2)
}

func TestRun_RejectsUnknownPolicy(t *testing.T) {
	_, err := Run(&Scenario{TotalSize: 10, Policy: "worst-fit"})
	require.ErrorContains(t, err, "unknown policy")
}

func TestRun_ReleaseRejectsUnknownHandle(t *testing.T) {
	s := &Scenario{
		TotalSize: 10,
		Operations: []Operation{
			{Op: "release", Handle: 4},
		},
	}

	_, err := Run(s)
	require.ErrorContains(t, err, "invalid-handle")
}
