// Package scenario loads a JSON-described sequence of pool operations and
// runs it against a single in-process pool, the way cmd/poolctl's "run"
// subcommand drives one.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	poolerrors "github.com/voxelcore/regionpool/internal/errors"
	"github.com/voxelcore/regionpool/internal/inspect"
	"github.com/voxelcore/regionpool/internal/pool"
)

// Operation is one step of a scenario file: "allocate" (needs Size),
// "release" (needs Handle, an index into the handles allocate has returned
// so far, in order), or "inspect" (records a snapshot in its Step and takes
// no fields).
type Operation struct {
	Op     string `json:"op"`
	Size   int    `json:"size,omitempty"`
	Handle int    `json:"handle,omitempty"`
}

// Scenario is the on-disk shape of a scenario file.
type Scenario struct {
	TotalSize  int         `json:"total_size"`
	Policy     string      `json:"policy"`
	Operations []Operation `json:"operations"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	return &s, nil
}

func parsePolicy(name string) (pool.Policy, error) {
	switch name {
	case "", "first-fit":
		return pool.FirstFit, nil
	case "best-fit":
		return pool.BestFit, nil
	default:
		return 0, fmt.Errorf("unknown policy %q", name)
	}
}

// Step is one line of narration a Run emits after executing an operation,
// letting the caller render progress without Run taking an io.Writer.
type Step struct {
	Operation Operation
	Segments  []inspect.Segment
	Err       error
}

// Run opens a pool per the scenario's total_size/policy and executes each
// operation in order, stopping at the first error. It returns one Step per
// attempted operation, including the failing one if any.
func Run(s *Scenario) ([]Step, error) {
	policy, err := parsePolicy(s.Policy)
	if err != nil {
		return nil, err
	}

	p, err := pool.Open(s.TotalSize, policy)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	var (
		handles []pool.Handle
		steps   []Step
	)

	for _, op := range s.Operations {
		step := Step{Operation: op}

		switch op.Op {
		case "allocate":
			h, allocErr := p.Allocate(op.Size)
			if allocErr == nil {
				handles = append(handles, h)
			}

			step.Err = allocErr

		case "release":
			if op.Handle < 0 || op.Handle >= len(handles) {
				step.Err = poolerrors.InvalidHandle(fmt.Sprintf("scenario references unknown handle %d", op.Handle))
			} else {
				step.Err = p.Release(handles[op.Handle])
			}

		case "inspect":
			step.Segments = inspect.Snapshot(p)

		default:
			step.Err = fmt.Errorf("unknown operation %q", op.Op)
		}

		steps = append(steps, step)

		if step.Err != nil {
			return steps, step.Err
		}
	}

	return steps, nil
}
