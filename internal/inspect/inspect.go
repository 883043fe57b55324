// Package inspect provides the read-only enumeration collaborator spec.md
// names: a pure walk of a pool's segment list into a stable snapshot, with
// text and JSON rendering for CLI and test use. It never mutates the pool.
package inspect

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxelcore/regionpool/internal/pool"
)

// Segment is one entry of an inspect walk: a size and whether it is
// currently allocated, in address order.
type Segment struct {
	Base      int  `json:"base"`
	Size      int  `json:"size"`
	Allocated bool `json:"allocated"`
}

// Snapshot walks p's segment list in address order and returns an ordered
// sequence of (size, allocated) segments covering the region. Two
// successive calls against an unmutated pool return equal sequences.
func Snapshot(p *pool.Pool) []Segment {
	views := p.Walk()
	segments := make([]Segment, len(views))

	for i, v := range views {
		segments[i] = Segment{Base: v.Base, Size: v.Size, Allocated: v.Allocated}
	}

	return segments
}

// Render formats segments as a single human-readable line per segment,
// address order, e.g. "[0,100) alloc" / "[100,1000) gap".
func Render(segments []Segment) string {
	var b strings.Builder

	for _, s := range segments {
		kind := "gap"
		if s.Allocated {
			kind = "alloc"
		}

		fmt.Fprintf(&b, "[%d,%d) %s\n", s.Base, s.Base+s.Size, kind)
	}

	return b.String()
}

// RenderJSON formats segments as an indented JSON array.
func RenderJSON(segments []Segment) (string, error) {
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}
