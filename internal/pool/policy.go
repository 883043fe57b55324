package pool

// Policy selects how allocate chooses among candidate gaps.
type Policy int

const (
	// FirstFit scans the segment list in address order and picks the first
	// gap that fits.
	FirstFit Policy = iota
	// BestFit scans the gap index from position 0 and picks the smallest
	// fitting gap, ties broken toward the lowest address.
	BestFit
)

func (p Policy) String() string {
	switch p {
	case FirstFit:
		return "first-fit"
	case BestFit:
		return "best-fit"
	default:
		return "unknown"
	}
}
