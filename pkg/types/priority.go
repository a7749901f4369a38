package types

import (
	"fmt"
	"strconv"
)

// Priority is a per-file download priority as the daemon encodes it
// (tr_priority_t: -1 low, 0 normal, 1 high).
type Priority int64

// File priorities.
const (
	PriorityLow    Priority = -1
	PriorityNormal Priority = 0
	PriorityHigh   Priority = 1
)

// UnmarshalJSON rejects anything outside the daemon's three valid values
// so a protocol drift shows up at the boundary instead of deep in the UI.
func (p *Priority) UnmarshalJSON(buf []byte) error {
	i, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid priority %q", string(buf))
	}
	switch x := Priority(i); x {
	case PriorityLow, PriorityNormal, PriorityHigh:
		*p = x
		return nil
	}
	return fmt.Errorf("invalid priority value %d", i)
}

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	}
	return fmt.Sprintf("priority(%d)", int64(p))
}
