package model

// Status represents the outcome of a single compliance check or of a
// whole audit. The overall audit status is derived from the per-check
// statuses using a fixed precedence: fail > error > review > pass.
//
// Design decision: We use iota-based constants ordered by precedence
// rather than string constants so that deriving the overall status is a
// simple max() over recorded results and does not depend on the order in
// which checks completed. The String() method provides the wire form.
type Status int

const (
	// StatusPass indicates the check found no policy violation.
	StatusPass Status = iota

	// StatusReview indicates the check found something that needs a
	// human decision but is not a hard violation (e.g. a redirect
	// response without a destination header).
	StatusReview

	// StatusError indicates the check could not complete: network
	// failure, timeout, or a malformed remote response. Errors never
	// abort sibling checks; they are recorded and aggregated.
	StatusError

	// StatusFail indicates a policy violation. A single fail makes the
	// whole audit fail regardless of other results.
	StatusFail
)

// String returns the wire representation of the status.
// These strings are part of the external report contract and must
// remain stable across releases.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusReview:
		return "review"
	case StatusError:
		return "error"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// ParseStatus converts a wire string back into a Status.
// Unknown strings map to StatusError so that a corrupted stored value
// surfaces as something that demands attention rather than a silent pass.
func ParseStatus(s string) Status {
	switch s {
	case "pass":
		return StatusPass
	case "review":
		return StatusReview
	case "error":
		return StatusError
	case "fail":
		return StatusFail
	default:
		return StatusError
	}
}

// Worst returns the higher-precedence of the two statuses.
func (s Status) Worst(other Status) Status {
	if other > s {
		return other
	}
	return s
}

// MarshalJSON serializes the status as its wire string.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON deserializes the status from its wire string.
func (s *Status) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	*s = ParseStatus(str)
	return nil
}
