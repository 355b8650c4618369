package model

import "fmt"

// Status is the outcome of a single testcase. The integer ordering is
// load-bearing: MIN(status) over a set of rows yields the worst outcome
// present, so ERROR < FAIL < PASS < SKIP.
type Status int

const (
	StatusError Status = iota
	StatusFail
	StatusPass
	StatusSkip
)

var statusNames = map[Status]string{
	StatusError: "error",
	StatusFail:  "fail",
	StatusPass:  "pass",
	StatusSkip:  "skip",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus maps a wire string ("pass", "fail", "error", "skip") to
// its Status value.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "pass":
		return StatusPass, nil
	case "fail":
		return StatusFail, nil
	case "error":
		return StatusError, nil
	case "skip":
		return StatusSkip, nil
	}
	return 0, fmt.Errorf("Unknown status: %s", s)
}
