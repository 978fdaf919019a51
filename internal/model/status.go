package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStatus is returned when a status string cannot be parsed.
var ErrUnknownStatus = errors.New("unknown status")

// unknownStr is the string representation for unknown values.
const unknownStr = "unknown"

// Status is the verdict assigned to an analyzed URL.
// The zero value is StatusSafe.
type Status int

const (
	// StatusSafe indicates a score below WarningThreshold.
	StatusSafe Status = iota
	// StatusWarning indicates a score in [WarningThreshold, DangerousThreshold).
	StatusWarning
	// StatusDangerous indicates a score of at least DangerousThreshold.
	StatusDangerous
)

const (
	// WarningThreshold is the lowest score classified as a warning.
	WarningThreshold = 30
	// DangerousThreshold is the lowest score classified as dangerous.
	DangerousThreshold = 60
)

// ClassifyScore maps a risk score to its Status.
func ClassifyScore(score int) Status {
	switch {
	case score >= DangerousThreshold:
		return StatusDangerous
	case score >= WarningThreshold:
		return StatusWarning
	default:
		return StatusSafe
	}
}

// String returns the lowercase wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusSafe:
		return "safe"
	case StatusWarning:
		return "warning"
	case StatusDangerous:
		return "dangerous"
	default:
		return unknownStr
	}
}

// ParseStatus converts a wire name back to a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safe":
		return StatusSafe, nil
	case "warning":
		return StatusWarning, nil
	case "dangerous":
		return StatusDangerous, nil
	default:
		return StatusSafe, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// StatusInfo describes what a status means to the person who submitted the URL.
type StatusInfo struct {
	Status         Status
	Summary        string
	Recommendation string
}

var statusInfoMapping = map[Status]StatusInfo{
	StatusSafe: {
		Status:         StatusSafe,
		Summary:        "No significant phishing indicators were found.",
		Recommendation: "The link looks ordinary. Stay alert for unexpected requests for credentials.",
	},
	StatusWarning: {
		Status:         StatusWarning,
		Summary:        "Some phishing indicators were found.",
		Recommendation: "Check the domain carefully before entering any personal information.",
	},
	StatusDangerous: {
		Status:         StatusDangerous,
		Summary:        "Multiple strong phishing indicators were found.",
		Recommendation: "Do not open this link or enter credentials on the page it leads to.",
	},
}

// GetStatusInfo returns the description of a status.
// Unknown values fall back to the safe description.
func GetStatusInfo(s Status) StatusInfo {
	if info, ok := statusInfoMapping[s]; ok {
		return info
	}
	return statusInfoMapping[StatusSafe]
}
