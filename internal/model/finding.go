package model

// Finding is a single indicator raised by a detector.
// Findings keep their raw weight so callers can explain a score
// even after the threat list has been deduplicated and truncated.
type Finding struct {
	// Category is the detector family, for example "keyword" or "tld".
	Category string `json:"category"`
	// Weight is the number of points this finding adds to the score.
	Weight int `json:"weight"`
	// Message is the human readable threat description.
	Message string `json:"message"`
}
