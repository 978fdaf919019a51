package model

import "time"

// AnalysisResult is the scored verdict for a single URL.
type AnalysisResult struct {
	// Score is the clamped risk score in [0, 100].
	Score int `json:"riskScore"`
	// Status is derived from Score by ClassifyScore.
	Status Status `json:"status"`
	// Threats holds at most three distinct messages in detector order.
	Threats []string `json:"threats"`
}

// Analysis carries one submitted URL through validation, scoring and storage.
// It is the unit of work for the pipeline and the input of report writers.
type Analysis struct {
	// Input is the string exactly as submitted.
	Input string `json:"input"`

	// URL is the validated, scheme-qualified form of Input.
	// Empty when validation failed.
	URL string `json:"url,omitempty"`

	// UserID identifies the owner when the result should be persisted.
	UserID string `json:"user_id,omitempty"`

	// Result is the scored verdict. Zero when the input was rejected.
	Result AnalysisResult `json:"result"`

	// Findings lists every raw finding, including those dropped from Threats.
	Findings []Finding `json:"findings,omitempty"`

	// ScanID is set once the result has been stored.
	ScanID string `json:"scan_id,omitempty"`

	// AnalyzedAt is when processing started.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Error records why the input could not be analyzed.
	Error string `json:"error,omitempty"`

	// PerformedSteps lists pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`
}

// NewAnalysis creates an Analysis for the given input.
func NewAnalysis(input string) *Analysis {
	return &Analysis{
		Input:      input,
		AnalyzedAt: time.Now(),
	}
}

// Failed reports whether the input was rejected.
func (a *Analysis) Failed() bool {
	return a.Error != ""
}

// AddStep records that a pipeline step ran.
func (a *Analysis) AddStep(name string) {
	a.PerformedSteps = append(a.PerformedSteps, name)
}

// Summary counts analyses by outcome.
type Summary struct {
	Total     int `json:"total"`
	Safe      int `json:"safe"`
	Warning   int `json:"warning"`
	Dangerous int `json:"dangerous"`
	Failed    int `json:"failed"`
}

// Summarize counts a set of analyses. Nil entries are ignored.
func Summarize(analyses []*Analysis) Summary {
	var s Summary
	for _, a := range analyses {
		if a == nil {
			continue
		}
		s.Total++
		if a.Failed() {
			s.Failed++
			continue
		}
		switch a.Result.Status {
		case StatusDangerous:
			s.Dangerous++
		case StatusWarning:
			s.Warning++
		default:
			s.Safe++
		}
	}
	return s
}
