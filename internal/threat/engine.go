package threat

import (
	"github.com/nao1215/phishguard/internal/model"
)

const (
	// MaxScore is the upper bound of a risk score.
	MaxScore = 100
	// MaxThreats is the number of distinct messages kept in a result.
	MaxThreats = 3
)

// Engine runs detectors in a fixed order and aggregates their findings.
// An Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	detectors []Detector
}

// Option configures an Engine.
type Option func(*Engine)

// WithDetectors replaces the built-in detectors.
// The order given is the evaluation order.
func WithDetectors(detectors ...Detector) Option {
	return func(e *Engine) {
		e.detectors = append([]Detector(nil), detectors...)
	}
}

// DefaultDetectors returns the built-in detectors in evaluation order.
func DefaultDetectors() []Detector {
	return []Detector{
		NewKeywordDetector(),
		NewStructureDetector(),
		NewProtocolDetector(),
		NewIPLiteralDetector(),
		NewTLDDetector(),
		NewCredentialDetector(),
		NewHomographDetector(),
	}
}

// NewEngine creates an Engine with the built-in detectors.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{detectors: DefaultDetectors()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Detectors returns the detectors in evaluation order.
func (e *Engine) Detectors() []Detector {
	return append([]Detector(nil), e.detectors...)
}

// Analyze scores raw. It never fails: every string yields a result.
func (e *Engine) Analyze(raw string) model.AnalysisResult {
	return Aggregate(e.Explain(raw))
}

// Explain returns every finding for raw in evaluation order, before
// deduplication and truncation.
func (e *Engine) Explain(raw string) []model.Finding {
	u := NewURL(raw)
	findings := make([]model.Finding, 0, len(e.detectors))
	for _, d := range e.detectors {
		findings = append(findings, d.Detect(u)...)
	}
	return findings
}

// Aggregate sums finding weights, clamps the score to MaxScore and keeps
// the first MaxThreats distinct messages in order.
func Aggregate(findings []model.Finding) model.AnalysisResult {
	score := 0
	threats := make([]string, 0, MaxThreats)
	seen := make(map[string]struct{}, len(findings))

	for _, f := range findings {
		score += f.Weight
		if _, ok := seen[f.Message]; ok {
			continue
		}
		seen[f.Message] = struct{}{}
		if len(threats) < MaxThreats {
			threats = append(threats, f.Message)
		}
	}
	score = min(score, MaxScore)

	return model.AnalysisResult{
		Score:   score,
		Status:  model.ClassifyScore(score),
		Threats: threats,
	}
}

var defaultEngine = NewEngine()

// Analyze scores raw with the built-in detectors.
func Analyze(raw string) model.AnalysisResult {
	return defaultEngine.Analyze(raw)
}
