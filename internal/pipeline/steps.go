package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/phishguard/internal/model"
	"github.com/nao1215/phishguard/internal/threat"
)

// Step names as recorded in Analysis.PerformedSteps.
const (
	StepValidate = "validate"
	StepAnalyze  = "analyze"
	StepSave     = "save"
)

// ValidateStep checks the input against the URL grammar and stores the
// scheme-qualified form in Analysis.URL.
type ValidateStep struct{}

// NewValidateStep creates a new validation step.
func NewValidateStep() *ValidateStep {
	return &ValidateStep{}
}

// Name returns the step name.
func (s *ValidateStep) Name() string {
	return StepValidate
}

// Do validates a.Input.
func (s *ValidateStep) Do(_ context.Context, a *model.Analysis) error {
	target, err := model.NewTargetURL(a.Input)
	if err != nil {
		return err
	}
	a.URL = target.String()
	return nil
}

// AnalyzeStep scores the validated URL with a threat engine.
type AnalyzeStep struct {
	engine *threat.Engine
}

// NewAnalyzeStep creates a new analysis step. A nil engine uses the
// built-in detectors.
func NewAnalyzeStep(engine *threat.Engine) *AnalyzeStep {
	if engine == nil {
		engine = threat.NewEngine()
	}
	return &AnalyzeStep{engine: engine}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return StepAnalyze
}

// Do fills a.Result and a.Findings. It scores a.URL when validation ran,
// otherwise the raw input.
func (s *AnalyzeStep) Do(_ context.Context, a *model.Analysis) error {
	target := a.URL
	if target == "" {
		target = a.Input
	}
	a.Findings = s.engine.Explain(target)
	a.Result = threat.Aggregate(a.Findings)
	return nil
}

// ScanSaver persists analysis results.
// database.ScanDB satisfies this interface.
type ScanSaver interface {
	InsertScan(ctx context.Context, userID, url string, result model.AnalysisResult) (*model.ScanRecord, error)
}

// SaveStep stores the result for the analysis owner.
// Storage failures are logged and never fail the analysis.
type SaveStep struct {
	saver  ScanSaver
	logger *slog.Logger
}

// SaveStepOption configures a SaveStep.
type SaveStepOption func(*SaveStep)

// WithSaveLogger sets a custom logger for the save step.
func WithSaveLogger(logger *slog.Logger) SaveStepOption {
	return func(s *SaveStep) {
		s.logger = logger
	}
}

// NewSaveStep creates a new persistence step.
func NewSaveStep(saver ScanSaver, opts ...SaveStepOption) *SaveStep {
	s := &SaveStep{saver: saver}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return StepSave
}

// Do saves a when it has an owner and a saver is configured.
func (s *SaveStep) Do(ctx context.Context, a *model.Analysis) error {
	if s.saver == nil || a.UserID == "" || a.Failed() {
		return nil
	}

	url := a.URL
	if url == "" {
		url = a.Input
	}

	record, err := s.saver.InsertScan(ctx, a.UserID, url, a.Result)
	if err != nil {
		s.logger.Error("failed to save scan",
			"user_id", a.UserID,
			"url", url,
			"error", err,
		)
		return nil
	}

	a.ScanID = record.ID
	s.logger.Info("saved scan",
		"user_id", a.UserID,
		"url", url,
		"scan_id", record.ID,
	)
	return nil
}

// NewAnalysisPipeline returns a factory for the standard validate, analyze
// and save chain. The save step is omitted when saver is nil.
func NewAnalysisPipeline(engine *threat.Engine, saver ScanSaver, logger *slog.Logger) func() *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return func() *Pipeline {
		p := New(WithLogger(logger))
		p.AddSteps(NewValidateStep(), NewAnalyzeStep(engine))
		if saver != nil {
			p.AddStep(NewSaveStep(saver, WithSaveLogger(logger)))
		}
		return p
	}
}
