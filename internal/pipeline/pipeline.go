package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/phishguard/internal/model"
)

// Step is a single stage of URL processing.
// Steps run in sequence, each receiving the analysis built so far.
type Step interface {
	// Do executes the step. A returned error marks the analysis as failed;
	// problems that should not stop processing are logged and return nil.
	Do(ctx context.Context, a *model.Analysis) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes an ordered list of steps against one analysis.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError keeps running later steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to run the remaining steps
// after one fails. The first error is still recorded on the analysis.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step in order against a.
//
// Cancellation is checked between steps. When continueOnError is false the
// first failing step ends execution and its error is returned.
func (p *Pipeline) Execute(ctx context.Context, a *model.Analysis) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			if a.Error == "" {
				a.Error = ctx.Err().Error()
			}
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", a.Input,
		)

		if err := step.Do(ctx, a); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"url", a.Input,
				"error", err,
			)
			if a.Error == "" {
				a.Error = err.Error()
			}
			if !p.continueOnError {
				return err
			}
		}

		a.AddStep(step.Name())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
