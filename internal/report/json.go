package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/phishguard/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string

	// version is embedded in reports written by Write.
	version string

	// now is replaceable in tests.
	now func() time.Time
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the program version in the report.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps analyses with run metadata.
type JSONReport struct {
	Version     string            `json:"version,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Summary     model.Summary     `json:"summary"`
	Results     []*model.Analysis `json:"results"`
}

// NewJSONReport builds the report document for analyses.
func NewJSONReport(analyses []*model.Analysis, version string, generatedAt time.Time) *JSONReport {
	analyses = present(analyses)
	return &JSONReport{
		Version:     version,
		GeneratedAt: generatedAt,
		Summary:     model.Summarize(analyses),
		Results:     analyses,
	}
}

// Write outputs analyses wrapped in a JSONReport.
func (w *JSONWriter) Write(analyses []*model.Analysis) (int, error) {
	return w.Encode(NewJSONReport(analyses, w.version, w.now()))
}

// Encode writes any value with the writer's formatting, followed by a
// newline. It is used for history and statistics output.
func (w *JSONWriter) Encode(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
