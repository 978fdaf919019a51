package report

import (
	"io"

	"github.com/nao1215/phishguard/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer writes the results of one analysis run.
type Writer interface {
	// Write outputs the analyses in input order.
	// Returns the number of bytes written and any error encountered.
	Write(analyses []*model.Analysis) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
// It is used to print to the terminal and a report file at once.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the analyses to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(analyses []*model.Analysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(analyses)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

var titleCaser = cases.Title(language.English)

// statusTitle returns the display form of a status, e.g. "Dangerous".
func statusTitle(s model.Status) string {
	return titleCaser.String(s.String())
}

// present drops nil entries.
func present(analyses []*model.Analysis) []*model.Analysis {
	out := make([]*model.Analysis, 0, len(analyses))
	for _, a := range analyses {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// displayURL prefers the validated URL over the raw input.
func displayURL(a *model.Analysis) string {
	if a.URL != "" {
		return a.URL
	}
	return a.Input
}
