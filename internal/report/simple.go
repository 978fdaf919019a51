package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/phishguard/internal/model"
)

const lineWidth = 70

// SimpleWriter outputs human-readable text for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds every raw finding with its weight under each URL.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-finding breakdown.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the analyses in human-readable format.
func (w *SimpleWriter) Write(analyses []*model.Analysis) (int, error) {
	analyses = present(analyses)

	var sb strings.Builder
	w.writeHeader(&sb)
	for _, a := range analyses {
		w.writeAnalysis(&sb, a)
	}
	if len(analyses) > 1 {
		w.writeSummary(&sb, model.Summarize(analyses))
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n")
	sb.WriteString("                         PHISHGUARD REPORT\n")
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeAnalysis(sb *strings.Builder, a *model.Analysis) {
	fmt.Fprintf(sb, "URL:      %s\n", displayURL(a))

	if a.Failed() {
		fmt.Fprintf(sb, "Status:   ERROR - %s\n\n", a.Error)
		return
	}

	fmt.Fprintf(sb, "Status:   [%s] %s (risk score %d/100)\n",
		statusIndicator(a.Result.Status), statusTitle(a.Result.Status), a.Result.Score)

	if len(a.Result.Threats) == 0 {
		sb.WriteString("Threats:  none\n")
	} else {
		sb.WriteString("Threats:\n")
		for _, t := range a.Result.Threats {
			fmt.Fprintf(sb, "  - %s\n", t)
		}
	}

	if w.verbose && len(a.Findings) > 0 {
		sb.WriteString("Findings:\n")
		for _, f := range a.Findings {
			fmt.Fprintf(sb, "  %+4d  %-12s %s\n", f.Weight, f.Category, f.Message)
		}
	}

	fmt.Fprintf(sb, "Advice:   %s\n", model.GetStatusInfo(a.Result.Status).Recommendation)
	if a.ScanID != "" {
		fmt.Fprintf(sb, "Saved:    %s\n", a.ScanID)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, s model.Summary) {
	sb.WriteString(strings.Repeat("-", lineWidth))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", lineWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  DANGEROUS: %d\n", s.Dangerous)
	fmt.Fprintf(sb, "  WARNING:   %d\n", s.Warning)
	fmt.Fprintf(sb, "  SAFE:      %d\n", s.Safe)
	if s.Failed > 0 {
		fmt.Fprintf(sb, "  FAILED:    %d\n", s.Failed)
	}
	fmt.Fprintf(sb, "  TOTAL:     %d\n\n", s.Total)
}

// statusIndicator returns a fixed-width marker for a status.
func statusIndicator(s model.Status) string {
	switch s {
	case model.StatusDangerous:
		return "!!"
	case model.StatusWarning:
		return "! "
	default:
		return "OK"
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by PhishGuard\n")
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n")
}
