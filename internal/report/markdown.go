package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/phishguard/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing.
type MarkdownWriter struct {
	baseWriter

	// verbose adds a collapsible finding breakdown per URL.
	verbose bool

	now func() time.Time
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownVerbose enables the per-finding breakdown.
func WithMarkdownVerbose(verbose bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.verbose = verbose
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the analyses in Markdown format.
func (w *MarkdownWriter) Write(analyses []*model.Analysis) (int, error) {
	analyses = present(analyses)
	summary := model.Summarize(analyses)

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeResults(md, analyses)
	if w.verbose {
		w.writeFindings(md, analyses)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary model.Summary) {
	md.H1("PhishGuard Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", w.now().Format("2006-01-02 15:04:05 MST")},
			{"URLs Analyzed", strconv.Itoa(summary.Total)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary model.Summary) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"🔴 Dangerous", strconv.Itoa(summary.Dangerous)},
			{"🟡 Warning", strconv.Itoa(summary.Warning)},
			{"🟢 Safe", strconv.Itoa(summary.Safe)},
			{"⚪ Failed", strconv.Itoa(summary.Failed)},
			{"**Total**", "**" + strconv.Itoa(summary.Total) + "**"},
		},
	})
	md.PlainText("")

	if summary.Total > 1 {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Status Distribution"),
		piechart.WithShowData(true),
	)

	if summary.Dangerous > 0 {
		chart.LabelAndIntValue("Dangerous", uint64(summary.Dangerous))
	}
	if summary.Warning > 0 {
		chart.LabelAndIntValue("Warning", uint64(summary.Warning))
	}
	if summary.Safe > 0 {
		chart.LabelAndIntValue("Safe", uint64(summary.Safe))
	}
	if summary.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(summary.Failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary model.Summary) {
	switch {
	case summary.Dangerous > 0:
		md.Cautionf("%d URL(s) show strong phishing indicators. %s",
			summary.Dangerous, model.GetStatusInfo(model.StatusDangerous).Recommendation)
	case summary.Warning > 0:
		md.Warningf("%d URL(s) show some phishing indicators. %s",
			summary.Warning, model.GetStatusInfo(model.StatusWarning).Recommendation)
	case summary.Failed > 0 && summary.Failed == summary.Total:
		md.Note("No URL could be analyzed.")
	default:
		md.Tip("No significant phishing indicators detected.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeResults(md *markdown.Markdown, analyses []*model.Analysis) {
	md.H2("Results")
	md.PlainText("")

	if len(analyses) == 0 {
		md.PlainText("No URLs were analyzed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(analyses))
	for i, a := range analyses {
		if a.Failed() {
			rows[i] = []string{"`" + displayURL(a) + "`", "❌ Error", "-", a.Error}
			continue
		}
		threats := "-"
		if len(a.Result.Threats) > 0 {
			threats = strings.Join(a.Result.Threats, "<br>")
		}
		rows[i] = []string{
			"`" + displayURL(a) + "`",
			statusEmoji(a.Result.Status) + " " + statusTitle(a.Result.Status),
			strconv.Itoa(a.Result.Score),
			threats,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Risk Score", "Threats"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFindings writes every raw finding per URL, including those the
// threat list omits.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, analyses []*model.Analysis) {
	md.H2("Findings")
	md.PlainText("")

	for _, a := range analyses {
		if a.Failed() || len(a.Findings) == 0 {
			continue
		}
		lines := make([]string, len(a.Findings))
		for i, f := range a.Findings {
			lines[i] = "+" + strconv.Itoa(f.Weight) + " " + f.Category + ": " + f.Message
		}
		md.Details(displayURL(a), strings.Join(lines, "\n"))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [PhishGuard](https://github.com/nao1215/phishguard)*")
}

func statusEmoji(s model.Status) string {
	switch s {
	case model.StatusDangerous:
		return "🔴"
	case model.StatusWarning:
		return "🟡"
	default:
		return "🟢"
	}
}
