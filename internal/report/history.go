package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/nao1215/phishguard/internal/model"
)

// HistoryWriter prints stored scan records and user statistics as
// aligned text columns.
type HistoryWriter struct {
	baseWriter
}

// NewHistoryWriter creates a HistoryWriter that outputs to the given writer.
func NewHistoryWriter(output io.Writer) *HistoryWriter {
	return &HistoryWriter{baseWriter: newBaseWriter(output)}
}

// WriteScans prints one line per record, newest first as given.
func (w *HistoryWriter) WriteScans(records []model.ScanRecord) error {
	if len(records) == 0 {
		_, err := io.WriteString(w.output, "No scans recorded.\n")
		return err
	}

	tw := tabwriter.NewWriter(w.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTATUS\tSCORE\tURL\tTHREATS\tID")
	for _, r := range records {
		threats := "-"
		if len(r.Threats) > 0 {
			threats = strings.Join(r.Threats, "; ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			statusTitle(r.Status),
			r.RiskScore,
			r.URL,
			threats,
			r.ID,
		)
	}
	return tw.Flush()
}

// WriteStats prints a user's aggregate counters.
func (w *HistoryWriter) WriteStats(userID string, stats model.UserStats) error {
	protection := "off"
	if stats.ProtectionActive {
		protection = "on"
	}

	tw := tabwriter.NewWriter(w.output, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "User:\t%s\n", userID)
	fmt.Fprintf(tw, "Scans total:\t%d\n", stats.ScansTotal())
	fmt.Fprintf(tw, "Threats blocked:\t%d\n", stats.ThreatsBlocked())
	fmt.Fprintf(tw, "Safe sites:\t%d\n", stats.Safe)
	fmt.Fprintf(tw, "Warnings:\t%d\n", stats.Warning)
	fmt.Fprintf(tw, "Background scans:\t%d\n", stats.BackgroundScans)
	fmt.Fprintf(tw, "Protection:\t%s\n", protection)
	return tw.Flush()
}
