package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/flagscan/flagscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables per-flag detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with per-flag details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeFlags(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         FLAGSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Server:         %s:%d\n", report.Server, report.Port))
	sb.WriteString(fmt.Sprintf("Username:       %s\n", report.Username))
	sb.WriteString(fmt.Sprintf("Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", report.Duration().Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Pages Visited:  %d\n", report.PagesVisited))

	if report.Completed {
		sb.WriteString(fmt.Sprintf("Status:         Complete (%d/%d flags)\n", len(report.Flags), report.FlagLimit))
	} else {
		sb.WriteString(fmt.Sprintf("Status:         INCOMPLETE (%d/%d flags, frontier exhausted)\n", len(report.Flags), report.FlagLimit))
	}

	sb.WriteString("\n")
}

// writeFlags writes the discovered flags section.
func (w *SimpleWriter) writeFlags(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FLAGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Flags) == 0 {
		sb.WriteString("  No flags found\n\n")
		return
	}

	for _, f := range report.Flags {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", f.Position, f.Value))
		if w.verbose {
			location := f.FoundOn
			if location == "" {
				location = "(post-login landing page)"
			}
			sb.WriteString(fmt.Sprintf("     Found on: %s\n", location))
			sb.WriteString(fmt.Sprintf("     Found at: %s\n", f.FoundAt.Format("15:04:05.000")))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
