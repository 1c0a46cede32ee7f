package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/flagscan/flagscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeFlags(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Flagscan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Server", "`" + report.Server + ":" + strconv.Itoa(report.Port) + "`"},
			{"Username", "`" + report.Username + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().String()},
			{"Pages Visited", strconv.Itoa(report.PagesVisited)},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, report)
}

// statusText returns the status text based on report state.
func (w *MarkdownWriter) statusText(report *model.CrawlReport) string {
	if report.Completed {
		return "✅ Complete"
	}
	return "⚠️ Incomplete (frontier exhausted)"
}

// writeAlert writes an appropriate alert based on the outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.Completed:
		md.Tipf("All %d flags found.", len(report.Flags))
	case len(report.Flags) > 0:
		md.Warningf(
			"Only %d of %d flags found before the frontier was exhausted.",
			len(report.Flags), report.FlagLimit,
		)
	default:
		md.Caution("No flags found. Check the credentials and target server.")
	}
	md.PlainText("")
}

// writeFlags writes the discovered flags section.
func (w *MarkdownWriter) writeFlags(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Flags")
	md.PlainText("")

	if len(report.Flags) == 0 {
		md.PlainText("No flags discovered.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Flags))
	for i, f := range report.Flags {
		location := f.FoundOn
		if location == "" {
			location = "(post-login landing page)"
		}
		rows[i] = []string{
			strconv.Itoa(f.Position),
			"`" + f.Value + "`",
			truncateString(location, 60),
			f.FoundAt.Format("15:04:05"),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Flag", "Found On", "Time"},
		Rows:   rows,
	})
	md.PlainText("")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
