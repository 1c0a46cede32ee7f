package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/flagscan/flagscan/internal/model"
)

// testReport builds a completed report with three flags.
func testReport() *model.CrawlReport {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	report := &model.CrawlReport{
		Server:       "fakebook.example",
		Port:         443,
		Username:     "student",
		StartedAt:    started,
		FinishedAt:   started.Add(2 * time.Minute),
		PagesVisited: 480,
		FlagLimit:    3,
		Completed:    true,
	}
	report.AddFlag("aaaa1111", "/fakebook/100/")
	report.AddFlag("bbbb2222", "")
	report.AddFlag("cccc3333", "/fakebook/300/friends/2/")
	return report
}

// TestSimpleWriter tests the human-readable output format.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run information and flags", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		n, err := w.Write(testReport())
		if err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{
			"FLAGSCAN REPORT",
			"fakebook.example:443",
			"student",
			"Pages Visited:  480",
			"Complete (3/3 flags)",
			"1. aaaa1111",
			"3. cccc3333",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("verbose includes locations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Found on: /fakebook/100/") {
			t.Errorf("expected flag location in verbose output:\n%s", output)
		}
		if !strings.Contains(output, "(post-login landing page)") {
			t.Errorf("expected landing page placeholder in verbose output:\n%s", output)
		}
	})

	t.Run("incomplete run is marked", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.Completed = false

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		if !strings.Contains(buf.String(), "INCOMPLETE") {
			t.Errorf("expected INCOMPLETE status:\n%s", buf.String())
		}
	})

	t.Run("no flags", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.Flags = nil

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		if !strings.Contains(buf.String(), "No flags found") {
			t.Errorf("expected empty-flags message:\n%s", buf.String())
		}
	})
}

// TestJSONWriter tests the JSON output format.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output round-trips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		var decoded model.CrawlReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Server != "fakebook.example" {
			t.Errorf("expected server in JSON, got %q", decoded.Server)
		}
		if len(decoded.Flags) != 3 {
			t.Errorf("expected 3 flags in JSON, got %d", len(decoded.Flags))
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  ") {
			t.Errorf("expected indented output:\n%s", buf.String())
		}
	})

	t.Run("full writer wraps with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "1.2.3")

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		var wrapped JSONReport
		if err := json.Unmarshal(buf.Bytes(), &wrapped); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if wrapped.Version != "1.2.3" {
			t.Errorf("expected version 1.2.3, got %q", wrapped.Version)
		}
		if wrapped.Report == nil || wrapped.Report.Username != "student" {
			t.Errorf("expected wrapped report, got %+v", wrapped.Report)
		}
	})
}

// TestMarkdownWriter tests the Markdown output format.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("complete run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Flagscan Report",
			"## Flags",
			"`fakebook.example:443`",
			"`aaaa1111`",
			"(post-login landing page)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("no flags produces caution", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.Flags = nil
		report.Completed = false

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No flags discovered.") {
			t.Errorf("expected empty-flags message:\n%s", output)
		}
		if !strings.Contains(output, "CAUTION") {
			t.Errorf("expected caution alert:\n%s", output)
		}
	})
}

// errorWriter fails after a fixed number of writes.
type errorWriter struct {
	failAfter int
	writes    int
}

func (e *errorWriter) Write(_ *model.CrawlReport) (int, error) {
	e.writes++
	if e.writes > e.failAfter {
		return 0, errors.New("write failed")
	}
	return 1, nil
}

// TestMultiWriter tests writing to multiple destinations.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

		if _, err := mw.Write(testReport()); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		if buf1.Len() == 0 {
			t.Error("expected simple output")
		}
		if buf2.Len() == 0 {
			t.Error("expected JSON output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		failing := &errorWriter{failAfter: 0}
		second := &errorWriter{failAfter: 10}
		mw := NewMultiWriter(failing, second)

		if _, err := mw.Write(testReport()); err == nil {
			t.Fatal("expected error")
		}
		if second.writes != 0 {
			t.Errorf("expected second writer untouched, got %d writes", second.writes)
		}
	})
}

// TestTruncateString tests the markdown cell truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "abc", 10, "abc"},
		{"exact length unchanged", "abcde", 5, "abcde"},
		{"long string truncated", "abcdefghij", 8, "abcde..."},
		{"tiny max", "abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
