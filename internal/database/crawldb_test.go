package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flagscan/flagscan/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// sampleReport builds a finished report with two flags.
func sampleReport() *model.CrawlReport {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	report := &model.CrawlReport{
		Server:       "fakebook.example",
		Port:         443,
		Username:     "student",
		StartedAt:    started,
		FinishedAt:   started.Add(90 * time.Second),
		PagesVisited: 512,
		FlagLimit:    5,
		Completed:    false,
	}
	report.AddFlag("64chars-of-flag-one", "/fakebook/100/")
	report.AddFlag("64chars-of-flag-two", "/fakebook/200/friends/1/")
	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, dbFileName)
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")

		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		_, err := Open(dbDir, opts)
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected error to mention missing database, got %q", err.Error())
		}

		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()
	})
}

// TestSaveReport tests saving runs and reading them back.
func TestSaveReport(t *testing.T) {
	t.Parallel()

	t.Run("saves run with flags", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		runID, err := db.SaveReport(ctx, sampleReport())
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		if runID <= 0 {
			t.Errorf("expected positive run ID, got %d", runID)
		}

		runs, err := db.ListRuns(ctx, "", 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}

		run := runs[0]
		if run.Server != "fakebook.example" {
			t.Errorf("expected server fakebook.example, got %q", run.Server)
		}
		if run.Username != "student" {
			t.Errorf("expected username student, got %q", run.Username)
		}
		if run.PagesVisited != 512 {
			t.Errorf("expected 512 pages visited, got %d", run.PagesVisited)
		}
		if run.FlagsFound != 2 {
			t.Errorf("expected 2 flags found, got %d", run.FlagsFound)
		}
		if run.Completed {
			t.Error("expected Completed=false")
		}
		if got := run.Duration(); got != 90*time.Second {
			t.Errorf("expected 90s duration, got %v", got)
		}
	})

	t.Run("flags come back in discovery order", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		runID, err := db.SaveReport(ctx, sampleReport())
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		flags, err := db.GetRunFlags(ctx, runID)
		if err != nil {
			t.Fatalf("failed to get run flags: %v", err)
		}
		if len(flags) != 2 {
			t.Fatalf("expected 2 flags, got %d", len(flags))
		}
		if flags[0].Value != "64chars-of-flag-one" || flags[0].Position != 1 {
			t.Errorf("unexpected first flag: %+v", flags[0])
		}
		if flags[1].FoundOn != "/fakebook/200/friends/1/" {
			t.Errorf("unexpected second flag path: %q", flags[1].FoundOn)
		}
	})

	t.Run("run without flags", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		report := sampleReport()
		report.Flags = nil

		runID, err := db.SaveReport(ctx, report)
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		flags, err := db.GetRunFlags(ctx, runID)
		if err != nil {
			t.Fatalf("failed to get run flags: %v", err)
		}
		if len(flags) != 0 {
			t.Errorf("expected no flags, got %d", len(flags))
		}
	})
}

// TestListRuns tests history filtering and ordering.
func TestListRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	first := sampleReport()
	second := sampleReport()
	second.Server = "other.example"
	second.StartedAt = first.StartedAt.Add(time.Hour)
	second.FinishedAt = second.StartedAt.Add(time.Minute)
	second.Completed = true

	if _, err := db.SaveReport(ctx, first); err != nil {
		t.Fatalf("failed to save first run: %v", err)
	}
	if _, err := db.SaveReport(ctx, second); err != nil {
		t.Fatalf("failed to save second run: %v", err)
	}

	t.Run("most recent first", func(t *testing.T) {
		runs, err := db.ListRuns(ctx, "", 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].Server != "other.example" {
			t.Errorf("expected most recent run first, got %q", runs[0].Server)
		}
	})

	t.Run("filter by server", func(t *testing.T) {
		runs, err := db.ListRuns(ctx, "fakebook.example", 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		if runs[0].Server != "fakebook.example" {
			t.Errorf("unexpected server: %q", runs[0].Server)
		}
	})

	t.Run("limit applies", func(t *testing.T) {
		runs, err := db.ListRuns(ctx, "", 1)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
	})

	t.Run("latest run for server", func(t *testing.T) {
		run, err := db.LatestRun(ctx, "other.example")
		if err != nil {
			t.Fatalf("failed to get latest run: %v", err)
		}
		if run == nil {
			t.Fatal("expected a run")
		}
		if !run.Completed {
			t.Error("expected completed run")
		}
	})

	t.Run("latest run for unknown server is nil", func(t *testing.T) {
		run, err := db.LatestRun(ctx, "never-crawled.example")
		if err != nil {
			t.Fatalf("failed to get latest run: %v", err)
		}
		if run != nil {
			t.Errorf("expected nil, got %+v", run)
		}
	})
}

// TestParseTimestamp tests the timestamp fallback parsing.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"sqlite default", "2026-03-14 09:30:00", false},
		{"iso8601 z", "2026-03-14T09:30:00Z", false},
		{"rfc3339", "2026-03-14T09:30:00+00:00", false},
		{"garbage", "not a timestamp", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) zero=%v, want %v", tt.input, got.IsZero(), tt.zero)
			}
		})
	}
}
