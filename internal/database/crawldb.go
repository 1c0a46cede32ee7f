package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/flagscan/flagscan/internal/model"
)

// dbFileName is the SQLite file created inside the data directory.
const dbFileName = "flagscan.db"

// CrawlDB provides SQLite-based storage for crawl runs and the flags
// they found. It manages connection pooling and provides methods for
// saving and querying run history.
//
// Design decision: One database file for all servers rather than a file
// per target. History queries span servers ("show every run") and a
// single file keeps backup trivial.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw refuses to create a
	// new file, mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Runs store one row per crawl invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server TEXT NOT NULL,
		port INTEGER NOT NULL,
		username TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		pages_visited INTEGER NOT NULL,
		flags_found INTEGER NOT NULL,
		flag_limit INTEGER NOT NULL,
		completed INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_server ON runs(server);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Flags store the discovery events of a run, in order
	CREATE TABLE IF NOT EXISTS flags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		value TEXT NOT NULL,
		found_on TEXT NOT NULL,
		position INTEGER NOT NULL,
		found_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_flags_run ON flags(run_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored crawl run, as returned by history queries.
type RunRecord struct {
	ID           int64
	Server       string
	Port         int
	Username     string
	StartedAt    time.Time
	FinishedAt   time.Time
	PagesVisited int
	FlagsFound   int
	FlagLimit    int
	Completed    bool
}

// Duration returns the elapsed time of the stored run.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SaveReport stores a finished crawl run and its flags in one transaction.
// It returns the new run's database ID.
func (cdb *CrawlDB) SaveReport(ctx context.Context, report *model.CrawlReport) (int64, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (server, port, username, started_at, finished_at, pages_visited, flags_found, flag_limit, completed)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Server,
		report.Port,
		report.Username,
		report.StartedAt.UTC().Format(sqliteTimeFormat),
		report.FinishedAt.UTC().Format(sqliteTimeFormat),
		report.PagesVisited,
		len(report.Flags),
		report.FlagLimit,
		boolToInt(report.Completed),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, f := range report.Flags {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO flags (run_id, value, found_on, position, found_at)
		VALUES (?, ?, ?, ?, ?)
		`,
			runID,
			f.Value,
			f.FoundOn,
			f.Position,
			f.FoundAt.UTC().Format(sqliteTimeFormat),
		); err != nil {
			return 0, fmt.Errorf("failed to insert flag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// ListRuns returns stored runs, most recent first. When server is
// non-empty only that server's runs are returned. limit <= 0 means no
// limit.
func (cdb *CrawlDB) ListRuns(ctx context.Context, server string, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, server, port, username, started_at, finished_at, pages_visited, flags_found, flag_limit, completed
	FROM runs
	`
	args := make([]any, 0, 2)

	if server != "" {
		query += " WHERE server = ?"
		args = append(args, server)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished string
		var completed int

		if err := rows.Scan(
			&rec.ID,
			&rec.Server,
			&rec.Port,
			&rec.Username,
			&started,
			&finished,
			&rec.PagesVisited,
			&rec.FlagsFound,
			&rec.FlagLimit,
			&completed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		rec.StartedAt = parseTimestamp(started)
		rec.FinishedAt = parseTimestamp(finished)
		rec.Completed = completed != 0
		results = append(results, rec)
	}

	return results, rows.Err()
}

// GetRunFlags returns the flags of a stored run in discovery order.
func (cdb *CrawlDB) GetRunFlags(ctx context.Context, runID int64) ([]model.Flag, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT value, found_on, position, found_at
	FROM flags
	WHERE run_id = ?
	ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run flags: %w", err)
	}
	defer rows.Close()

	var flags []model.Flag
	for rows.Next() {
		var f model.Flag
		var foundAt string

		if err := rows.Scan(&f.Value, &f.FoundOn, &f.Position, &foundAt); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}

		f.FoundAt = parseTimestamp(foundAt)
		flags = append(flags, f)
	}

	return flags, rows.Err()
}

// LatestRun returns the most recent stored run for a server, or nil when
// the server has never been crawled.
func (cdb *CrawlDB) LatestRun(ctx context.Context, server string) (*RunRecord, error) {
	runs, err := cdb.ListRuns(ctx, server, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// sqliteTimeFormat is the canonical datetime format used for storage.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
