package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/flagscan/flagscan/internal/crawler"
	"github.com/flagscan/flagscan/internal/model"
	"github.com/flagscan/flagscan/internal/session"
)

// Target identifies one site to crawl and the account to crawl it as.
type Target struct {
	// Server is the hostname to connect to.
	Server string

	// Port is the TCP port, normally 443.
	Port int

	// Username and Password authenticate the crawl.
	Username string
	Password string

	// Headers are extra HTTP headers attached to every request to this
	// target, from the configuration file's per-site settings.
	Headers map[string]string
}

// Store persists finished runs. database.CrawlDB satisfies it; a nil
// Store disables persistence.
type Store interface {
	SaveReport(ctx context.Context, report *model.CrawlReport) (int64, error)
}

// SessionFactory builds the authenticated session for a target.
// The default constructs a real TLS session; tests substitute fakes.
type SessionFactory func(target Target, logger *slog.Logger) crawler.Session

// Runner executes crawl runs against targets.
type Runner struct {
	// flagLimit is the extraction count that completes a run.
	flagLimit int

	// flagOut receives discovered flags one per line, as they are found.
	flagOut io.Writer

	// store records finished runs; nil disables persistence.
	store Store

	// newSession builds the session for each target.
	newSession SessionFactory

	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithFlagLimit overrides the number of flags that completes a run.
func WithFlagLimit(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.flagLimit = n
		}
	}
}

// WithFlagWriter sets the destination for live flag output.
func WithFlagWriter(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.flagOut = w
	}
}

// WithStore enables run persistence.
func WithStore(store Store) RunnerOption {
	return func(r *Runner) {
		r.store = store
	}
}

// WithSessionFactory overrides how sessions are built. Used by tests.
func WithSessionFactory(f SessionFactory) RunnerOption {
	return func(r *Runner) {
		r.newSession = f
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner with the given options.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		flagLimit: crawler.DefaultFlagLimit,
		flagOut:   io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.newSession == nil {
		r.newSession = func(target Target, logger *slog.Logger) crawler.Session {
			return session.New(target.Server, target.Port,
				session.WithLogger(logger),
				session.WithExtraHeaders(target.Headers),
			)
		}
	}
	return r
}

// Run crawls one target to completion. The returned report is valid
// even on error; it carries whatever was found before the failure.
// Persistence failures are logged, not returned: a finished crawl is
// worth reporting even when the history database is broken.
func (r *Runner) Run(ctx context.Context, target Target) (*model.CrawlReport, error) {
	logger := r.logger.With("server", target.Server)
	logger.Info("starting crawl", "port", target.Port, "username", target.Username)
	start := time.Now()

	sess := r.newSession(target, logger)
	spider := crawler.NewSpider(sess, target.Server, target.Username, target.Password,
		crawler.WithFlagLimit(r.flagLimit),
		crawler.WithFlagWriter(r.flagOut),
		crawler.WithLogger(logger),
	)

	report, err := spider.Run(ctx)
	report.Port = target.Port

	if err != nil {
		logger.Error("crawl failed",
			"error", err,
			"pages_visited", report.PagesVisited,
			"flags_found", len(report.Flags),
		)
		return report, err
	}

	logger.Info("crawl finished",
		"completed", report.Completed,
		"pages_visited", report.PagesVisited,
		"flags_found", len(report.Flags),
		"elapsed", time.Since(start),
	)

	if r.store != nil {
		if _, err := r.store.SaveReport(ctx, report); err != nil {
			logger.Warn("failed to save run history", "error", err)
		}
	}

	return report, nil
}
