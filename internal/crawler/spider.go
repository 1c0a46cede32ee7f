package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/flagscan/flagscan/internal/httpmsg"
	"github.com/flagscan/flagscan/internal/model"
	"github.com/flagscan/flagscan/internal/scan"
)

// Status lines the control loop acts on. Anything else is silently
// skipped: no retry, no error.
const (
	statusOK    = "HTTP/1.1 200 OK"
	statusFound = "HTTP/1.1 302 Found"
)

// Seed paths marked explored before the loop starts. The login flow has
// already visited both.
const (
	seedLoginPath   = "/accounts/login/"
	seedLandingPath = "/fakebook/"
)

// DefaultFlagLimit is the number of flag extractions that ends a run.
const DefaultFlagLimit = 5

// Session is the authenticated HTTP session the spider crawls through.
// session.Session satisfies it; tests substitute a scripted site.
type Session interface {
	Connect() error
	Login(username, password string) (string, error)
	Get(path string, extra ...httpmsg.Header) (httpmsg.Response, error)
	Close() error
}

// Spider runs one breadth-first crawl to completion or the flag limit.
//
// Design decision: We call it "Spider" rather than "Crawler" so the type
// reads cleanly against the package name: crawler.NewSpider, not
// crawler.NewCrawler.
type Spider struct {
	session  Session
	host     string
	username string
	password string

	// flagLimit is the extraction-event count that stops the run.
	flagLimit int

	// flagOut receives each flag on its own line as it is discovered.
	flagOut io.Writer

	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithFlagLimit overrides the number of flags that completes a run.
func WithFlagLimit(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.flagLimit = n
		}
	}
}

// WithFlagWriter sets the destination for live flag output.
// Defaults to io.Discard; the CLI passes os.Stdout.
func WithFlagWriter(w io.Writer) SpiderOption {
	return func(s *Spider) {
		s.flagOut = w
	}
}

// WithLogger sets the structured logger for crawl tracing.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that crawls host through the given session
// using the supplied credentials.
func NewSpider(sess Session, host, username, password string, opts ...SpiderOption) *Spider {
	s := &Spider{
		session:   sess,
		host:      host,
		username:  username,
		password:  password,
		flagLimit: DefaultFlagLimit,
		flagOut:   io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Run connects, logs in, and crawls until the flag limit is reached or
// the frontier empties. The returned report is valid in both cases;
// Completed distinguishes them. Errors from the session or transport are
// fatal and abort the run with the partial report.
func (s *Spider) Run(ctx context.Context) (*model.CrawlReport, error) {
	report := &model.CrawlReport{
		Server:    s.host,
		Username:  s.username,
		StartedAt: time.Now(),
		FlagLimit: s.flagLimit,
	}
	defer func() { report.FinishedAt = time.Now() }()

	if err := s.session.Connect(); err != nil {
		return report, err
	}
	defer s.session.Close()

	body, err := s.session.Login(s.username, s.password)
	if err != nil {
		return report, fmt.Errorf("login: %w", err)
	}

	frontier := NewFrontier(seedLoginPath, seedLandingPath)

	// The landing page counts toward the limit and seeds the frontier.
	// Its FoundOn stays empty; the body came back from the login
	// redirect, not from a frontier fetch.
	report.PagesVisited++
	if s.scanLanding(body, frontier, report) {
		report.Completed = true
		return report, nil
	}

	for frontier.QueueLen() > 0 {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		link, _ := frontier.Dequeue()

		// A duplicate can reach the queue through redirect front-pushes.
		// Skip it here without a request.
		if frontier.IsExplored(link) {
			continue
		}
		frontier.MarkExplored(link)

		resp, err := s.session.Get(link)
		if err != nil {
			return report, fmt.Errorf("get %s: %w", link, err)
		}
		report.PagesVisited++

		switch resp.StatusLine {
		case statusOK:
			if s.harvest(resp.DecodedBody(), link, frontier, report) {
				report.Completed = true
				return report, nil
			}
		case statusFound:
			// Follow the redirect on the very next iteration. An absent
			// Location pushes the empty string, which the next loop pass
			// fetches and the server answers however it will.
			frontier.PushFront(resp.Header("Location"))
			s.logger.Debug("redirect queued",
				"from", link,
				"to", resp.Header("Location"),
			)
		default:
			s.logger.Debug("status skipped", "path", link, "status", resp.StatusLine)
		}
	}

	return report, nil
}

// scanLanding scans the login-result body for a flag and for links.
// Unlike crawled pages, a flag here does not suppress link extraction:
// the landing links are the only seeds the crawl has, so skipping them
// would strand the run at one flag. Returns true when the flag limit
// has been reached.
func (s *Spider) scanLanding(body string, frontier *Frontier, report *model.CrawlReport) bool {
	if value, ok := scan.ExtractFlag(body); ok {
		s.recordFlag(value, "", report)
		if len(report.Flags) >= s.flagLimit {
			return true
		}
	}
	s.enqueueLinks(body, frontier)
	return false
}

// harvest scans one crawled page body. A page carrying a flag
// contributes the flag and nothing else; only flagless pages feed links
// to the frontier. Returns true when the flag limit has been reached.
func (s *Spider) harvest(body, path string, frontier *Frontier, report *model.CrawlReport) bool {
	if value, ok := scan.ExtractFlag(body); ok {
		s.recordFlag(value, path, report)
		return len(report.Flags) >= s.flagLimit
	}
	s.enqueueLinks(body, frontier)
	return false
}

// recordFlag appends one discovery to the report and streams it out.
func (s *Spider) recordFlag(value, path string, report *model.CrawlReport) {
	flag := report.AddFlag(value, path)
	fmt.Fprintln(s.flagOut, flag.Value)
	s.logger.Info("flag found",
		"position", flag.Position,
		"path", path,
	)
}

// enqueueLinks feeds a page's same-site links to the frontier.
func (s *Spider) enqueueLinks(body string, frontier *Frontier) {
	for _, link := range scan.ExtractLinks(body, s.host) {
		if frontier.Enqueue(link) {
			s.logger.Debug("link queued", "path", link)
		}
	}
}
