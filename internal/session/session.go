package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/flagscan/flagscan/internal/httpmsg"
	"github.com/flagscan/flagscan/internal/transport"
)

// Paths involved in the login handshake.
const (
	// loginPath is where credentials are submitted.
	loginPath = "/accounts/login/"

	// loginPagePath is the login form URL including the post-login
	// destination, matching what a browser would request.
	loginPagePath = "/accounts/login/?next=/fakebook/"

	// defaultLanding is followed when the login POST carries no
	// Location header.
	defaultLanding = "/fakebook/"
)

// State identifies where the session is in its lifecycle.
type State int

// Session lifecycle states, in transition order.
const (
	StateDisconnected State = iota
	StateConnected
	StateLoggingIn
	StateAuthenticated
)

// String returns the state name for logs and errors.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateLoggingIn:
		return "logging-in"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrBadState is returned when an operation is invoked from a state it is
// not valid in, e.g. Login before Connect.
var ErrBadState = errors.New("operation not valid in current session state")

// Transport is the framed byte channel a session talks through.
// transport.Channel satisfies it; tests substitute a scripted fake.
type Transport interface {
	SendAll(data []byte) error
	ReceiveUntil(delimiter []byte) ([]byte, error)
	Close() error
}

// Dialer establishes the transport for a session.
type Dialer func(host string, port int) (Transport, error)

// Session performs the CSRF/session-cookie handshake and exposes
// authenticated GETs over one encrypted connection.
//
// A session owns its cookie pair exclusively. Both values start empty:
// the CSRF token is set by the login page GET, the session id by the
// login POST. A missing or malformed Set-Cookie leaves the corresponding
// value empty rather than failing; the crawl then proceeds with whatever
// cookie state it has.
type Session struct {
	host string
	port int

	dial Dialer
	tr   Transport

	state     State
	csrfToken string
	sessionID string

	// extra headers ride on every request, sorted by key.
	extra []httpmsg.Header

	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithDialer replaces the transport dialer. Tests use this to run the
// handshake against scripted responses instead of a real socket.
func WithDialer(dial Dialer) Option {
	return func(s *Session) {
		s.dial = dial
	}
}

// WithLogger sets the structured logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithExtraHeaders adds headers to every request the session sends,
// e.g. the per-site headers from the configuration file. Keys are
// sorted so the wire format stays deterministic; per-call headers
// still override them.
func WithExtraHeaders(headers map[string]string) Option {
	return func(s *Session) {
		keys := make([]string, 0, len(headers))
		for k := range headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.extra = append(s.extra, httpmsg.Header{Key: k, Value: headers[k]})
		}
	}
}

// New creates a Session for the given host and port. The session starts
// disconnected; call Connect before anything else.
func New(host string, port int, opts ...Option) *Session {
	s := &Session{
		host: host,
		port: port,
		dial: func(host string, port int) (Transport, error) {
			return transport.Dial(host, port)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// CSRFToken returns the CSRF token captured from the login page, or ""
// before login (or when the server sent no usable cookie).
func (s *Session) CSRFToken() string {
	return s.csrfToken
}

// SessionID returns the session cookie captured from the login POST,
// or "" when absent.
func (s *Session) SessionID() string {
	return s.sessionID
}

// Connect establishes the encrypted channel.
// Valid only from the disconnected state.
func (s *Session) Connect() error {
	if s.state != StateDisconnected {
		return fmt.Errorf("%w: connect from %s", ErrBadState, s.state)
	}
	tr, err := s.dial(s.host, s.port)
	if err != nil {
		return err
	}
	s.tr = tr
	s.state = StateConnected
	s.logger.Debug("session connected", "host", s.host, "port", s.port)
	return nil
}

// Close releases the underlying channel.
func (s *Session) Close() error {
	if s.tr == nil {
		return nil
	}
	err := s.tr.Close()
	s.tr = nil
	s.state = StateDisconnected
	return err
}

// Login authenticates in three round trips: fetch the login page to
// obtain a CSRF token, POST the credentials, then follow the server's
// redirect to the landing page. It returns the landing page body so the
// caller can scan it like any other page.
func (s *Session) Login(username, password string) (string, error) {
	if s.state != StateConnected {
		return "", fmt.Errorf("%w: login from %s", ErrBadState, s.state)
	}
	s.state = StateLoggingIn

	// Round trip 1: GET the login page, no cookies yet.
	resp, err := s.roundTrip("GET", loginPagePath, nil, "")
	if err != nil {
		return "", err
	}
	s.csrfToken = firstCookieValue(resp.Header("Set-Cookie"))
	s.logger.Debug("login page fetched",
		"status", resp.StatusLine,
		"csrftoken", s.csrfToken,
	)

	// Round trip 2: POST the credentials with the CSRF token mirrored in
	// both the form body and the Cookie header, as the framework requires.
	form := fmt.Sprintf("username=%s&password=%s&csrfmiddlewaretoken=%s&next=%%2Ffakebook%%2F",
		url.QueryEscape(username), url.QueryEscape(password), url.QueryEscape(s.csrfToken))
	postHeaders := []httpmsg.Header{
		{Key: "Referer", Value: fmt.Sprintf("https://%s%s", s.host, loginPagePath)},
		{Key: "Content-Type", Value: "application/x-www-form-urlencoded"},
		{Key: "Origin", Value: "https://" + s.host},
		{Key: "Cookie", Value: "csrftoken=" + s.csrfToken},
	}
	resp, err = s.roundTrip("POST", loginPath, postHeaders, form)
	if err != nil {
		return "", err
	}
	if name, value := firstCookiePair(resp.Header("Set-Cookie")); name == "sessionid" {
		s.sessionID = value
	}
	s.logger.Debug("credentials posted",
		"status", resp.StatusLine,
		"sessionid", s.sessionID,
	)

	// Round trip 3: follow the redirect to the authenticated landing page.
	landing := resp.Header("Location")
	if landing == "" {
		landing = defaultLanding
	}
	resp, err = s.roundTrip("GET", landing, []httpmsg.Header{s.cookieHeader()}, "")
	if err != nil {
		return "", err
	}

	s.state = StateAuthenticated
	s.logger.Debug("login complete", "landing", landing, "status", resp.StatusLine)
	return resp.DecodedBody(), nil
}

// Get fetches a path with the session's cookie state attached. Valid from
// the connected state onward; before login it simply sends no cookies.
// Caller-supplied extra headers are merged after the cookie header, so a
// caller can still override it.
func (s *Session) Get(path string, extra ...httpmsg.Header) (httpmsg.Response, error) {
	if s.state == StateDisconnected {
		return httpmsg.Response{}, fmt.Errorf("%w: get from %s", ErrBadState, s.state)
	}

	var headers []httpmsg.Header
	if s.csrfToken != "" || s.sessionID != "" {
		headers = append(headers, s.cookieHeader())
	}
	headers = append(headers, extra...)

	return s.roundTrip("GET", path, headers, "")
}

// roundTrip sends one request and receives its response. Session-wide
// extra headers go first so the caller's headers win on a key clash.
func (s *Session) roundTrip(method, path string, headers []httpmsg.Header, body string) (httpmsg.Response, error) {
	merged := make([]httpmsg.Header, 0, len(s.extra)+len(headers))
	merged = append(merged, s.extra...)
	merged = append(merged, headers...)
	raw := httpmsg.BuildRequest(method, path, s.host, merged, body)
	if err := s.tr.SendAll([]byte(raw)); err != nil {
		return httpmsg.Response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	data, err := s.tr.ReceiveUntil(transport.HeaderDelimiter)
	if err != nil {
		return httpmsg.Response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return httpmsg.ParseResponse(string(data)), nil
}

// cookieHeader builds the combined cookie header from the current pair.
func (s *Session) cookieHeader() httpmsg.Header {
	value := fmt.Sprintf("csrftoken=%s; sessionid=%s", s.csrfToken, s.sessionID)
	return httpmsg.Header{Key: "Cookie", Value: value}
}

// firstCookiePair extracts the name and value of the first cookie in a
// Set-Cookie header, the part before the first "; ". Attribute noise after
// the pair is ignored. Returns empty strings when the header is missing
// or not of name=value form.
func firstCookiePair(setCookie string) (name, value string) {
	pair, _, _ := strings.Cut(setCookie, "; ")
	name, value, ok := strings.Cut(pair, "=")
	if !ok {
		return "", ""
	}
	return name, value
}

// firstCookieValue returns just the value of the first cookie pair.
func firstCookieValue(setCookie string) string {
	_, value := firstCookiePair(setCookie)
	return value
}
