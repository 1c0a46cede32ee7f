// Package log provides structured logging with automatic masking of
// credentials and session secrets, built on the standard slog package.
//
// A crawl handles a username, a password, a CSRF token, and a session
// cookie. All four routinely appear next to the request and response
// data that verbose logging exists to show, so masking is done in the
// handler rather than left to call-site discipline.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("sending request",
//	    "path", "/fakebook/",
//	    "cookie", "sessionid=abc123", // masked in output
//	)
package log
