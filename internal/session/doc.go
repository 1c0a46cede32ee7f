// Package session implements the authenticated HTTP session against the
// target site: the CSRF handshake, the login POST, the redirect follow,
// and the cookie-carrying GET used by the crawler afterwards.
//
// Login takes exactly three round trips because of how the target hands
// out credentials state: the CSRF token arrives before credential
// submission, the session cookie only after, and the server then
// redirects to the authenticated landing page. No cookie-jar abstraction
// exists at this level; the two cookie values are threaded by hand into
// every request.
//
// # State machine
//
//	Disconnected -> Connected -> LoggingIn -> Authenticated
//
// Connect performs the first transition, Login the next two. Get is valid
// from Connected onward, attaching whatever cookie state exists.
package session
