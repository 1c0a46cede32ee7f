// Package crawler implements the breadth-first crawl that hunts for
// hidden flags behind the authenticated session.
//
// # Architecture
//
// The Spider drives the run: it logs in through a session.Session, scans
// each fetched page with the scan package, and tracks progress in a
// Frontier (an explicit FIFO queue plus a visited set, both owned
// exclusively by the control loop).
//
// # Ordering
//
// The crawl is strictly sequential: one socket, one in-flight request,
// no overlap. Redirect handling depends on this — a 302 target is pushed
// to the front of the queue so it is fetched on the very next iteration.
// Introducing concurrency here would silently change which pages get
// visited and in what order.
package crawler
