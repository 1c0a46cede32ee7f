package crawler

// Frontier tracks the crawl's working set: links already explored and
// links waiting in FIFO order.
//
// Design decision: The explored set and the queue are separate structures
// with the frontier as their only owner, instead of the list-as-set and
// list-as-queue the tool descends from. Invariants enforced here:
//
//   - explored only grows for the lifetime of a run
//   - Enqueue appends a link at most once before its first dequeue
//   - PushFront may insert duplicates; the control loop's dequeue-time
//     explored check drops them without a request
type Frontier struct {
	explored map[string]struct{}
	order    []string

	queue  []string
	queued map[string]struct{}
}

// NewFrontier creates a frontier with the given links pre-marked as
// explored. The crawl seeds it with the login and landing paths so they
// are never re-fetched.
func NewFrontier(seeds ...string) *Frontier {
	f := &Frontier{
		explored: make(map[string]struct{}),
		queued:   make(map[string]struct{}),
	}
	for _, s := range seeds {
		f.MarkExplored(s)
	}
	return f
}

// Enqueue appends a link to the back of the queue unless it was already
// explored or is already waiting. Reports whether the link was added.
func (f *Frontier) Enqueue(link string) bool {
	if f.IsExplored(link) {
		return false
	}
	if _, waiting := f.queued[link]; waiting {
		return false
	}
	f.queue = append(f.queue, link)
	f.queued[link] = struct{}{}
	return true
}

// PushFront inserts a link at the head of the queue for priority
// handling, bypassing the duplicate check. Redirect targets use this so
// they are followed on the very next iteration.
func (f *Frontier) PushFront(link string) {
	f.queue = append([]string{link}, f.queue...)
	f.queued[link] = struct{}{}
}

// Dequeue removes and returns the front link. The second return is false
// when the queue is empty.
func (f *Frontier) Dequeue() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	link := f.queue[0]
	f.queue = f.queue[1:]
	delete(f.queued, link)
	return link, true
}

// MarkExplored records a link as visited. Idempotent; the explored set
// never shrinks.
func (f *Frontier) MarkExplored(link string) {
	if f.IsExplored(link) {
		return
	}
	f.explored[link] = struct{}{}
	f.order = append(f.order, link)
}

// IsExplored reports whether a link has been visited.
func (f *Frontier) IsExplored(link string) bool {
	_, ok := f.explored[link]
	return ok
}

// QueueLen returns the number of links waiting.
func (f *Frontier) QueueLen() int {
	return len(f.queue)
}

// Explored returns the visited links in exploration order.
func (f *Frontier) Explored() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}
