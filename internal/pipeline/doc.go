// Package pipeline wires a full crawl run together: session setup,
// the breadth-first crawl, optional history persistence, and report
// output. The CLI calls this package instead of assembling the pieces
// itself, and batch mode reuses the same runner per target.
//
// Design decision: We keep orchestration out of cmd/ because:
// 1. Batch mode and single-target mode share the same run logic
// 2. The runner is testable with a fake session factory, cmd/ is not
// 3. It supports cancellation via context for long-running crawls
//
// Batch processing uses errgroup with a concurrency limit. Each target
// still gets exactly one connection crawled sequentially; the limit only
// bounds how many independent targets run at once.
package pipeline
