// Package terminal multiplexes interactive PTY sessions.
//
// Each session runs one child process attached to its own pseudo-terminal.
// The registry maps session id to session and exposes spawn, write,
// resize, and kill; a dedicated reader goroutine per session pumps child
// output into data events and announces the session's end with a single
// status event.
//
// Concurrency model:
//   - The registry lock guards only the session map and is never held
//     across blocking I/O, so one wedged session cannot stall another.
//   - Each session's PTY handle carries its own write and control locks;
//     concurrent writes serialize per session, and a resize never waits
//     on a write.
//   - The reader loop has no cancellation signal. It is unblocked by
//     closing the descriptor it reads from, which kill does after the
//     child has been reaped.
//
// Output framing: child bytes arrive in 8 KiB reads and are reassembled
// at UTF-8 boundaries before emission, so multi-byte characters split
// across reads reach the UI whole. Binary output that never resolves to
// a boundary is flushed lossily once the reassembly buffer passes 64 KiB.
//
// Lifecycle: spawn allocates a non-zero id, starts the child, the reaper,
// and the reader; kill removes the session from the registry, kills and
// reaps the child, closes the PTY, and joins the reader — strictly in
// that order. Id 0 is the kill-all sentinel.
package terminal
