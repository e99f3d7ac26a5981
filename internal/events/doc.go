// Package events defines the daemon-to-UI event wire format and the
// WebSocket hub that delivers it.
//
// The daemon pushes two event shapes: pty:data (decoded terminal output)
// and pty:status (session stopped or errored). Delivery is at-most-once
// with no backpressure: producers enqueue onto bounded per-client buffers
// and events are dropped for clients that cannot keep up, so terminal I/O
// never stalls on a slow consumer.
package events
