// Package http provides HTTP handlers for the daemon's REST API.
//
// This package implements all HTTP endpoints using the Gin framework:
// session lifecycle, terminal input and resize, settings persistence,
// and launcher status.
//
// Endpoints:
//   - Health: / and /health
//   - Sessions: POST /sessions, GET /sessions, DELETE /sessions/:id
//   - Terminal: /sessions/:id/write, /sessions/:id/resize
//   - Settings: GET and PUT /settings
//   - Launcher: /launcher/configured
//
// Errors map onto statuses through the shared taxonomy: rejected
// arguments become 400, unknown sessions and missing bundled resources
// become 404, and OS or I/O failures become 500 with the request's
// trace id attached.
package http
