// Package main is the entry point for the OpenClaw desktop daemon.
//
// The daemon backs a desktop terminal shell: it spawns the bundled
// OpenClaw CLI inside PTY sessions, streams their output to the shell
// over a WebSocket, and persists user settings.
//
// Architecture:
//
//	Desktop shell (UI) → HTTP commands (spawn/write/resize/kill)
//	                   ← WebSocket stream (pty:data, pty:status)
//
// The daemon provides:
//   - PTY session lifecycle with UTF-8 safe output framing
//   - A strict, allowlist-based launch environment for the CLI
//   - Settings persistence with owner-only permissions
//   - Prometheus metrics and request tracing
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode (resources bundled by the installer)
//	./desktopd -resources /opt/openclaw
//
//	# Development mode (colored logs, host node fallback)
//	./desktopd -dev
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown; every session is killed and
//     reaped before exit
package main
