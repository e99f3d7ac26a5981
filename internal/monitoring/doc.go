/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the daemon,
tracking HTTP requests, PTY session lifecycle, terminal output volume, and
WebSocket event delivery.

# Features

- HTTP request metrics (latency, throughput)
- PTY session metrics (live count, spawn/kill totals)
- Terminal output metrics (bytes read, data events, lossy flushes)
- WebSocket connection and event delivery metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.IncSessionsSpawned()
	metrics.AddOutputBytes(4096)

A nil *Metrics disables every recording method, so components can be unit
tested without any registry setup.

# Metrics Endpoint

Each collector owns a private registry, exposed through its handler:

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
