/*
Package tracing provides lightweight request tracing for the daemon.

# Overview

Every HTTP request gets a trace ID and a span recording its operation,
duration, and outcome. The desktop client can pass X-Trace-ID through
to correlate its own logs with the daemon's; otherwise a fresh ID is
generated per request.

# Usage

	tracer := tracing.New(logger)
	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Trace Format

Traces use standard HTTP headers for propagation:
  - X-Trace-ID: identifier for the entire request flow
  - X-Span-ID: identifier for the current operation

# Performance

Span collection is buffered and asynchronous; when the collector falls
behind, spans are dropped rather than blocking request handling.
Successful spans log at debug level so keystroke-frequency writes do
not flood the output.
*/
package tracing
