package tracing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openclaw/desktopd/internal/logging"
	"github.com/openclaw/desktopd/internal/shared/id"
)

// TraceID identifies a request end to end.
type TraceID string

// SpanID identifies a single operation within a trace.
type SpanID string

// Span records one traced operation.
type Span struct {
	TraceID    TraceID
	SpanID     SpanID
	ParentID   SpanID
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Tags       map[string]string
	Err        error
	StatusCode int
}

// spanBuffer bounds the collector queue; spans past it are dropped
// rather than stalling request handling.
const spanBuffer = 1000

// Tracer collects finished spans and logs them off the request path.
type Tracer struct {
	logger *logging.Logger
	spans  chan *Span
}

// New creates a tracer. The collector goroutine runs for the life of
// the process.
func New(logger *logging.Logger) *Tracer {
	t := &Tracer{
		logger: logger,
		spans:  make(chan *Span, spanBuffer),
	}

	go t.collect()

	return t
}

// StartSpan opens a span, continuing the trace carried by ctx or
// starting a fresh one.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID, _ := ctx.Value(traceIDKey).(TraceID)
	if traceID == "" {
		traceID = TraceID(id.NewRequestID())
	}

	parentID, _ := ctx.Value(spanIDKey).(SpanID)

	span := &Span{
		TraceID:   traceID,
		SpanID:    SpanID(id.NewRequestID()),
		ParentID:  parentID,
		Name:      name,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}

	newCtx := context.WithValue(ctx, traceIDKey, traceID)
	newCtx = context.WithValue(newCtx, spanIDKey, span.SpanID)

	return span, newCtx
}

// Finish stamps the span's end time and duration.
func (s *Span) Finish() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// SetTag adds a tag to the span.
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// SetError records a failure on the span.
func (s *Span) SetError(err error) {
	s.Err = err
}

// SetStatus records the HTTP status the operation ended with.
func (s *Span) SetStatus(code int) {
	s.StatusCode = code
}

// Submit queues a finished span for logging. Never blocks; when the
// collector falls behind the span is dropped.
func (t *Tracer) Submit(span *Span) {
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", string(span.TraceID)),
			zap.String("span_id", string(span.SpanID)),
		)
	}
}

// collect processes completed spans.
func (t *Tracer) collect() {
	for span := range t.spans {
		t.log(span)
	}
}

// log writes one span to the structured log. Successful requests log
// at debug so high-frequency operations like terminal writes do not
// flood the output; failures log at error.
func (t *Tracer) log(span *Span) {
	fields := []zap.Field{
		zap.String("trace_id", string(span.TraceID)),
		zap.String("span_id", string(span.SpanID)),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
		zap.Int("status", span.StatusCode),
	}

	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(span.ParentID)))
	}

	if span.Err != nil {
		fields = append(fields, zap.Error(span.Err))
		t.logger.Error("request failed", fields...)
		return
	}

	t.logger.Debug("request completed", fields...)
}

// ExtractTraceContext pulls trace identifiers out of request headers.
func ExtractTraceContext(headers map[string]string) (TraceID, SpanID) {
	return TraceID(headers["X-Trace-ID"]), SpanID(headers["X-Span-ID"])
}

// Context keys for trace propagation.
type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// GetTraceID retrieves the trace ID from context.
func GetTraceID(ctx context.Context) TraceID {
	if traceID, ok := ctx.Value(traceIDKey).(TraceID); ok {
		return traceID
	}
	return ""
}

// GetSpanID retrieves the span ID from context.
func GetSpanID(ctx context.Context) SpanID {
	if spanID, ok := ctx.Value(spanIDKey).(SpanID); ok {
		return spanID
	}
	return ""
}
