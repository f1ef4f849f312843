package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// WithTrace returns l annotated with the trace and span ids found in ctx.
func WithTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// OperationLogger logs the start and end of a long-running operation.
type OperationLogger struct {
	logger    *zap.Logger
	operation string
	startTime time.Time
}

// NewOperationLogger creates an operation logger
func NewOperationLogger(l *zap.Logger, operation string) *OperationLogger {
	return &OperationLogger{
		logger:    l.With(zap.String("operation", operation)),
		operation: operation,
		startTime: time.Now(),
	}
}

// LogStart logs the start of an operation
func (ol *OperationLogger) LogStart(msg string, fields ...zap.Field) {
	ol.startTime = time.Now()
	ol.logger.Info(msg, append(fields, zap.String("phase", "start"))...)
}

// LogComplete logs successful completion with the elapsed time
func (ol *OperationLogger) LogComplete(msg string, fields ...zap.Field) {
	ol.logger.Info(msg, append(fields,
		zap.String("phase", "complete"),
		zap.Duration("elapsed", time.Since(ol.startTime)))...)
}

// LogError logs a failed operation
func (ol *OperationLogger) LogError(msg string, err error, fields ...zap.Field) {
	ol.logger.Error(msg, append(fields,
		zap.String("phase", "failed"),
		zap.Error(err),
		zap.Duration("elapsed", time.Since(ol.startTime)))...)
}
