package observability

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FinishSpan ends a span, recording the error pointed to by errPtr if any.
// Pair it with a named error return: `defer observability.FinishSpan(span, &err)`.
// Passing a nil errPtr just ends the span.
func FinishSpan(span trace.Span, errPtr *error) {
	if span == nil {
		return
	}
	if errPtr != nil && *errPtr != nil {
		RecordSpanError(span, *errPtr)
	}
	span.End()
}

// RecordSpanError marks the span as failed without ending it.
func RecordSpanError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, trace.WithStackTrace(true))
	span.SetStatus(codes.Error, err.Error())
}
