/*
Package tracing follows requests through the API and out to remote hosts.

Spans carry a trace ID shared by every operation in one request flow and a
span ID for the operation itself. Finished spans go to a buffered collector
that logs them; when the buffer is full spans are dropped.

# Usage

	tracer := tracing.New("framenav", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "fetch")
	defer tracer.End(span)
	span.SetTag("url", addr)

# Propagation

Trace context travels in the X-Trace-ID and X-Span-ID headers. Extract
reads them from an incoming request; Inject writes them to an outgoing one.
*/
package tracing
