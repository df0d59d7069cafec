package app

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/fitfinder-ai/fitfinder/internal/observe"
)

// statusWriter captures the status code written by the wrapped handler.
// Handlers that never call WriteHeader implicitly respond 200.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// operational instruments one route of the operational HTTP surface. Each
// request runs under an "ops.<route>" span, answers with an X-Correlation-ID
// header carrying the trace ID, and lands in the request-duration histogram
// under its route name and response status. An incoming W3C traceparent
// header continues the caller's trace, so a probe or scrape can be correlated
// with whatever triggered it.
func (a *App) operational(route string, next http.Handler) http.Handler {
	prop := propagation.TraceContext{}
	spanName := "ops." + route

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := observe.StartSpan(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(observe.Attr("route", route)),
		)
		defer span.End()

		if cid := observe.CorrelationID(ctx); cid != "" {
			w.Header().Set("X-Correlation-ID", cid)
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status", sw.status))

		elapsed := time.Since(start)
		a.metrics.HTTPRequestDuration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(
				observe.Attr("route", route),
				observe.Attr("status", strconv.Itoa(sw.status)),
			),
		)

		observe.Logger(ctx).LogAttrs(ctx, slog.LevelDebug, "operational request",
			slog.String("route", route),
			slog.Int("status", sw.status),
			slog.Duration("duration", elapsed),
		)
	})
}
