package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/swellwatch/swellwatch/internal/api/middleware"

// Metrics holds the OpenTelemetry metrics instruments.
type Metrics struct {
	requestDuration  metric.Float64Histogram
	requestTotal     metric.Int64Counter
	requestsInFlight metric.Int64UpDownCounter
	responseSize     metric.Int64Histogram
}

// NewMetrics creates a new Metrics instance with initialized instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP server requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestsInFlight, err := meter.Int64UpDownCounter(
		"http.server.requests_in_flight",
		metric.WithDescription("Number of HTTP requests currently being processed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	responseSize, err := meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("Size of HTTP server responses in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		requestsInFlight: requestsInFlight,
		responseSize:     responseSize,
	}, nil
}

// Middleware returns an HTTP middleware that records metrics for each request.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			inFlight := metric.WithAttributes(attribute.String("http.method", r.Method))
			m.requestsInFlight.Add(r.Context(), 1, inFlight)
			defer m.requestsInFlight.Add(r.Context(), -1, inFlight)

			wrapped := newMetricsResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()

			// The chi route pattern keeps the route label
			// low-cardinality across thousands of station ids.
			route := r.URL.Path
			if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
				if pattern := routeCtx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.status_code", strconv.Itoa(wrapped.statusCode)),
			}
			if wrapped.statusCode >= 400 {
				attrs = append(attrs, attribute.Bool("error", true))
			}

			m.requestDuration.Record(r.Context(), duration, metric.WithAttributes(attrs...))
			m.requestTotal.Add(r.Context(), 1, metric.WithAttributes(attrs...))
			m.responseSize.Record(r.Context(), wrapped.written, metric.WithAttributes(attrs...))
		})
	}
}

// metricsResponseWriter wraps http.ResponseWriter to capture response metadata.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// ForecastMetrics holds metrics for the forecast pipeline: per-station
// forecast latency, outcomes, and raised alerts. Shared by the API
// handlers and the sweep worker.
type ForecastMetrics struct {
	forecastDuration metric.Float64Histogram
	forecastTotal    metric.Int64Counter
	alertsRaised     metric.Int64Counter
}

// NewForecastMetrics creates metrics for the forecast pipeline.
func NewForecastMetrics() (*ForecastMetrics, error) {
	meter := otel.Meter(meterName)

	forecastDuration, err := meter.Float64Histogram(
		"forecast.duration",
		metric.WithDescription("Duration of forecast operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	forecastTotal, err := meter.Int64Counter(
		"forecast.total",
		metric.WithDescription("Total number of station forecasts"),
		metric.WithUnit("{forecast}"),
	)
	if err != nil {
		return nil, err
	}

	alertsRaised, err := meter.Int64Counter(
		"forecast.alerts",
		metric.WithDescription("Number of forecasts that raised an alert"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return nil, err
	}

	return &ForecastMetrics{
		forecastDuration: forecastDuration,
		forecastTotal:    forecastTotal,
		alertsRaised:     alertsRaised,
	}, nil
}

// RecordForecast records one station forecast outcome. op distinguishes
// the single-station path from region sweeps.
func (m *ForecastMetrics) RecordForecast(op string, duration time.Duration, alerted bool, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("forecast.operation", op),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Background context so recording survives request cancellation.
	ctx := context.TODO()
	m.forecastDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.forecastTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if alerted {
		m.alertsRaised.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordBatch records a batch of forecasts at once.
func (m *ForecastMetrics) RecordBatch(op string, duration time.Duration, succeeded, failed, alerted int) {
	ctx := context.TODO()
	okAttrs := metric.WithAttributes(attribute.String("forecast.operation", op))
	failAttrs := metric.WithAttributes(
		attribute.String("forecast.operation", op),
		attribute.Bool("error", true),
	)

	m.forecastDuration.Record(ctx, duration.Seconds(), okAttrs)
	m.forecastTotal.Add(ctx, int64(succeeded), okAttrs)
	if failed > 0 {
		m.forecastTotal.Add(ctx, int64(failed), failAttrs)
	}
	if alerted > 0 {
		m.alertsRaised.Add(ctx, int64(alerted), okAttrs)
	}
}
