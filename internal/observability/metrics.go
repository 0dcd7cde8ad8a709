package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API and the
// notification dispatcher.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	emailsSentTotal      *prometheus.CounterVec
	emailsFailedTotal    *prometheus.CounterVec
	emailsSkippedTotal   *prometheus.CounterVec
	emailSendDuration    *prometheus.HistogramVec
	dispatchQueueDepth   prometheus.Gauge
	dispatchDroppedTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "labman",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "labman",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		emailsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "labman",
				Name:      "emails_sent_total",
				Help:      "Total number of notification emails sent successfully.",
			},
			[]string{"email_type"},
		),
		emailsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "labman",
				Name:      "emails_failed_total",
				Help:      "Total number of notification emails that failed to send.",
			},
			[]string{"email_type", "reason"},
		),
		emailsSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "labman",
				Name:      "emails_skipped_total",
				Help:      "Total number of recipients skipped for notification opt-out.",
			},
			[]string{"email_type"},
		),
		emailSendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "labman",
				Name:      "email_send_duration_seconds",
				Help:      "Mail relay send duration in seconds grouped by email type.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"email_type"},
		),
		dispatchQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "labman",
				Name:      "dispatch_queue_depth",
				Help:      "Current number of notification jobs waiting in the dispatch queue.",
			},
		),
		dispatchDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "labman",
				Name:      "dispatch_jobs_dropped_total",
				Help:      "Total number of notification jobs dropped on queue overflow.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.emailsSentTotal,
		m.emailsFailedTotal,
		m.emailsSkippedTotal,
		m.emailSendDuration,
		m.dispatchQueueDepth,
		m.dispatchDroppedTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncEmailSent(emailType string) {
	if m == nil {
		return
	}
	m.emailsSentTotal.WithLabelValues(normalizeLabel(emailType)).Inc()
}

func (m *Metrics) IncEmailFailed(emailType string, reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.emailsFailedTotal.WithLabelValues(normalizeLabel(emailType), reasonLabel).Inc()
}

func (m *Metrics) IncEmailSkipped(emailType string) {
	if m == nil {
		return
	}
	m.emailsSkippedTotal.WithLabelValues(normalizeLabel(emailType)).Inc()
}

func (m *Metrics) ObserveEmailSendDuration(emailType string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.emailSendDuration.WithLabelValues(normalizeLabel(emailType)).Observe(seconds)
}

func (m *Metrics) SetDispatchQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.dispatchQueueDepth.Set(float64(depth))
}

func (m *Metrics) IncDispatchJobDropped() {
	if m == nil {
		return
	}
	m.dispatchDroppedTotal.Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
