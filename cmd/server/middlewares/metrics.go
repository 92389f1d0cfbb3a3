package middlewares

import (
	"strconv"
	"time"

	"crypto-pulse/cmd/server/handlers/httperr"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// normalizeRoutePath returns the route template ("/api/crypto/delete/:symbol")
// so coin symbols never become label values. Unmatched requests keep their path.
func normalizeRoutePath(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "/" {
		return route.Path
	}
	return c.Path()
}

// normalizeStatus buckets status codes into 2xx/4xx/5xx classes.
func normalizeStatus(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return strconv.Itoa(status)
}

// HubStats reports live stream connections and dropped events.
type HubStats interface {
	Stats() (subscribers int, dropped uint64)
}

// AttachMetrics gives app its own Prometheus registry, request timing
// middleware and a /metrics endpoint. hub may be nil.
func AttachMetrics(app *fiber.App, hub HubStats) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	reqDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	reg.MustRegister(reqDuration, reqTotal)

	if hub != nil {
		reg.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "watchlist_stream_connections",
				Help: "Open watchlist WebSocket connections",
			}, func() float64 {
				n, _ := hub.Stats()
				return float64(n)
			}),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "watchlist_stream_dropped_events_total",
				Help: "Watchlist events dropped because a subscriber outbox was full",
			}, func() float64 {
				_, dropped := hub.Stats()
				return float64(dropped)
			}),
		)
	}

	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// The global error handler has not written the status yet.
		status := c.Response().StatusCode()
		if err != nil {
			status = httperr.FromError(err).Status
		}

		labels := []string{c.Method(), normalizeRoutePath(c), normalizeStatus(status)}
		reqDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		reqTotal.WithLabelValues(labels...).Inc()
		return err
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return reg
}
