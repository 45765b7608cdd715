package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Latency of personalization HTTP handlers, by route template
	HandlerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "personalization_http_latency_seconds",
		Help:    "Latency of personalization HTTP handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// Total number of handled requests by status code
	HandlerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "personalization_http_requests_total",
		Help: "Total number of personalization HTTP requests",
	}, []string{"route", "method", "status"})
)

func Init() {
	prometheus.MustRegister(
		HandlerLatency,
		HandlerRequests,
	)
}

// Middleware observes every request under its route template so path
// parameters do not blow up label cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			route := c.Path()
			method := c.Request().Method
			HandlerLatency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			HandlerRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()

			return err
		}
	}
}
