package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blockparty_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)
	PartiesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blockparty_parties_created_total",
			Help: "Parties created",
		},
	)
	RSVPsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blockparty_rsvps_created_total",
			Help: "RSVPs created (pending)",
		},
	)
	RSVPsVerified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blockparty_rsvps_verified_total",
			Help: "RSVPs confirmed by a host or administrator",
		},
	)
)

// Register registers all collectors with the default registry.
func Register() {
	prometheus.MustRegister(HTTPRequests, PartiesCreated, RSVPsCreated, RSVPsVerified)
}

// Handler exposes the default registry for the /metrics route.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// Middleware counts every request by route template and status.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
