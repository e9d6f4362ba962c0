package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideaboard_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// QuotaRejections counts like attempts rejected by the daily quota.
	QuotaRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ideaboard_like_quota_rejections_total",
		Help: "Total number of like attempts rejected by the daily quota",
	})
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
