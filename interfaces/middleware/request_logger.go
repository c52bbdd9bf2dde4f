package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"ratings-aggregator/infrastructure/logger"
)

// RequestLogger logs one line per request. Health probes are logged at
// debug level.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		entry := logger.GetLogger().WithFields(log.Fields{
			"method":     ctx.Request.Method,
			"path":       ctx.Request.URL.Path,
			"status":     ctx.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  ctx.ClientIP(),
		})
		switch {
		case ctx.Request.URL.Path == "/healthz":
			entry.Debug("request")
		case ctx.Writer.Status() >= 500:
			entry.Error("request")
		default:
			entry.Info("request")
		}
	}
}
