package transport

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// noisyPaths are hot dispatch-path probes logged at Debug to keep Info clean.
var noisyPaths = map[string]bool{
	"/api/assignments/can-assign":      true,
	"/api/assignments/should-validate": true,
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if noisyPaths[c.Request.URL.Path] {
			slog.Debug("request", attrs...)
			return
		}
		slog.Info("request", attrs...)
	}
}
