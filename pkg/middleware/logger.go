// Package middleware holds the gin middleware shared by every route: bearer
// authentication, role checks and request logging.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request through logrus.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		log := logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    status,
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		if userID := UserID(c); userID != "" {
			log = log.WithField("user_id", userID)
		}

		switch {
		case status >= 500:
			log.Error("Request: completed with server error")
		case status >= 400:
			log.Warn("Request: completed with client error")
		default:
			log.Info("Request: completed")
		}
	}
}
