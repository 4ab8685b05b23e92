package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// cors allows any origin so the page can be served from elsewhere.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLog logs one line per request at debug level and failures at warn.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start).Round(time.Millisecond)
		if status >= http.StatusInternalServerError {
			log.Warn("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, elapsed)
			return
		}
		log.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, elapsed)
	}
}
