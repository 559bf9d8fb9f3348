// internal/api/middleware.go
package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadgenius/internal/common/logger"
	"leadgenius/internal/common/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	sentryHubKey    = "sentry_hub"
)

// RequestIDMiddleware reuses an incoming X-Request-ID or generates one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// RequestID returns the id set by RequestIDMiddleware.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// LoggerMiddleware logs one entry per request.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"request_id": RequestID(c),
		}
		if query := c.Request.URL.RawQuery; query != "" {
			fields["query"] = query
		}

		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.Errors()
			log.Error("HTTP request with errors", fields)
			return
		}
		log.Info("HTTP request", fields)
	}
}

// RecoveryMiddleware turns panics into a 500 and reports them to Sentry when enabled.
func RecoveryMiddleware(log logger.Logger, sentryEnabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var hub *sentry.Hub
		if sentryEnabled {
			hub = sentry.CurrentHub().Clone()
			hub.Scope().SetTag("request_id", RequestID(c))
			hub.Scope().SetRequest(c.Request)
			c.Set(sentryHubKey, hub)
		}

		defer func() {
			r := recover()
			if r == nil {
				return
			}

			log.Error("panic recovered", map[string]interface{}{
				"error":      fmt.Sprintf("%v", r),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
				"request_id": RequestID(c),
				"stack":      string(debug.Stack()),
			})

			if hub != nil {
				hub.RecoverWithContext(c.Request.Context(), r)
				hub.Flush(2 * time.Second)
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("Internal server error"))
		}()

		c.Next()
	}
}

// captureError reports an unexpected error to Sentry if a hub is attached.
func captureError(c *gin.Context, err error) {
	value, ok := c.Get(sentryHubKey)
	if !ok {
		return
	}
	if hub, ok := value.(*sentry.Hub); ok && hub != nil {
		hub.CaptureException(err)
	}
}

// CORSMiddleware allows the configured origins with credentials.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(origin, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !allowed[origin] {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// BodyLimitMiddleware caps request bodies at limit bytes.
func BodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorBody("Request body too large"))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// MetricsMiddleware records request counts and latencies by route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
