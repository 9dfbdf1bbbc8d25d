package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shareit-platform/service-booking/internal/domain"
	"github.com/shareit-platform/service-booking/internal/metrics"
	"github.com/shareit-platform/service-booking/internal/response"
	"go.uber.org/zap"
)

// Header and context keys shared by the middleware chain.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-Sharer-User-Id"
	HeaderAdmin     = "X-Admin-Token"

	ctxRequestID = "request_id"
	ctxUserID    = "user_id"
)

// RequestIDMiddleware propagates X-Request-ID or generates one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the request id set by RequestIDMiddleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// LoggerMiddleware writes one structured access log line per request.
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", GetRequestID(c)),
		}
		if userID, ok := GetUserID(c); ok {
			fields = append(fields, zap.Int64("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request served", fields...)
		}
	}
}

// RecoveryMiddleware turns a panic into a 500 and logs it.
func RecoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", GetRequestID(c)),
					zap.Stack("stack"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorBody{
					Error: "internal server error",
					Kind:  string(domain.KindInternal),
				})
			}
		}()
		c.Next()
	}
}

// MetricsMiddleware records request counts and latency per route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// UserIDMiddleware requires a positive integer X-Sharer-User-Id header and stores it.
func UserIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			response.BadRequest(c, "missing "+HeaderUserID+" header")
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.BadRequest(c, "invalid "+HeaderUserID+" header: "+raw)
			return
		}
		c.Set(ctxUserID, id)
		c.Next()
	}
}

// GetUserID returns the caller id stored by UserIDMiddleware.
func GetUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// AdminTokenMiddleware guards admin routes with a shared token. An empty token
// disables the routes entirely.
func AdminTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(HeaderAdmin)
		if token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorBody{
				Error: "admin access required",
				Kind:  string(domain.KindAccessDenied),
			})
			return
		}
		c.Next()
	}
}
