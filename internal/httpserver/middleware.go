package httpserver

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	customerHeader = "X-Customer-ID"
	adminHeader    = "X-Admin-Token"
	customerCtxKey = "customerID"
)

// requestLogger writes one access log entry per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id := customerID(c); id != "" {
			fields = append(fields, zap.String("customer_id", id))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// identify resolves the requester from the customer header. Guests carry no id.
func identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(customerHeader)); id != "" {
			c.Set(customerCtxKey, id)
		}
		c.Next()
	}
}

func requireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if customerID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "customer id required", Kind: "unauthorized"})
			return
		}
		c.Next()
	}
}

// requireAdmin rejects every request when token is empty.
func requireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(adminHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "admin access required", Kind: "forbidden"})
			return
		}
		c.Next()
	}
}

func customerID(c *gin.Context) string {
	return c.GetString(customerCtxKey)
}
