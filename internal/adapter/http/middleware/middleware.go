package middleware

import (
	"net/http"
	"strings"
	"time"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"
	"gig-escrow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"

	// Context keys
	CtxCaller     = "caller"
	CtxRole       = "role"
	CtxRequestID  = "request_id"
	CtxResourceID = "resource_id"
)

// Caller returns the authenticated identity, or "" when JWTAuth did not run.
func Caller(c *gin.Context) domain.Address {
	if v, ok := c.Get(CtxCaller); ok {
		if a, ok := v.(domain.Address); ok {
			return a
		}
	}
	return ""
}

// JWTAuth validates the bearer token and stores the caller identity.
// The role claim is informational; privileges come from configured identities.
func JWTAuth(tokenSvc ports.TokenService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenStr == "" {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		claims, err := tokenSvc.Validate(tokenStr)
		if err != nil {
			log.Debug().Err(err).Msg("token rejected")
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		c.Set(CtxCaller, claims.Identity)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth stores the caller when a valid bearer token is present and
// otherwise lets the request continue anonymously.
func OptionalAuth(tokenSvc ports.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); found && tokenStr != "" {
			if claims, err := tokenSvc.Validate(tokenStr); err == nil {
				c.Set(CtxCaller, claims.Identity)
				c.Set(CtxRole, claims.Role)
			}
		}
		c.Next()
	}
}

// RequestID propagates or assigns a request id for envelopes and logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("request_id", c.GetString(CtxRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("caller", Caller(c).String()).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
