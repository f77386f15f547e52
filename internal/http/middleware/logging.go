// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, the request-scoped logger and a
// panic-safe recovery handler:
//
//   - RequestID() ensures every request carries a correlation ID (propagated
//     via X-Request-ID) and attaches a zerolog.Logger tagged with it.
//   - Recovery() converts panics into JSON 500 responses while preserving the
//     correlation ID and emitting a stack trace to logs.
//   - LoggerFrom() retrieves the request-scoped logger inside handlers.
//
// Access logs are written by RedactingLogger. Recommended order:
//  1. RequestID()
//  2. RedactingLogger(...)
//  3. Recovery()
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// loggerKey holds the request-scoped *zerolog.Logger.
	loggerKey = "logger"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// maxRequestIDLength bounds client-supplied ids; longer ones are replaced.
	maxRequestIDLength = 128
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// Behavior:
//   - If the incoming request has a usable X-Request-ID, that value is reused.
//     Otherwise, a new UUIDv4 is generated.
//   - The ID is written back to the response header and stored in the Gin
//     context under "requestID".
//   - A logger carrying request_id, method and route is stored under "logger".
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > maxRequestIDLength {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		l := log.With().
			Str("request_id", rid).
			Str("method", c.Request.Method).
			Str("route", route).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()
	}
}

// Recovery intercepts panics, logs a stack trace, and returns a JSON 500 error.
//
// If no response has been written yet the body is the standard envelope:
//
//	{ "request_id": "...", "code": "internal_error", "message": "internal server error" }
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				LoggerFrom(c).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(rid)).
					Msg("panic recovered")

				// Only write if nothing has been written yet.
				if !c.Writer.Written() {
					c.Header("Content-Type", "application/json")
					c.Header(requestIDHeader, asString(rid))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": asString(rid),
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// Without RequestID() upstream the global logger is returned, so callers
// never need a nil check.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// asString converts an arbitrary interface to a string, returning an empty
// string when the value is not a string. Used for context values.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
