// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type contextKey string

// requestIDKey carries the per-request identifier through the handler chain.
const requestIDKey contextKey = "request_id"

// RequestIDHeader is the HTTP header used to propagate request identifiers.
const RequestIDHeader = "X-Request-ID"

// NewRequestID generates a short request identifier suitable for log correlation.
func NewRequestID() string {
	return strings.Split(uuid.New().String(), "-")[0]
}

// WithRequestID returns a context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request ID, or empty string when absent.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// EntryFor returns a logrus entry annotated with the request ID from ctx.
func EntryFor(ctx context.Context) *log.Entry {
	return log.WithField("request_id", RequestIDFromContext(ctx))
}

// RequestLogger is a Gin middleware that assigns each request an ID,
// stores it on the request context, echoes it in the response headers,
// and writes one access log line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = NewRequestID()
		}

		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"request_id": id,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Infof("%s %s", c.Request.Method, c.Request.URL.Path)
	}
}
