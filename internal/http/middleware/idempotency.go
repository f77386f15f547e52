// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Idempotency-Key support for the dashboard's unsafe
// POST routes (creating a bot token, sending a message). A client that retries
// such a request with the same key receives the first response again instead
// of registering a second credential or delivering a second Telegram message.
//
// Persistence is supplied by the caller through IdempotencyLookup and
// IdempotencyRecorder, so the middleware stays free of storage concerns.
package middleware

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay is set on responses served from a stored result.
const HeaderIdempotentReplay = "Idempotent-Replayed"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stashed by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the response was served from a stored result.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// StoredResponse is what gets replayed for a repeated key.
type StoredResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// IdempotencyLookup returns the stored response for (scope, key), or nil when
// there is none that is still valid at now.
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (*StoredResponse, error)

// IdempotencyRecorder persists a successful response for (scope, key).
type IdempotencyRecorder func(ctx context.Context, scope, key string, resp StoredResponse) error

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// Routes lists the POST route patterns (c.FullPath()) that honor the
	// header. Other requests pass through untouched.
	Routes []string
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyValidator validates the Idempotency-Key header on the configured
// POST routes and serves repeats from storage.
//
// Behavior:
//   - No header, or a route not listed: no-op.
//   - Malformed key: 400 bad_idempotency_key.
//   - Stored response found: it is written again with Idempotent-Replayed:
//     true and the chain is aborted, so later middleware (the rate limiter)
//     and the handler do not run.
//   - Same key still being processed: 409 idempotency_in_progress.
//   - Otherwise the handler runs and a 2xx response is recorded.
//
// Lookup and record failures are logged and never fail the request.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup, record IdempotencyRecorder) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}
	routes := make(map[string]struct{}, len(opts.Routes))
	for _, r := range opts.Routes {
		routes[r] = struct{}{}
	}

	var (
		mu       sync.Mutex
		inFlight = map[string]struct{}{}
	)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if _, ok := routes[c.FullPath()]; !ok {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		scope := c.Request.Method + " " + c.Request.URL.Path
		ctx := c.Request.Context()
		lg := LoggerFrom(c)

		if lookup != nil {
			prev, err := lookup(ctx, scope, key, time.Now().UTC())
			if err != nil {
				lg.Warn().Err(err).Str("scope", scope).Msg("idempotency lookup failed")
			}
			if prev != nil {
				c.Set(ctxKeyIdemReplay, true)
				c.Header(HeaderIdempotentReplay, "true")
				c.Data(prev.Status, prev.ContentType, prev.Body)
				c.Abort()
				return
			}
		}

		slot := scope + "\x00" + key
		mu.Lock()
		if _, busy := inFlight[slot]; busy {
			mu.Unlock()
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "idempotency_in_progress",
				"message":    "a request with this Idempotency-Key is still being processed",
			})
			return
		}
		inFlight[slot] = struct{}{}
		mu.Unlock()
		defer func() {
			mu.Lock()
			delete(inFlight, slot)
			mu.Unlock()
		}()

		cw := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Next()

		status := cw.Status()
		if record == nil || status < 200 || status >= 300 {
			return
		}
		resp := StoredResponse{
			Status:      status,
			ContentType: cw.Header().Get("Content-Type"),
			Body:        cw.body.Bytes(),
		}
		if err := record(context.WithoutCancel(ctx), scope, key, resp); err != nil {
			lg.Warn().Err(err).Str("scope", scope).Msg("idempotency record failed")
		}
	}
}

// capturingWriter keeps a copy of the response body.
type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
