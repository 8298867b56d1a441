package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"
	"gig-escrow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	HeaderIdempotentReplay = "Idempotent-Replayed"

	idempotencyScope    = "idem"
	maxIdempotencyKey   = 128
	idempotencyClaimTTL = 30 * time.Second
)

// responseRecorder tees the response body so it can be stored for replay.
type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response for a repeated Idempotency-Key and
// rejects a concurrent duplicate with IDEM_001. Requests without the header
// pass through. Only 2xx responses are stored. It must run after JWTAuth.
func Idempotency(claims ports.ClaimStore, cache ports.IdempotencyCache, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := c.GetHeader(HeaderIdempotencyKey)
		if clientKey == "" {
			c.Next()
			return
		}
		if len(clientKey) > maxIdempotencyKey {
			response.Error(c, apperror.Validation("Idempotency-Key too long"))
			c.Abort()
			return
		}

		key := domain.BuildIdempotencyKey(Caller(c), c.Request.Method, c.FullPath(), clientKey)
		ctx := c.Request.Context()

		if replayCached(c, cache, key, log) {
			return
		}

		ok, err := claims.Claim(ctx, idempotencyScope, key, idempotencyClaimTTL)
		if err != nil {
			log.Warn().Err(err).Msg("idempotency claim failed, processing request (degraded mode)")
			c.Next()
			return
		}
		if !ok {
			response.Error(c, apperror.ErrRequestInFlight())
			c.Abort()
			return
		}
		defer func() {
			if err := claims.Release(context.Background(), idempotencyScope, key); err != nil {
				log.Warn().Err(err).Msg("idempotency claim release failed")
			}
		}()

		// A duplicate may have finished between the first lookup and the claim.
		if replayCached(c, cache, key, log) {
			return
		}

		rec := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			return
		}
		payload, err := json.Marshal(domain.CachedResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		})
		if err != nil {
			return
		}
		if err := cache.Set(context.Background(), key, payload, ttl); err != nil {
			log.Warn().Err(err).Msg("idempotency cache write failed")
		}
	}
}

// replayCached writes the stored response for key, if any, and aborts the chain.
func replayCached(c *gin.Context, cache ports.IdempotencyCache, key string, log zerolog.Logger) bool {
	cached, err := cache.Get(c.Request.Context(), key)
	if err != nil {
		log.Warn().Err(err).Msg("idempotency cache read failed, processing request")
		return false
	}
	if cached == nil {
		return false
	}
	var stored domain.CachedResponse
	if err := json.Unmarshal(cached, &stored); err != nil {
		log.Warn().Str("key", key).Msg("discarding unreadable idempotency entry")
		return false
	}
	c.Header(HeaderIdempotentReplay, "true")
	c.Data(stored.Status, stored.ContentType, stored.Body)
	c.Abort()
	return true
}
