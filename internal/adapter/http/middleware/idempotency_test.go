package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	redisstore "gig-escrow/internal/adapter/storage/redis"
	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports/mocks"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupIdempotentRouter(t *testing.T, status int, calls *int32) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.POST("/api/v1/orders",
		func(c *gin.Context) {
			c.Set(CtxCaller, testBuyer)
			c.Next()
		},
		Idempotency(redisstore.NewClaimStore(client), redisstore.NewIdempotencyCache(client), time.Hour, zerolog.Nop()),
		func(c *gin.Context) {
			n := atomic.AddInt32(calls, 1)
			c.JSON(status, gin.H{"order_id": n})
		},
	)
	return r, mr
}

func postOrder(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"gig_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	var calls int32
	r, _ := setupIdempotentRouter(t, http.StatusCreated, &calls)

	first := postOrder(r, "order-abc")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(HeaderIdempotentReplay))

	second := postOrder(r, "order-abc")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(HeaderIdempotentReplay))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	third := postOrder(r, "order-def")
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	var calls int32
	r, _ := setupIdempotentRouter(t, http.StatusCreated, &calls)

	postOrder(r, "")
	postOrder(r, "")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotency_FailuresNotStored(t *testing.T) {
	var calls int32
	r, _ := setupIdempotentRouter(t, http.StatusConflict, &calls)

	postOrder(r, "retry-me")
	w := postOrder(r, "retry-me")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, w.Header().Get(HeaderIdempotentReplay))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotency_InFlightRejected(t *testing.T) {
	var calls int32
	r, mr := setupIdempotentRouter(t, http.StatusCreated, &calls)

	key := domain.BuildIdempotencyKey(testBuyer, http.MethodPost, "/api/v1/orders", "busy")
	require.NoError(t, mr.Set("claim:idem:"+key, "1"))

	w := postOrder(r, "busy")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "IDEM_001")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	var calls int32
	r, _ := setupIdempotentRouter(t, http.StatusCreated, &calls)

	w := postOrder(r, strings.Repeat("k", maxIdempotencyKey+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestIdempotency_DegradedOnClaimError(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockIdempotencyCache(ctrl)
	claims := mocks.NewMockClaimStore(ctrl)

	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	claims.EXPECT().Claim(gomock.Any(), "idem", gomock.Any(), gomock.Any()).Return(false, assert.AnError)

	r := gin.New()
	r.POST("/api/v1/orders", Idempotency(claims, cache, time.Hour, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	w := postOrder(r, "k1")
	assert.Equal(t, http.StatusCreated, w.Code)
}
