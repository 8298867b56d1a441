package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestHealthCheck_Ping(t *testing.T) {
	s := miniredis.RunT(t)
	hc := NewHealthCheck(goredis.NewClient(&goredis.Options{Addr: s.Addr()}))

	assert.Equal(t, "redis", hc.Name())
	assert.NoError(t, hc.Ping(context.Background()))
	assert.True(t, s.Exists(healthProbeKey))
	assert.Equal(t, 10*time.Second, s.TTL(healthProbeKey))

	s.Close()
	assert.ErrorContains(t, hc.Ping(context.Background()), "probe write")
}
