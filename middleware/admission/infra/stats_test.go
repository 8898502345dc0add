package infra

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admission-gateway/middleware/admission/domain"
)

func TestMemoryStatsStore_CountsByOutcomeAndReason(t *testing.T) {
	store := NewMemoryStatsStore(WithTrackKeys(true))
	ctx := context.Background()

	events := []domain.StatsEvent{
		{Key: "user:1", Allowed: true, Policy: "strict", Method: "GET", Path: "/api/me"},
		{Key: "user:1", Allowed: true, Policy: "strict", Method: "GET", Path: "/api/me"},
		{Key: "user:1", Allowed: false, Reason: domain.ReasonRateLimited, Policy: "strict", Method: "GET", Path: "/api/me"},
		{Key: "10.0.0.1", Allowed: false, Reason: domain.ReasonTokenExpired, Policy: "strict", Method: "GET", Path: "/api/me"},
	}
	for _, ev := range events {
		require.NoError(t, store.Record(ctx, ev))
	}

	total := store.Total()
	assert.Equal(t, int64(2), total.Allowed)
	assert.Equal(t, int64(2), total.Denied)

	byReason := store.ByReason()
	assert.Equal(t, int64(1), byReason[domain.ReasonRateLimited])
	assert.Equal(t, int64(1), byReason[domain.ReasonTokenExpired])

	byRoute := store.ByRoute()
	assert.Equal(t, Counters{Allowed: 2, Denied: 2}, byRoute["GET /api/me"])

	byKey := store.ByKey()
	assert.Equal(t, Counters{Allowed: 2, Denied: 1}, byKey["user:1"])
	assert.Equal(t, Counters{Denied: 1}, byKey["10.0.0.1"])
}

func TestMemoryStatsStore_IgnoresKeysWhenNotTracking(t *testing.T) {
	store := NewMemoryStatsStore()

	require.NoError(t, store.Record(context.Background(), domain.StatsEvent{Key: "user:1", Allowed: true}))
	assert.Empty(t, store.ByKey())
}

func TestRedisStatsStore_RecordsOutcomeFields(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStatsStore(rdb, WithStatsBucket("none"), WithStatsTrackKeys(true))
	ctx := context.Background()

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, domain.StatsEvent{
		Key: "user:42", Allowed: true, Policy: "strict", Method: "GET", Path: "/api/me", At: at,
	}))
	require.NoError(t, store.Record(ctx, domain.StatsEvent{
		Key: "user:42", Allowed: false, Reason: domain.ReasonRateLimited, Policy: "strict", Method: "GET", Path: "/api/me", At: at,
	}))

	assert.Equal(t, "1", mr.HGet("admission:stats:total", "allowed"))
	assert.Equal(t, "1", mr.HGet("admission:stats:total", "denied:rate_limited"))
	assert.Equal(t, "1", mr.HGet("admission:stats:policy:strict", "allowed"))
	assert.Equal(t, "1", mr.HGet("admission:stats:key:user:42", "denied:rate_limited"))
	assert.Equal(t, "1", mr.HGet("admission:stats:route", "GET /api/me:allowed"))
}

func TestRedisStatsStore_MinuteBucketGetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStatsStore(rdb, WithStatsTTL(time.Hour))
	at := time.Date(2024, 6, 1, 12, 34, 0, 0, time.UTC)

	require.NoError(t, store.Record(context.Background(), domain.StatsEvent{Allowed: true, At: at}))

	bucketKey := "admission:stats:minute:202406011234"
	require.True(t, mr.Exists(bucketKey))
	assert.Greater(t, mr.TTL(bucketKey), time.Duration(0))

	// o total é cumulativo e nunca expira
	assert.Equal(t, time.Duration(0), mr.TTL("admission:stats:total"))
}
