package redis_a_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/minimarket-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

func newCache(t *testing.T) (*redis_a.Cache, *helpers.TestRedis) {
	t.Helper()
	r := helpers.SetupTestRedis(t)
	return redis_a.NewCache(r.Client, 5*time.Minute, helpers.TestLogger()), r
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	t.Run("stores_and_retrieves_string", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "test:string", "test value"))

		var got string
		require.NoError(t, cache.Get(ctx, "test:string", &got))
		assert.Equal(t, "test value", got)
	})

	t.Run("stores_and_retrieves_lots", func(t *testing.T) {
		lots := helpers.CreateTestLots(uuid.New(), 3)
		lots[2].SalePriceWholesale = decimal.NullDecimal{}
		lots[1].ExpirationDate = nil

		require.NoError(t, cache.Set(ctx, "test:lots", lots))

		var got []domain.StockLot
		require.NoError(t, cache.Get(ctx, "test:lots", &got))
		require.Len(t, got, 3)
		for i := range lots {
			assert.Equal(t, lots[i].ID, got[i].ID)
			assert.True(t, lots[i].SalePriceUnit.Equal(got[i].SalePriceUnit))
			assert.Equal(t, lots[i].SalePriceWholesale.Valid, got[i].SalePriceWholesale.Valid)
			assert.Equal(t, lots[i].HasExpiration(), got[i].HasExpiration())
		}
	})
}

func TestCache_SetExpiresAfterDefaultTTL(t *testing.T) {
	ctx := context.Background()
	cache, r := newCache(t)

	require.NoError(t, cache.Set(ctx, "ttl:test", "value"))

	var result string
	require.NoError(t, cache.Get(ctx, "ttl:test", &result))
	assert.Equal(t, "value", result)

	r.Server.FastForward(6 * time.Minute)

	err := cache.Get(ctx, "ttl:test", &result)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	keys := []string{"del:1", "del:2", "del:3"}
	for _, key := range keys {
		require.NoError(t, cache.Set(ctx, key, "value"))
	}

	require.NoError(t, cache.Delete(ctx, keys...))
	require.NoError(t, cache.Delete(ctx))

	for _, key := range keys {
		var result string
		assert.ErrorIs(t, cache.Get(ctx, key, &result), redis_a.ErrCacheMiss)
	}
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	fetchCount := 0
	fetchFunc := func() (interface{}, error) {
		fetchCount++
		return "fetched value", nil
	}

	var result1 string
	require.NoError(t, cache.GetOrSet(ctx, "getorset:test", &result1, fetchFunc, time.Minute))
	assert.Equal(t, "fetched value", result1)
	assert.Equal(t, 1, fetchCount)

	var result2 string
	require.NoError(t, cache.GetOrSet(ctx, "getorset:test", &result2, fetchFunc, time.Minute))
	assert.Equal(t, "fetched value", result2)
	assert.Equal(t, 1, fetchCount)
}

func TestCache_GetOrSet_FetchError(t *testing.T) {
	ctx := context.Background()
	cache, r := newCache(t)

	boom := errors.New("store down")
	var result string
	err := cache.GetOrSet(ctx, "getorset:err", &result, func() (interface{}, error) {
		return nil, boom
	}, time.Minute)

	assert.ErrorIs(t, err, boom)
	assert.False(t, r.Server.Exists("getorset:err"))
}

func TestCache_UnavailableServer(t *testing.T) {
	ctx := context.Background()
	cache, r := newCache(t)
	r.Server.Close()

	var result string
	err := cache.Get(ctx, "any", &result)
	require.Error(t, err)
	assert.NotErrorIs(t, err, redis_a.ErrCacheMiss)

	fetched := false
	err = cache.GetOrSet(ctx, "any", &result, func() (interface{}, error) {
		fetched = true
		return "value", nil
	}, time.Minute)
	assert.Error(t, err)
	assert.False(t, fetched, "an unreachable cache is reported, not bypassed")
}

func TestCache_GetOrSet_ReplacesUndecodableEntry(t *testing.T) {
	ctx := context.Background()
	cache, r := newCache(t)
	productID := uuid.New()
	key := "lots:product:" + productID.String()

	require.NoError(t, r.Server.Set(key, "not json"))

	lots := helpers.CreateTestLots(productID, 2)
	var got []domain.StockLot
	require.NoError(t, cache.GetOrSet(ctx, key, &got, func() (interface{}, error) {
		return lots, nil
	}, time.Minute))

	require.Len(t, got, 2)
	assert.Equal(t, lots[0].ID, got[0].ID)
	assert.Equal(t, time.Minute, r.Server.TTL(key))
}

func TestCache_SetNX(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	ok, err := cache.SetNX(ctx, "setnx:test", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "setnx:test", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	var result string
	require.NoError(t, cache.Get(ctx, "setnx:test", &result))
	assert.Equal(t, "first", result)
}

func TestIdempotencyGuard(t *testing.T) {
	ctx := context.Background()
	cache, r := newCache(t)
	guard := redis_a.NewIdempotencyGuard(cache, time.Minute, helpers.TestLogger())

	ok, err := guard.Acquire(ctx, "register-1-0001")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, r.Server.Exists("idem:sale:register-1-0001"))

	ok, err = guard.Acquire(ctx, "register-1-0001")
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must be refused while in flight")

	ok, err = guard.Acquire(ctx, "register-1-0002")
	require.NoError(t, err)
	assert.True(t, ok, "other keys are independent")

	require.NoError(t, guard.Release(ctx, "register-1-0001"))
	ok, err = guard.Acquire(ctx, "register-1-0001")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIdempotencyGuard_Expires(t *testing.T) {
	ctx := context.Background()
	cache, r := newCache(t)
	guard := redis_a.NewIdempotencyGuard(cache, time.Minute, helpers.TestLogger())

	ok, err := guard.Acquire(ctx, "crashed-request")
	require.NoError(t, err)
	require.True(t, ok)

	r.Server.FastForward(2 * time.Minute)

	ok, err = guard.Acquire(ctx, "crashed-request")
	require.NoError(t, err)
	assert.True(t, ok)
}
