package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gorent/internal/pkg/cache"
	"gorent/internal/pkg/middleware"
)

// memoryCache é um cache.Client de memória para testar o rate limiter sem Redis.
type memoryCache struct {
	counters map[string]int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{counters: make(map[string]int)}
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) { return "", nil }

func (m *memoryCache) GetInt(ctx context.Context, key string) (int, error) {
	count, ok := m.counters[key]
	if !ok {
		return 0, cache.ErrCacheMiss
	}
	return count, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.counters[key] = value.(int)
	return nil
}

func (m *memoryCache) Incr(ctx context.Context, key string) error {
	m.counters[key]++
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	delete(m.counters, key)
	return nil
}

func doRequest(handler http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:51234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestRateLimiter_Success_AbaixoDoLimite testa que requisições dentro do
// limite passam e o contador é incrementado por IP.
func TestRateLimiter_Success_AbaixoDoLimite(t *testing.T) {
	client := newMemoryCache()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := middleware.RateLimiter(client, 3, time.Minute)(next)

	for i := 0; i < 3; i++ {
		rec := doRequest(limited)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, client.counters["rate-limit:10.0.0.1"])
}

// TestRateLimiter_Fail_LimiteExcedido testa que a requisição acima do limite
// recebe 429 sem chegar ao handler.
func TestRateLimiter_Fail_LimiteExcedido(t *testing.T) {
	client := newMemoryCache()
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	limited := middleware.RateLimiter(client, 2, time.Minute)(next)

	doRequest(limited)
	doRequest(limited)
	rec := doRequest(limited)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, client.counters["rate-limit:10.0.0.1"])

	reached = false
	doRequest(limited)
	assert.False(t, reached)
}
