package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"subsonic-backend/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), RequestID(), ErrorHandler())
	r.POST("/contact", append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})...)
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "203.0.113.7:5555"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("Should reject past the threshold", func(t *testing.T) {
		r := newEngine(RateLimitMiddleware(RateLimitConfig{Limit: 2, Window: time.Minute, KeyPrefix: "test:"}))

		assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/contact", nil).Code)
		second := do(r, http.MethodPost, "/contact", nil)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

		w := do(r, http.MethodPost, "/contact", nil)
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, map[string]string{"error": MsgTooManyRequests}, body)
	})

	t.Run("Should count clients separately", func(t *testing.T) {
		r := newEngine(RateLimitMiddleware(RateLimitConfig{Limit: 1, Window: time.Minute}))

		assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/contact", nil).Code)
		assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/contact", nil).Code)

		req := httptest.NewRequest(http.MethodPost, "/contact", nil)
		req.RemoteAddr = "198.51.100.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should be a no-op when disabled", func(t *testing.T) {
		cfg := &config.Config{RateLimitContactThreshold: 0, RateLimitWindowSeconds: 60}
		r := newEngine(RateLimitMiddleware(ContactRateLimitConfig(cfg)))
		for i := 0; i < 20; i++ {
			require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/contact", nil).Code)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	store := &MemoryStore{}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	count, resetAt := store.Hit("k", time.Minute, start)
	assert.Equal(t, 1, count)
	assert.Equal(t, start.Add(time.Minute), resetAt)

	count, _ = store.Hit("k", time.Minute, start.Add(30*time.Second))
	assert.Equal(t, 2, count)

	count, _ = store.Hit("k", time.Minute, start.Add(2*time.Minute))
	assert.Equal(t, 1, count, "window should reset")

	store.Sweep(start.Add(10 * time.Minute))
	_, ok := store.entries.Load("k")
	assert.False(t, ok)
}

func TestMemoryStoreSweepsInline(t *testing.T) {
	store := &MemoryStore{}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Hit("stale", time.Minute, start)
	store.Hit("other", time.Minute, start.Add(time.Minute))
	_, ok := store.entries.Load("stale")
	require.True(t, ok, "no sweep before the interval")

	store.Hit("fresh", time.Minute, start.Add(memorySweepInterval))
	_, ok = store.entries.Load("stale")
	assert.False(t, ok, "expired entries are dropped on a later hit")
	_, ok = store.entries.Load("fresh")
	assert.True(t, ok)
}

func TestCORSMiddleware(t *testing.T) {
	allowed := []string{"https://subsonicproducciones.cl"}

	t.Run("Should answer preflight for allowed origins", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSMiddleware(allowed, true))
		r.POST("/contact", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := do(r, http.MethodOptions, "/contact", map[string]string{"Origin": "https://subsonicproducciones.cl"})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://subsonicproducciones.cl", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("Should refuse unknown origins", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSMiddleware(allowed, true))
		r.POST("/contact", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := do(r, http.MethodOptions, "/contact", map[string]string{"Origin": "https://evil.example"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should allow localhost only outside production", func(t *testing.T) {
		local := map[string]string{"Origin": "http://localhost:3000"}

		dev := gin.New()
		dev.Use(CORSMiddleware(allowed, false))
		dev.POST("/contact", func(c *gin.Context) { c.Status(http.StatusOK) })
		assert.Equal(t, http.StatusNoContent, do(dev, http.MethodOptions, "/contact", local).Code)

		prod := gin.New()
		prod.Use(CORSMiddleware(allowed, true))
		prod.POST("/contact", func(c *gin.Context) { c.Status(http.StatusOK) })
		assert.Equal(t, http.StatusForbidden, do(prod, http.MethodOptions, "/contact", local).Code)
	})

	t.Run("Should pass same-origin requests", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSMiddleware(allowed, true))
		r.POST("/contact", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := do(r, http.MethodPost, "/contact", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	})
}

func TestRequestID(t *testing.T) {
	r := newEngine()

	w := do(r, http.MethodPost, "/contact", nil)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	w = do(r, http.MethodPost, "/contact", map[string]string{"X-Request-ID": "abc"})
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	w := do(newEngine(), http.MethodGet, "/boom", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"error": "Error interno del servidor"}, body)
}

func TestCORSRejectsSimpleCrossSitePost(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://subsonicproducciones.cl"}, true))
	r.POST("/contact", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodPost, "/contact", map[string]string{
		"Origin":       "https://evil.example",
		"Content-Type": "text/plain",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"error": MsgOriginRejected}, body)
}
