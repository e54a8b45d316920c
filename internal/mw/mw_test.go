package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	req.RemoteAddr = "192.0.2.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestCache_ServesHitsUntilFlushedByWrite(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.Use(FlushOnWrite(store))
	r.GET("/rooms", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.POST("/rooms", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/broken", func(c *gin.Context) { c.Status(http.StatusConflict) })

	first := perform(r, http.MethodGet, "/rooms")
	assert.Equal(t, `{"calls":1}`, first.Body.String())

	second := perform(r, http.MethodGet, "/rooms")
	assert.Equal(t, `{"calls":1}`, second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))

	perform(r, http.MethodPost, "/broken")
	assert.Equal(t, `{"calls":1}`, perform(r, http.MethodGet, "/rooms").Body.String())

	perform(r, http.MethodPost, "/rooms")
	assert.Equal(t, `{"calls":2}`, perform(r, http.MethodGet, "/rooms").Body.String())

	// Query strings are part of the key.
	assert.Equal(t, `{"calls":3}`, perform(r, http.MethodGet, "/rooms?archived=true").Body.String())
}

func TestCache_KeysByPath(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	r := gin.New()
	r.GET("/rooms", Cache(store, time.Minute), func(c *gin.Context) { c.String(http.StatusOK, "rooms") })
	r.GET("/guests", Cache(store, time.Minute), func(c *gin.Context) { c.String(http.StatusOK, "guests") })

	assert.Equal(t, "rooms", perform(r, http.MethodGet, "/rooms").Body.String())
	assert.Equal(t, "guests", perform(r, http.MethodGet, "/guests").Body.String())
	assert.Equal(t, 2, store.ItemCount())

	_, found := store.Get("/rooms")
	assert.True(t, found)
}

func TestCache_SkipsErrors(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	r := gin.New()
	r.GET("/missing", Cache(store, time.Minute), func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	perform(r, http.MethodGet, "/missing")
	assert.Zero(t, store.ItemCount())
}

func TestRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 2)
	r := gin.New()
	r.POST("/booking-requests", RateLimiter(limiter), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	assert.Equal(t, http.StatusAccepted, perform(r, http.MethodPost, "/booking-requests").Code)
	assert.Equal(t, http.StatusAccepted, perform(r, http.MethodPost, "/booking-requests").Code)

	w := perform(r, http.MethodPost, "/booking-requests")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestIPRateLimiter_Prune(t *testing.T) {
	current := time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(rate.Limit(1), 1)
	limiter.now = func() time.Time { return current }

	limiter.GetLimiter("192.0.2.1")
	current = current.Add(10 * time.Minute)
	limiter.GetLimiter("192.0.2.2")
	assert.Equal(t, 2, limiter.Len())

	assert.Equal(t, 1, limiter.Prune(5*time.Minute))
	assert.Equal(t, 1, limiter.Len())
	assert.Same(t, limiter.GetLimiter("192.0.2.2"), limiter.GetLimiter("192.0.2.2"))
}
