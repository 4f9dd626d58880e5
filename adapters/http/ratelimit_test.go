package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func rateLimitedRouter(perSecond float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(perSecond, burst))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = ip + ":40000"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_PerClientBurst(t *testing.T) {
	r := rateLimitedRouter(0.5, 2)

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)

	rr := hit(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2").Code)
}

func TestRateLimit_DisabledWithZeroRate(t *testing.T) {
	r := rateLimitedRouter(0, 0)
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	}
}

func TestIPLimiters_SweepsIdleClients(t *testing.T) {
	l := newIPLimiters(1, 1)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return start }
	for i := 0; i < limiterSweepAfter; i++ {
		l.get(string(rune('a'+i%26)) + time.Duration(i).String())
	}
	assert.Len(t, l.clients, limiterSweepAfter)

	l.now = func() time.Time { return start.Add(limiterIdleTTL + time.Minute) }
	l.get("fresh")
	assert.Len(t, l.clients, 1)
}
