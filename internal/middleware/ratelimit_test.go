package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_Burst(t *testing.T) {
	r := gin.New()
	r.GET("/limited", RateLimit(1, 3), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	var codes []int
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	for i := 0; i < 3; i++ {
		if codes[i] != http.StatusOK {
			t.Errorf("request %d: status = %d, expected 200 within burst", i, codes[i])
		}
	}
	if codes[3] != http.StatusTooManyRequests || codes[4] != http.StatusTooManyRequests {
		t.Errorf("requests beyond burst should be 429, got %v", codes[3:])
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	r := gin.New()
	r.GET("/limited", RateLimit(1, 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", first.Code)
	}

	// Same IP is now throttled
	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.RemoteAddr = "10.0.0.1:5678"
	r.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("same IP second request: status = %d, expected 429", second.Code)
	}

	// A different IP gets its own bucket
	other := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(other, req)
	if other.Code != http.StatusOK {
		t.Errorf("different IP: status = %d, expected 200", other.Code)
	}
}
