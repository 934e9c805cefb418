package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func do(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// --- RateLimiter ---

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	r := newRouter(RateLimiter(3, time.Hour))

	for i := 0; i < 3; i++ {
		if w := do(r, http.MethodGet, ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: want 200, got %d", i+1, w.Code)
		}
	}
	if w := do(r, http.MethodGet, ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("4th request: want 429, got %d", w.Code)
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	r := newRouter(RateLimiter(1, time.Hour))
	do(r, http.MethodGet, "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("another client should have its own bucket, got %d", w.Code)
	}
}

// --- CORS ---

func TestCORS_AllowListed(t *testing.T) {
	r := newRouter(CORS([]string{"http://localhost:3000"}))

	w := do(r, http.MethodGet, "http://localhost:3000")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("want origin echoed, got %q", got)
	}

	w = do(r, http.MethodGet, "http://evil.test")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unknown origin must not be echoed, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := newRouter(CORS([]string{"*"}))
	r.OPTIONS("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodOptions, "http://any.test")
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight: want 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("wildcard: want *, got %q", got)
	}
}

// --- Secure ---

func TestSecureHeaders(t *testing.T) {
	w := do(newRouter(Secure()), http.MethodGet, "")
	if w.Header().Get("X-Frame-Options") != "DENY" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing hardening headers: %v", w.Header())
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS only applies to TLS requests")
	}
}
