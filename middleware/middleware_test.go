package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/wyfcoding/optionlab/config"
	"github.com/wyfcoding/optionlab/contextx"
	"github.com/wyfcoding/optionlab/limiter"
	"github.com/wyfcoding/optionlab/logging"
	"github.com/wyfcoding/optionlab/xerrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	return r
}

func do(r http.Handler, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())
	var seen string
	r.GET("/x", func(c *gin.Context) { seen = contextx.GetRequestID(c.Request.Context()) })

	w := do(r, http.MethodGet, "/x", nil, map[string]string{HeaderXRequestID: "abc"})
	if seen != "abc" || w.Header().Get(HeaderXRequestID) != "abc" {
		t.Errorf("propagated id = %q / %q", seen, w.Header().Get(HeaderXRequestID))
	}

	w = do(r, http.MethodGet, "/x", nil, nil)
	if !strings.HasPrefix(seen, "REQ") || w.Header().Get(HeaderXRequestID) != seen {
		t.Errorf("generated id = %q / %q", seen, w.Header().Get(HeaderXRequestID))
	}
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS(config.CORSConfig{AllowOrigins: []string{"https://app.example"}, MaxAge: time.Hour}))
	r.POST("/v1/compare", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"preflight allowed", http.MethodOptions, "https://app.example", http.StatusNoContent, "https://app.example"},
		{"preflight denied", http.MethodOptions, "https://evil.example", http.StatusForbidden, ""},
		{"simple allowed", http.MethodPost, "https://app.example", http.StatusOK, "https://app.example"},
		{"no origin", http.MethodPost, "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := map[string]string{}
			if tt.origin != "" {
				h["Origin"] = tt.origin
			}
			w := do(r, tt.method, "/v1/compare", nil, h)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(limiter.NewLocalLimiter(rate.Limit(0), 1)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := do(r, http.MethodGet, "/x", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/x", nil, nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", w.Code)
	}
}

func TestNewRateLimiterLocalWithoutRedis(t *testing.T) {
	l := NewRateLimiter(config.RateLimitConfig{Rate: 1, Burst: 1, Distributed: true}, nil, "t:")
	if _, ok := l.(*limiter.LocalLimiter); !ok {
		t.Errorf("limiter = %T, want *limiter.LocalLimiter", l)
	}
}

func TestConcurrencyLimit(t *testing.T) {
	sem := limiter.NewSemaphoreLimiter(1, 0)
	r := newEngine(ConcurrencyLimit(sem))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	if err := sem.Acquire(t.Context()); err != nil {
		t.Fatal(err)
	}
	if w := do(r, http.MethodGet, "/x", nil, nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("busy status = %d", w.Code)
	}
	sem.Release()
	if w := do(r, http.MethodGet, "/x", nil, nil); w.Code != http.StatusOK {
		t.Errorf("free status = %d", w.Code)
	}
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery(logging.NewLogger("optionlab", "test", "error")))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/panic", nil, nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := newEngine(MaxBodyBytes(8))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := do(r, http.MethodPost, "/x", []byte("0123456789"), nil); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
	if w := do(r, http.MethodPost, "/x", []byte("{}"), nil); w.Code != http.StatusOK {
		t.Errorf("small body status = %d", w.Code)
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	r := newEngine(HTTPErrorHandler())
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(xerrors.ErrBatchTooLarge.WithDetail("got %d", 99))
	})

	w := do(r, http.MethodGet, "/x", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Code   int    `json:"code"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Code != xerrors.ErrBatchTooLarge.Code || body.Detail != "got 99" {
		t.Errorf("body = %+v", body)
	}
}

func TestTimeout(t *testing.T) {
	r := newEngine(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	if w := do(r, http.MethodGet, "/slow", nil, nil); w.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", w.Code)
	}
}
