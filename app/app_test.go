package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionlab/logging"
)

const testConfig = `
version = "test"

[server]
name = "optionlab"
environment = "test"

[server.http]
addr = "127.0.0.1"
port = 18080

[metrics]
enabled = true
path = "/metrics"
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(testConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuilderAdminRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	b := NewBuilder("optionlab").
		WithConfigPath(writeConfig(t)).
		WithService(func(res *Resources) (any, func(), error) {
			if res.Redis != nil {
				t.Error("redis client created without addrs")
			}
			return "svc", nil, nil
		}).
		WithGin(func(e *gin.Engine, svc any) {
			e.GET("/v1/ping", func(c *gin.Context) { c.String(http.StatusOK, svc.(string)) })
		}).
		WithHealthChecker("always", func(context.Context) error { return nil })

	if _, err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	engine := b.Engine()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	if w.Code != http.StatusOK || w.Body.String() != "svc" {
		t.Errorf("ping = %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sys/health", nil))
	var health struct {
		Status  string            `json:"status"`
		Version string            `json:"version"`
		Checks  map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusOK || health.Status != "UP" || health.Version != "test" || health.Checks["always"] != "UP" {
		t.Errorf("health = %d %+v", w.Code, health)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_server_requests_total") {
		t.Errorf("metrics = %d", w.Code)
	}
}

func TestBuilderMissingConfig(t *testing.T) {
	_, err := NewBuilder("optionlab").WithConfigPath(filepath.Join(t.TempDir(), "absent.toml")).Build()
	if err == nil {
		t.Fatal("expected error for missing config")
	}
}

type fakeServer struct {
	started chan struct{}
	stopped bool
}

func (s *fakeServer) Start(ctx context.Context) error {
	close(s.started)
	<-ctx.Done()
	return nil
}

func (s *fakeServer) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func TestAppRunContext(t *testing.T) {
	srv := &fakeServer{started: make(chan struct{})}
	var order []string
	hook := func(name string) Hook {
		return Hook{
			Name:    name,
			OnStart: func(context.Context) error { order = append(order, "start:"+name); return nil },
			OnStop:  func(context.Context) error { order = append(order, "stop:"+name); return nil },
		}
	}
	a := New("optionlab", logging.NewLogger("optionlab", "test", "error"),
		WithServer(srv), WithHook(hook("a")), WithHook(hook("b")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.RunContext(ctx) }()

	select {
	case <-srv.started:
	case <-time.After(time.Second):
		t.Fatal("server not started")
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("RunContext: %v", err)
	}
	if !srv.stopped {
		t.Error("server not stopped")
	}
	want := "start:a,start:b,stop:b,stop:a"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("hook order = %s, want %s", got, want)
	}
}

func TestLifecycleStartFailure(t *testing.T) {
	lc := NewLifecycle(logging.NewLogger("optionlab", "test", "error"))
	boom := errors.New("boom")
	lc.Append(Hook{Name: "bad", OnStart: func(context.Context) error { return boom }})
	if err := lc.Start(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Start = %v", err)
	}
}
