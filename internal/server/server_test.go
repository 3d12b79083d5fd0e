package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/ayusman/mudra/internal/logger"
	"github.com/ayusman/mudra/internal/session"
)

type fakeSession struct {
	mu       sync.Mutex
	startErr error
	running  bool
	mouse    bool
	starts   int
	stops    int
	frame    []byte
}

func (f *fakeSession) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeSession) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.running = false
}

func (f *fakeSession) ToggleMouse() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mouse = !f.mouse
	return f.mouse
}

func (f *fakeSession) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	label := session.NoGesture
	if f.running {
		label = "Fist"
	}
	return session.Snapshot{Running: f.running, Label: label, MouseEnabled: f.mouse}
}

func (f *fakeSession) Frame() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

func newTestServer(sess Session) *Server {
	return New(Config{Session: sess, Log: logger.Discard()})
}

func do(s http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := New(Config{Log: logger.Discard()})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		rec := do(s, http.MethodGet, "/api/health")

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			if rec := do(s, method, "/api/health"); rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{Log: logger.Discard()})

	for _, path := range []string{"/api/nonexistent", "/", "/api/state", "/api/history"} {
		if rec := do(s, http.MethodGet, path); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	content := "<html><body>mudra</body></html>"
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(Config{StaticDir: dir, Log: logger.Discard()})

	rec := do(s, http.MethodGet, "/")
	if rec.Code != http.StatusOK || rec.Body.String() != content {
		t.Errorf("GET / = %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(s, http.MethodGet, "/missing.html"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing file, got %d", rec.Code)
	}
}

func TestServer_State(t *testing.T) {
	s := newTestServer(&fakeSession{})

	rec := do(s, http.MethodGet, "/api/state")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var snap session.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Running || snap.Label != session.NoGesture {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	if rec := do(s, http.MethodPost, "/api/state"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/state = %d, want 405", rec.Code)
	}
}

func TestServer_StateOmitsLastEventBeforeFirstEvent(t *testing.T) {
	s := newTestServer(&fakeSession{})

	rec := do(s, http.MethodGet, "/api/state")
	if strings.Contains(rec.Body.String(), "lastEventAt") {
		t.Errorf("body = %s, want no lastEventAt before any event", rec.Body.String())
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := newTestServer(&fakeSession{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	url := "http://" + ln.Addr().String() + "/api/health"
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never answered: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-served; err != nil {
		t.Errorf("Serve() error = %v, want nil after Shutdown", err)
	}
}

func TestServer_ShutdownBeforeServe(t *testing.T) {
	s := newTestServer(&fakeSession{})
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := s.ListenAndServe("127.0.0.1:0"); err != nil {
		t.Errorf("ListenAndServe() after Shutdown = %v, want nil", err)
	}
}

func TestServer_StartStop(t *testing.T) {
	sess := &fakeSession{}
	s := newTestServer(sess)

	rec := do(s, http.MethodPost, "/api/session/start")
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body.String())
	}
	var snap session.Snapshot
	json.NewDecoder(rec.Body).Decode(&snap)
	if !snap.Running {
		t.Error("expected running snapshot after start")
	}

	rec = do(s, http.MethodPost, "/api/session/stop")
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d", rec.Code)
	}
	snap = session.Snapshot{}
	json.NewDecoder(rec.Body).Decode(&snap)
	if snap.Running || snap.Label != session.NoGesture {
		t.Errorf("unexpected snapshot after stop: %+v", snap)
	}

	if rec := do(s, http.MethodGet, "/api/session/start"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET start = %d, want 405", rec.Code)
	}
}

func TestServer_StartErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"camera unavailable", fmt.Errorf("%w: busy", session.ErrCameraUnavailable), http.StatusServiceUnavailable},
		{"other failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeSession{startErr: tt.err})

			rec := do(s, http.MethodPost, "/api/session/start")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}

			var body map[string]string
			json.NewDecoder(rec.Body).Decode(&body)
			if body["error"] == "" {
				t.Error("expected error message in body")
			}
		})
	}
}

func TestServer_ToggleMouse(t *testing.T) {
	s := newTestServer(&fakeSession{})

	for _, want := range []bool{true, false} {
		rec := do(s, http.MethodPost, "/api/mouse/toggle")
		var body struct {
			MouseEnabled bool `json:"mouseEnabled"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.MouseEnabled != want {
			t.Errorf("mouseEnabled = %v, want %v", body.MouseEnabled, want)
		}
	}
}

func TestServer_ControlRateLimit(t *testing.T) {
	sess := &fakeSession{}
	s := New(Config{
		Session:      sess,
		ControlRate:  rate.Every(time.Hour),
		ControlBurst: 1,
		Log:          logger.Discard(),
	})

	if rec := do(s, http.MethodPost, "/api/mouse/toggle"); rec.Code != http.StatusOK {
		t.Fatalf("first toggle = %d", rec.Code)
	}
	if rec := do(s, http.MethodPost, "/api/mouse/toggle"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second toggle = %d, want 429", rec.Code)
	}
	if rec := do(s, http.MethodGet, "/api/state"); rec.Code != http.StatusOK {
		t.Errorf("state reads should not be limited, got %d", rec.Code)
	}
}

func TestStreamHandler(t *testing.T) {
	sess := &fakeSession{frame: []byte("jpeg-bytes")}
	h := NewStreamHandler(sess)
	h.interval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "--frame\r\n") || !strings.Contains(body, "Content-Length: 10\r\n\r\njpeg-bytes") {
		t.Errorf("unexpected stream body: %q", body)
	}
}

func TestStreamHandler_NoFrameYet(t *testing.T) {
	h := NewStreamHandler(&fakeSession{})
	h.interval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body without frames, got %q", rec.Body.String())
	}
}
