package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/logger"
	"github.com/ayusman/mudra/internal/session"
)

type recordingCursor struct {
	mu    sync.Mutex
	moves [][2]int
}

func (c *recordingCursor) MoveCursorTo(x, y int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moves = append(c.moves, [2]int{x, y})
	return nil
}

func (c *recordingCursor) Moves() [][2]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][2]int(nil), c.moves...)
}

func newTestApp(t *testing.T, hands []detector.HandPose) (*App, *recordingCursor) {
	t.Helper()

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.PluginDir = t.TempDir()
	cfg.Cooldown = time.Hour

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })

	det := detector.NewMockDetector()
	det.SetHands(hands)
	cursor := &recordingCursor{}

	log, err := logger.New(logger.Options{Level: "error"})
	if err != nil {
		t.Fatal(err)
	}

	a, err := New(cfg, log, Options{
		Camera:   capture.NewMockCamera([]*gocv.Mat{&frame}, true),
		Detector: det,
		Cursor:   cursor,
		Screen:   action.ScreenSize{Width: 1000, Height: 500},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, cursor
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestApp_PointMovesCursorAndRecordsHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	a, cursor := newTestApp(t, []detector.HandPose{detector.PointingLandmarks(0.25, 0.5)})
	srv := httptest.NewServer(a.Server())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/mouse/toggle", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Post(srv.URL+"/api/session/start", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d", resp.StatusCode)
	}

	waitFor(t, "cursor move", func() bool { return len(cursor.Moves()) > 0 })
	if got := cursor.Moves()[0]; got != [2]int{250, 250} {
		t.Errorf("cursor moved to %v, want [250 250]", got)
	}

	snap := a.Session().Snapshot()
	a.Session().Stop()

	ctx := context.Background()
	events, err := a.Store().Events().ListBySession(ctx, snap.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Label != "Point" || !events[0].MouseEnabled {
		t.Fatalf("unexpected recorded events: %+v", events)
	}
	if events[0].TipX != 0.25 || events[0].TipY != 0.5 {
		t.Errorf("recorded tip (%v, %v), want (0.25, 0.5)", events[0].TipX, events[0].TipY)
	}

	sess, err := a.Store().Sessions().GetByID(ctx, snap.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Active() || sess.EndReason != session.ReasonStopped {
		t.Errorf("session not closed in history: %+v", sess)
	}
}

func TestApp_MouseDisabledLeavesCursorAlone(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	a, cursor := newTestApp(t, []detector.HandPose{detector.PointingLandmarks(0.5, 0.5)})

	if err := a.Session().Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "point label", func() bool { return a.Session().Snapshot().Label == "Point" })
	a.Session().Stop()

	if moves := cursor.Moves(); len(moves) != 0 {
		t.Errorf("cursor moved with mouse control off: %v", moves)
	}
}

func TestNew_UnknownCursorPlugin(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.PluginDir = t.TempDir()
	cfg.CursorPlugin = "missing"

	log, _ := logger.New(logger.Options{Level: "error"})
	if _, err := New(cfg, log, Options{Detector: detector.NewMockDetector()}); err == nil {
		t.Error("expected error for unknown cursor plugin")
	}
}

func TestNewCamera_AppliesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.CameraID = 2
	cfg.CameraFPS = 15

	log, err := logger.New(logger.Options{Level: "error"})
	if err != nil {
		t.Fatal(err)
	}

	cam := newCamera(cfg, log)
	if cam.DeviceID() != 2 || cam.FPS() != 15 {
		t.Errorf("camera device=%d fps=%d, want 2 and 15", cam.DeviceID(), cam.FPS())
	}
	if cam.IsOpen() {
		t.Error("camera should not be opened before a session starts")
	}
}

func TestDashboardURL(t *testing.T) {
	tests := []struct {
		addr, want string
	}{
		{"127.0.0.1:8080", "http://127.0.0.1:8080"},
		{":9000", "http://127.0.0.1:9000"},
		{"0.0.0.0:80", "http://127.0.0.1:80"},
		{"localhost", "http://localhost"},
	}
	for _, tt := range tests {
		if got := dashboardURL(tt.addr); got != tt.want {
			t.Errorf("dashboardURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestBrowserCommand(t *testing.T) {
	tests := map[string]string{
		"darwin":  "open",
		"windows": "rundll32",
		"linux":   "xdg-open",
	}
	for goos, want := range tests {
		cmd := browserCommand(goos, "http://127.0.0.1:8080")
		if cmd.Args[0] != want {
			t.Errorf("%s: command = %q, want %q", goos, cmd.Args[0], want)
		}
	}
}
