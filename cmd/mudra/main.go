package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logger"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}
	log.Info("Mudra - Hand Gesture Control")

	webDir := findWebDir(cfg.DataDir)
	if webDir != "" {
		log.WithField("dir", webDir).Info("serving dashboard files")
	}

	a, err := app.New(cfg, log, app.Options{StaticDir: webDir})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	go func() {
		if err := a.Server().ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	log.Infof("Dashboard at %s", a.DashboardURL())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Headless {
		<-signals
	} else {
		t := tray.New()
		t.OnStart(a.Session().Start)
		t.OnStop(a.Session().Stop)
		t.OnToggleMouse(a.Session().ToggleMouse)
		t.OnDashboard(a.OpenDashboard)
		a.Session().AddListener(t)

		go func() {
			<-signals
			t.Quit()
		}()
		t.Run()
	}

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Server().Shutdown(ctx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := a.Close(); err != nil {
		log.WithError(err).Warn("close")
	}
}

// findWebDir returns the first existing dashboard directory among "web",
// "../web", "../../web" and <dataDir>/web, or "" when none exists.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
