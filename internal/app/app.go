// Package app wires mudra's components together.
package app

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/logger"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/store"
)

// fallbackScreen is used when the display size cannot be detected.
var fallbackScreen = action.ScreenSize{Width: 1920, Height: 1080}

// Options overrides components built from the config. Zero fields select
// the production implementation.
type Options struct {
	StaticDir string
	Camera    capture.Camera
	Detector  detector.Detector
	Cursor    action.Cursor
	Screen    action.ScreenSize
}

// App owns every long-lived component.
type App struct {
	config   config.Config
	log      *logrus.Logger
	store    *store.Store
	plugins  *plugin.Manager
	detector detector.Detector
	session  *session.Session
	hub      *server.Hub
	server   *server.Server
}

// New builds the application from cfg.
func New(cfg config.Config, log *logrus.Logger, opts Options) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	a := &App{
		config: cfg,
		log:    log,
		store:  st,
	}

	a.plugins = plugin.NewManager(cfg.PluginDir, logger.Component(log, "plugin"))
	if err := a.plugins.Discover(); err != nil {
		log.WithError(err).Warn("plugin discovery failed")
	}

	a.detector = opts.Detector
	if a.detector == nil {
		a.detector = newDetector(cfg.Detector, log)
	}

	camera := opts.Camera
	if camera == nil {
		camera = newCamera(cfg, log)
	}

	cursor := opts.Cursor
	if cursor == nil {
		if cursor, err = a.newCursor(cfg.CursorPlugin); err != nil {
			st.Close()
			a.detector.Close()
			return nil, err
		}
	}

	screen := opts.Screen
	if screen.Width <= 0 || screen.Height <= 0 {
		screen = action.DetectScreenSize(fallbackScreen)
	}
	log.WithFields(logrus.Fields{"width": screen.Width, "height": screen.Height}).Info("cursor mapped to screen")

	dispatcher := action.NewDispatcher(cursor, screen, logger.Component(log, "action"))

	a.session = session.New(camera, a.detector, dispatcher, session.Options{
		Mirror:        cfg.Mirror,
		Cooldown:      cfg.Cooldown,
		DisplayWidth:  cfg.DisplayWidth,
		DisplayHeight: cfg.DisplayHeight,
	}, logger.Component(log, "session"))

	a.hub = server.NewHub(logger.Component(log, "hub"))
	a.session.AddListener(NewRecorder(st, cfg.CameraID, logger.Component(log, "recorder")))
	a.session.AddListener(a.hub)

	a.server = server.New(server.Config{
		StaticDir: opts.StaticDir,
		Session:   a.session,
		Store:     st,
		Hub:       a.hub,
		Log:       logger.Component(log, "server"),
	})

	return a, nil
}

// newDetector starts the MediaPipe service, falling back to a detector that
// never sees a hand.
func newDetector(cfg detector.Config, log *logrus.Logger) detector.Detector {
	entry := logger.Component(log, "detector")
	mp, err := detector.NewMediaPipeDetector(cfg, entry)
	if err != nil {
		entry.WithError(err).Warn("MediaPipe not available, using mock detector")
		return detector.NewMockDetector()
	}
	entry.Info("using MediaPipe hand detection")
	return mp
}

// newCamera configures the capture device without opening it.
func newCamera(cfg config.Config, log *logrus.Logger) *capture.DeviceCamera {
	cam := capture.NewCamera(cfg.CameraID)
	cam.SetFPS(cfg.CameraFPS)
	logger.Component(log, "capture").WithFields(logrus.Fields{
		"device": cam.DeviceID(),
		"fps":    cam.FPS(),
	}).Info("camera configured")
	return cam
}

func (a *App) newCursor(pluginName string) (action.Cursor, error) {
	if pluginName == "" {
		return action.RobotCursor{}, nil
	}
	cursor, err := action.NewPluginCursor(a.plugins, plugin.NewExecutor(plugin.DefaultTimeout), pluginName)
	if err != nil {
		return nil, fmt.Errorf("cursor plugin %s: %w", pluginName, err)
	}
	a.log.WithField("plugin", pluginName).Info("using plugin cursor")
	return cursor, nil
}

// Session returns the gesture session.
func (a *App) Session() *session.Session {
	return a.session
}

// Server returns the dashboard server.
func (a *App) Server() *server.Server {
	return a.server
}

// Store returns the history store.
func (a *App) Store() *store.Store {
	return a.store
}

// DashboardURL is the browser address of the dashboard.
func (a *App) DashboardURL() string {
	return dashboardURL(a.config.ListenAddr)
}

// Close stops the session and releases the detector and store.
func (a *App) Close() error {
	a.session.Stop()

	if err := a.detector.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close detector")
	}
	return a.store.Close()
}
