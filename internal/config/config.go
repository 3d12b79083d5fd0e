// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Config holds every runtime knob. Values come from MUDRA_* variables,
// optionally seeded from a .env file.
type Config struct {
	CameraID  int `validate:"gte=0"`
	CameraFPS int `validate:"gte=1,lte=120"`
	Mirror    bool

	Detector detector.Config

	Cooldown time.Duration `validate:"gt=0"`

	ListenAddr string `validate:"required"`
	DataDir    string `validate:"required"`
	PluginDir  string
	// CursorPlugin selects a plugin-backed cursor instead of the built-in one.
	CursorPlugin string

	DisplayWidth  int `validate:"gt=0"`
	DisplayHeight int `validate:"gt=0"`

	Headless bool
	LogLevel string `validate:"oneof=trace debug info warn warning error"`
	LogFile  string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".mudra")

	return Config{
		CameraID:      0,
		CameraFPS:     capture.DefaultFPS,
		Mirror:        true,
		Detector:      detector.DefaultConfig(),
		Cooldown:      gesture.DefaultCooldown,
		ListenAddr:    "127.0.0.1:8080",
		DataDir:       dataDir,
		PluginDir:     filepath.Join(dataDir, "plugins"),
		DisplayWidth:  640,
		DisplayHeight: 480,
		LogLevel:      "info",
	}
}

// Load reads envFile if it exists, overlays MUDRA_* variables on the
// defaults and validates the result.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	var err error

	if cfg.CameraID, err = envInt("MUDRA_CAMERA_ID", cfg.CameraID); err != nil {
		return Config{}, err
	}
	if cfg.CameraFPS, err = envInt("MUDRA_CAMERA_FPS", cfg.CameraFPS); err != nil {
		return Config{}, err
	}
	if cfg.Mirror, err = envBool("MUDRA_MIRROR", cfg.Mirror); err != nil {
		return Config{}, err
	}
	if cfg.Detector.MaxHands, err = envInt("MUDRA_MAX_HANDS", cfg.Detector.MaxHands); err != nil {
		return Config{}, err
	}
	if cfg.Detector.MinConfidence, err = envFloat("MUDRA_DETECTION_CONFIDENCE", cfg.Detector.MinConfidence); err != nil {
		return Config{}, err
	}
	if cfg.Detector.MinTrackingConf, err = envFloat("MUDRA_TRACKING_CONFIDENCE", cfg.Detector.MinTrackingConf); err != nil {
		return Config{}, err
	}
	if cfg.Cooldown, err = envDuration("MUDRA_COOLDOWN", cfg.Cooldown); err != nil {
		return Config{}, err
	}
	if cfg.DisplayWidth, err = envInt("MUDRA_DISPLAY_WIDTH", cfg.DisplayWidth); err != nil {
		return Config{}, err
	}
	if cfg.DisplayHeight, err = envInt("MUDRA_DISPLAY_HEIGHT", cfg.DisplayHeight); err != nil {
		return Config{}, err
	}
	if cfg.Headless, err = envBool("MUDRA_HEADLESS", cfg.Headless); err != nil {
		return Config{}, err
	}

	cfg.ListenAddr = envString("MUDRA_LISTEN_ADDR", cfg.ListenAddr)
	if dir := os.Getenv("MUDRA_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
		cfg.PluginDir = filepath.Join(dir, "plugins")
	}
	cfg.PluginDir = envString("MUDRA_PLUGIN_DIR", cfg.PluginDir)
	cfg.CursorPlugin = envString("MUDRA_CURSOR_PLUGIN", cfg.CursorPlugin)
	cfg.LogLevel = envString("MUDRA_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = envString("MUDRA_LOG_FILE", cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints, including the nested detector settings.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DatabasePath is the sqlite file under DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
