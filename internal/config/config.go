// Package config loads posecoach settings from a .env file and POSECOACH_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "POSECOACH_"

// Detector backends.
const (
	DetectorMediaPipe = "mediapipe"
	DetectorMock      = "mock"
)

// Config holds the resolved application settings.
type Config struct {
	Addr      string
	DataDir   string
	DBPath    string
	StaticDir string
	PluginDir string
	LogLevel  string

	ProgressInterval int
	Workers          int
	Detector         string
	Tray             bool

	MinDetectionConfidence float64
	MinTrackingConfidence  float64
	ModelComplexity        int
}

// Default returns the settings used when no variables are set. DataDir
// defaults to ~/.posecoach.
func Default() Config {
	dataDir := ".posecoach"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".posecoach")
	}
	return Config{
		Addr:                   ":8080",
		DataDir:                dataDir,
		LogLevel:               "info",
		ProgressInterval:       10,
		Workers:                2,
		Detector:               DetectorMediaPipe,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
		ModelComplexity:        1,
	}
}

// Load reads envFiles (".env" when none are given) and then the environment.
// Missing files are ignored; variables already set in the environment win.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment on top of Default.
func FromEnv() (Config, error) {
	cfg := Default()

	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.DBPath = getEnv("DB_PATH", filepath.Join(cfg.DataDir, "posecoach.db"))
	cfg.StaticDir = getEnv("STATIC_DIR", findWebDir(cfg.DataDir))
	cfg.PluginDir = getEnv("PLUGIN_DIR", filepath.Join(cfg.DataDir, "plugins"))
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Detector = strings.ToLower(getEnv("DETECTOR", cfg.Detector))

	var err error
	if cfg.ProgressInterval, err = getEnvInt("PROGRESS_INTERVAL", cfg.ProgressInterval); err != nil {
		return Config{}, err
	}
	if cfg.Workers, err = getEnvInt("WORKERS", cfg.Workers); err != nil {
		return Config{}, err
	}
	if cfg.ModelComplexity, err = getEnvInt("MODEL_COMPLEXITY", cfg.ModelComplexity); err != nil {
		return Config{}, err
	}
	if cfg.Tray, err = getEnvBool("TRAY", cfg.Tray); err != nil {
		return Config{}, err
	}
	if cfg.MinDetectionConfidence, err = getEnvFloat("MIN_DETECTION_CONFIDENCE", cfg.MinDetectionConfidence); err != nil {
		return Config{}, err
	}
	if cfg.MinTrackingConfidence, err = getEnvFloat("MIN_TRACKING_CONFIDENCE", cfg.MinTrackingConfidence); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("%sPROGRESS_INTERVAL must be positive, got %d", envPrefix, c.ProgressInterval)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%sWORKERS must be positive, got %d", envPrefix, c.Workers)
	}
	if c.Detector != DetectorMediaPipe && c.Detector != DetectorMock {
		return fmt.Errorf("%sDETECTOR must be %q or %q, got %q", envPrefix, DetectorMediaPipe, DetectorMock, c.Detector)
	}
	if c.MinDetectionConfidence < 0 || c.MinDetectionConfidence > 1 {
		return fmt.Errorf("%sMIN_DETECTION_CONFIDENCE must be within [0,1], got %v", envPrefix, c.MinDetectionConfidence)
	}
	if c.MinTrackingConfidence < 0 || c.MinTrackingConfidence > 1 {
		return fmt.Errorf("%sMIN_TRACKING_CONFIDENCE must be within [0,1], got %v", envPrefix, c.MinTrackingConfidence)
	}
	if c.ModelComplexity < 0 || c.ModelComplexity > 2 {
		return fmt.Errorf("%sMODEL_COMPLEXITY must be 0, 1 or 2, got %d", envPrefix, c.ModelComplexity)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(envPrefix + key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", envPrefix, key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", envPrefix, key, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	switch strings.ToLower(value) {
	case "true", "yes", "1", "on":
		return true, nil
	case "false", "no", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("parse %s%s: invalid boolean %q", envPrefix, key, value)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web" and dataDir/web, returning the
// first existing directory or an empty string.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}
	return ""
}
