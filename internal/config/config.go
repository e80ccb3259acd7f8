// Package config holds the viewer's process configuration, read from a YAML file
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file location relative to the working directory.
const DefaultPath = "config/cometweb.yaml"

// Surface kinds.
const (
	SurfaceRemote = "remote"
	SurfaceNative = "native"
)

// Config is everything the cometweb binaries read at startup.
type Config struct {
	Addr        string `yaml:"addr"`
	SceneFile   string `yaml:"scene_file,omitempty"`
	WatchScene  bool   `yaml:"watch_scene"`
	ShowAxes    bool   `yaml:"show_axes"`
	GridVisible bool   `yaml:"grid_visible"`
	Surface     string `yaml:"surface"`
	SurfaceName string `yaml:"surface_name"`
	Locale      string `yaml:"locale"`

	Settings SettingsConfig `yaml:"settings"`
	Log      LogConfig      `yaml:"log"`
	Demo     DemoConfig     `yaml:"demo"`
}

// SettingsConfig locates the JSON documents served to the UI. Each is a file path or URL.
type SettingsConfig struct {
	Configuration string `yaml:"configuration,omitempty"`
	Strings       string `yaml:"strings,omitempty"`
	Naming        string `yaml:"naming,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level       string `yaml:"level"`
	JSON        bool   `yaml:"json"`
	HistoryFile string `yaml:"history_file"`
}

// DemoConfig sizes the generated demo scene used when no scene file is given.
type DemoConfig struct {
	Width       int     `yaml:"width"`
	Depth       int     `yaml:"depth"`
	HeightScale float64 `yaml:"height_scale"`
	Seed        int64   `yaml:"seed"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Addr:        "127.0.0.1:8080",
		ShowAxes:    true,
		GridVisible: true,
		Surface:     SurfaceRemote,
		SurfaceName: "comet-canvas",
		Locale:      "en",
		Log: LogConfig{
			Level:       "info",
			HistoryFile: "logs/viewer.txt",
		},
		Demo: DemoConfig{
			Width:       8,
			Depth:       8,
			HeightScale: 3,
			Seed:        1,
		},
	}
}

// Load reads path over Default(). A missing file is not an error. Environment
// overrides are applied last, then the result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory if needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration with the rule set in rules.go.
func (c Config) Validate() error {
	return rules.Err(c)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("COMET_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("COMET_SCENE"); v != "" {
		c.SceneFile = v
	}
	if v := os.Getenv("COMET_SETTINGS_URL"); v != "" {
		c.Settings.Configuration = v
	}
	if v := os.Getenv("COMET_LOCALE"); v != "" {
		c.Locale = v
	}
	if v := os.Getenv("COMET_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}
