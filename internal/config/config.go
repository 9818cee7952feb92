package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportConfig controls how documents are converted
type ImportConfig struct {
	// RasterizeText turns text layers into image elements
	RasterizeText bool `yaml:"rasterize_text"`
	// Supersample is the scale factor used when rendering layer bitmaps (1 = off)
	Supersample float64 `yaml:"supersample"`
	// EnhanceSmallImages re-renders bitmaps narrower or shorter than EnhanceThreshold at 2x
	EnhanceSmallImages bool `yaml:"enhance_small_images"`
	EnhanceThreshold   int  `yaml:"enhance_threshold"`
	CanvasWidth        int  `yaml:"canvas_width"`
	CanvasHeight       int  `yaml:"canvas_height"`
	// ResizeCanvas sets the host canvas to the document size instead of scaling elements
	ResizeCanvas  bool `yaml:"resize_canvas"`
	MaxCanvasSize int  `yaml:"max_canvas_size"`
}

// FontConfig lists where local font files are looked up
type FontConfig struct {
	Dirs []string `yaml:"dirs"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Config is the YAML configuration file. Environment variables override it at runtime.
type Config struct {
	ConfigVersion int           `yaml:"config_version"`
	Import        ImportConfig  `yaml:"import"`
	Fonts         FontConfig    `yaml:"fonts"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		ConfigVersion: 1,
		Import: ImportConfig{
			RasterizeText:      false,
			Supersample:        1,
			EnhanceSmallImages: true,
			EnhanceThreshold:   500,
			CanvasWidth:        1080,
			CanvasHeight:       1080,
			ResizeCanvas:       false,
			MaxCanvasSize:      5000,
		},
		Fonts:   FontConfig{Dirs: defaultFontDirs()},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func defaultFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return []string{filepath.Join(os.Getenv("WINDIR"), "Fonts")}
	case "darwin":
		return []string{"/System/Library/Fonts", "/Library/Fonts", filepath.Join(home, "Library", "Fonts")}
	default:
		return []string{"/usr/share/fonts", "/usr/local/share/fonts", filepath.Join(home, ".local", "share", "fonts")}
	}
}

// Env var names used as overrides
const (
	EnvRasterizeText = "PSDI_RASTERIZE_TEXT"
	EnvSupersample   = "PSDI_SUPERSAMPLE"
	EnvCanvas        = "PSDI_CANVAS"
	EnvResizeCanvas  = "PSDI_RESIZE_CANVAS"
	EnvFontDirs      = "PSDI_FONT_DIRS"
	EnvLogLevel      = "PSDI_LOG_LEVEL"
	EnvLogFormat     = "PSDI_LOG_FORMAT"
	EnvLogSource     = "PSDI_LOG_SOURCE"
	EnvLogFile       = "PSDI_LOG_FILE"
)

// Path returns the per-user config file path
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(dir, "psdimport", "config.yaml"), nil
}

// Load reads the config file at path (the per-user file when empty), layered over
// Defaults, then applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		p, err := Path()
		if err != nil {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

// Save writes cfg as YAML, creating parent directories
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings the importer cannot work with
func (c Config) Validate() error {
	if c.Import.CanvasWidth <= 0 || c.Import.CanvasHeight <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Import.CanvasWidth, c.Import.CanvasHeight)
	}
	if c.Import.Supersample < 1 {
		return fmt.Errorf("supersample must be at least 1, got %g", c.Import.Supersample)
	}
	if c.Import.MaxCanvasSize <= 0 {
		return fmt.Errorf("max_canvas_size must be positive, got %d", c.Import.MaxCanvasSize)
	}
	return nil
}

// ParseCanvas parses a "WIDTHxHEIGHT" size
func ParseCanvas(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("canvas size %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, fmt.Errorf("canvas width %q: %w", w, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, fmt.Errorf("canvas height %q: %w", h, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("canvas size %q must be positive", s)
	}
	return width, height, nil
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvRasterizeText)); v != "" {
		cfg.Import.RasterizeText = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSupersample)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Import.Supersample = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCanvas)); v != "" {
		if w, h, err := ParseCanvas(v); err == nil {
			cfg.Import.CanvasWidth, cfg.Import.CanvasHeight = w, h
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvResizeCanvas)); v != "" {
		cfg.Import.ResizeCanvas = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontDirs)); v != "" {
		cfg.Fonts.Dirs = filepath.SplitList(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name when the field is overridden by the environment
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"import.rasterize_text": EnvRasterizeText,
		"import.supersample":    EnvSupersample,
		"import.canvas_width":   EnvCanvas,
		"import.canvas_height":  EnvCanvas,
		"import.resize_canvas":  EnvResizeCanvas,
		"fonts.dirs":            EnvFontDirs,
		"logging.level":         EnvLogLevel,
		"logging.format":        EnvLogFormat,
		"logging.source":        EnvLogSource,
		"logging.file":          EnvLogFile,
	}
	if name, ok := names[key]; ok && os.Getenv(name) != "" {
		return name, true
	}
	return "", false
}
