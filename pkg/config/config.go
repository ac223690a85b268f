// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/user/labelkit/pkg/fonts"
	"github.com/user/labelkit/pkg/fontspec"
	"github.com/user/labelkit/pkg/orchestrator"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LABELKIT_"

// Measurer names.
const (
	MeasurerShaping = "shaping"
	MeasurerGlyph   = "glyph"
)

// Document kinds.
const (
	DocumentMemory    = "memory"
	DocumentDirectory = "directory"
	DocumentChrome    = "chrome"
)

// Decoder names.
const (
	DecoderSVG    = "svg"
	DecoderChrome = "chrome"
)

// Config represents the full configuration for labelkit.
type Config struct {
	LogLevel string `yaml:"log_level"`
	AppHost  string `yaml:"app_host"`
	Listen   string `yaml:"listen"`

	// Text fitting
	Measurer    string            `yaml:"measurer"`
	Fonts       []FontConfig      `yaml:"fonts"`
	Aliases     map[string]string `yaml:"aliases"`
	StripMarkup bool              `yaml:"strip_markup"`

	// Rasterization
	Document        DocumentConfig `yaml:"document"`
	Decoder         string         `yaml:"decoder"`
	Browser         BrowserConfig  `yaml:"browser"`
	FrameIntervalMs int            `yaml:"frame_interval_ms"`
	DecodeTimeoutMs int            `yaml:"decode_timeout_ms"`

	// Sessions
	MaxInFlight   int `yaml:"max_in_flight"`
	SendTimeoutMs int `yaml:"send_timeout_ms"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// FontConfig registers a font file under a family name.
type FontConfig struct {
	Family string `yaml:"family"`
	Path   string `yaml:"path"`
	Weight string `yaml:"weight"`
	Style  string `yaml:"style"`
}

// DocumentConfig selects where SVG elements are looked up.
type DocumentConfig struct {
	Kind string `yaml:"kind"`
	Dir  string `yaml:"dir"`
	Page string `yaml:"page"`
}

// BrowserConfig configures the Chrome instance used by the chrome document
// and decoder.
type BrowserConfig struct {
	ChromePath  string `yaml:"chrome_path"`
	Headless    bool   `yaml:"headless"`
	AutoInstall bool   `yaml:"auto_install"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		Listen:   "127.0.0.1:8787",

		Measurer: MeasurerShaping,

		Document:        DocumentConfig{Kind: DocumentMemory},
		Decoder:         DecoderSVG,
		Browser:         BrowserConfig{Headless: true, AutoInstall: true},
		FrameIntervalMs: 16,
		DecodeTimeoutMs: 10000,

		MaxInFlight:   16,
		SendTimeoutMs: 5000,

		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file over Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Load builds the effective configuration: Defaults, then the YAML file at
// path (if non-empty), then LABELKIT_* environment variables. Variables from
// envFile are loaded first without overriding the process environment; a
// missing envFile is not an error.
func Load(path, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Defaults()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from LABELKIT_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := parseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("APP_HOST", &c.AppHost)
	str("LISTEN", &c.Listen)
	str("MEASURER", &c.Measurer)
	flag("STRIP_MARKUP", &c.StripMarkup)
	str("DOCUMENT_KIND", &c.Document.Kind)
	str("DOCUMENT_DIR", &c.Document.Dir)
	str("DOCUMENT_PAGE", &c.Document.Page)
	str("DECODER", &c.Decoder)
	str("CHROME_PATH", &c.Browser.ChromePath)
	flag("HEADLESS", &c.Browser.Headless)
	flag("AUTO_INSTALL", &c.Browser.AutoInstall)
	num("FRAME_INTERVAL_MS", &c.FrameIntervalMs)
	num("DECODE_TIMEOUT_MS", &c.DecodeTimeoutMs)
	num("MAX_IN_FLIGHT", &c.MaxInFlight)
	num("SEND_TIMEOUT_MS", &c.SendTimeoutMs)
	flag("DEBUG", &c.Debug)
	str("DEBUG_DIR", &c.DebugDir)

	return errors.Join(errs...)
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", v)
	}
}

// Validate checks enumerated fields and cross-field requirements.
func (c Config) Validate() error {
	var errs []error

	switch c.Measurer {
	case MeasurerShaping, MeasurerGlyph:
	default:
		errs = append(errs, fmt.Errorf("measurer: unknown value %q", c.Measurer))
	}

	switch c.Document.Kind {
	case DocumentMemory, DocumentChrome:
	case DocumentDirectory:
		if c.Document.Dir == "" {
			errs = append(errs, errors.New("document: kind directory requires dir"))
		}
	default:
		errs = append(errs, fmt.Errorf("document: unknown kind %q", c.Document.Kind))
	}

	switch c.Decoder {
	case DecoderSVG, DecoderChrome:
	default:
		errs = append(errs, fmt.Errorf("decoder: unknown value %q", c.Decoder))
	}

	for i, f := range c.Fonts {
		if f.Family == "" || f.Path == "" {
			errs = append(errs, fmt.Errorf("fonts[%d]: family and path are required", i))
		}
		if _, err := f.aspect(); err != nil {
			errs = append(errs, fmt.Errorf("fonts[%d]: %w", i, err))
		}
	}

	if c.DecodeTimeoutMs < 0 || c.FrameIntervalMs < 0 || c.MaxInFlight < 0 || c.SendTimeoutMs < 0 {
		errs = append(errs, errors.New("durations and limits must not be negative"))
	}

	return errors.Join(errs...)
}

// UsesChrome reports whether a browser must be launched.
func (c Config) UsesChrome() bool {
	return c.Document.Kind == DocumentChrome || c.Decoder == DecoderChrome
}

// FrameInterval returns the frame wait of non-browser documents.
func (c Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

// DecodeTimeout returns the bound on a single SVG decode.
func (c Config) DecodeTimeout() time.Duration {
	return time.Duration(c.DecodeTimeoutMs) * time.Millisecond
}

// FontSources converts the fonts section for fonts.Book.Register.
func (c Config) FontSources() []fonts.Source {
	sources := make([]fonts.Source, 0, len(c.Fonts))
	for _, f := range c.Fonts {
		font, _ := f.aspect()
		sources = append(sources, fonts.Source{
			Family: f.Family,
			Path:   f.Path,
			Bold:   font.IsBold(),
			Italic: font.IsItalic(),
		})
	}
	return sources
}

// aspect parses weight and style with the CSS font shorthand grammar.
func (f FontConfig) aspect() (fontspec.Font, error) {
	modifiers := strings.TrimSpace(f.Style + " " + f.Weight)
	if modifiers == "" {
		return fontspec.Default(), nil
	}
	return fontspec.Parse(modifiers + " 1px " + strconv.Quote(f.Family))
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	cfg := orchestrator.DefaultConfig()
	cfg.AppHost = c.AppHost
	if c.MaxInFlight > 0 {
		cfg.MaxInFlight = c.MaxInFlight
	}
	if c.SendTimeoutMs > 0 {
		cfg.SendTimeout = time.Duration(c.SendTimeoutMs) * time.Millisecond
	}
	return cfg
}
