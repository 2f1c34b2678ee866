// Package config loads mmv settings from .mindmap/config.yaml, falling back
// to the user config directory and then to built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/layout"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/render"
)

// ErrInvalidConfig is returned when a loaded config fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all mmv configuration.
type Config struct {
	Layout    LayoutConfig    `yaml:"layout"`
	Limits    LimitsConfig    `yaml:"limits"`
	Render    RenderConfig    `yaml:"render"`
	Generator GeneratorConfig `yaml:"generator"`
	Export    ExportConfig    `yaml:"export"`
	Watch     WatchConfig     `yaml:"watch"`

	// Path is the file the config was read from; empty for defaults.
	Path string `yaml:"-"`
}

// LayoutConfig holds the spacing between a parent and its children.
type LayoutConfig struct {
	HorizontalSpacing float64 `yaml:"horizontal_spacing"`
	VerticalSpacing   float64 `yaml:"vertical_spacing"`
}

// LimitsConfig bounds the trees accepted from a generator.
type LimitsConfig struct {
	MaxDepth int `yaml:"max_depth"`
	MaxNodes int `yaml:"max_nodes"`
}

// RenderConfig holds node sizes and the missing-explanation sentence.
type RenderConfig struct {
	NodeWidth   float64 `yaml:"node_width"`
	NodeHeight  float64 `yaml:"node_height"`
	Placeholder string  `yaml:"placeholder"`
}

// GeneratorConfig selects where trees come from. Command takes precedence
// over Dir.
type GeneratorConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
	Dir     string        `yaml:"dir"`
}

// ExportConfig holds the directory exports are written to.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// WatchConfig tunes live reload of a tree file.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Layout: LayoutConfig{
			HorizontalSpacing: layout.DefaultHorizontalSpacing,
			VerticalSpacing:   layout.DefaultVerticalSpacing,
		},
		Limits: LimitsConfig{
			MaxDepth: model.DefaultLimits().MaxDepth,
			MaxNodes: model.DefaultLimits().MaxNodes,
		},
		Render: RenderConfig{
			NodeWidth:   render.DefaultStyle().NodeWidth,
			NodeHeight:  render.DefaultStyle().NodeHeight,
			Placeholder: render.DefaultPlaceholder,
		},
		Generator: GeneratorConfig{
			Timeout: 2 * time.Minute,
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}

// Load discovers the config file for workDir and reads it. With no file
// anywhere the defaults are returned.
func Load(workDir string) (*Config, error) {
	path, ok := FindConfigFile(workDir)
	if !ok {
		return DefaultConfig(), nil
	}
	return LoadFromPath(path)
}

// LoadFromPath reads config from path. Keys missing from the file keep
// their default values. A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.Path = path

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that config values are usable.
func Validate(cfg *Config) error {
	if cfg.Layout.HorizontalSpacing <= 0 {
		return fmt.Errorf("%w: layout.horizontal_spacing must be positive, got %g",
			ErrInvalidConfig, cfg.Layout.HorizontalSpacing)
	}
	if cfg.Layout.VerticalSpacing <= 0 {
		return fmt.Errorf("%w: layout.vertical_spacing must be positive, got %g",
			ErrInvalidConfig, cfg.Layout.VerticalSpacing)
	}
	if cfg.Limits.MaxDepth < 0 || cfg.Limits.MaxNodes < 0 {
		return fmt.Errorf("%w: limits must be non-negative (0 disables), got depth %d nodes %d",
			ErrInvalidConfig, cfg.Limits.MaxDepth, cfg.Limits.MaxNodes)
	}
	if cfg.Render.NodeWidth <= 0 || cfg.Render.NodeHeight <= 0 {
		return fmt.Errorf("%w: render node size must be positive, got %gx%g",
			ErrInvalidConfig, cfg.Render.NodeWidth, cfg.Render.NodeHeight)
	}
	if cfg.Render.NodeWidth >= cfg.Layout.HorizontalSpacing {
		return fmt.Errorf("%w: render.node_width (%g) must be smaller than layout.horizontal_spacing (%g)",
			ErrInvalidConfig, cfg.Render.NodeWidth, cfg.Layout.HorizontalSpacing)
	}
	if strings.TrimSpace(cfg.Render.Placeholder) == "" {
		return fmt.Errorf("%w: render.placeholder cannot be empty", ErrInvalidConfig)
	}
	if cfg.Generator.Timeout < 0 {
		return fmt.Errorf("%w: generator.timeout must be non-negative, got %s",
			ErrInvalidConfig, cfg.Generator.Timeout)
	}
	if len(cfg.Generator.Command) > 0 && strings.TrimSpace(cfg.Generator.Command[0]) == "" {
		return fmt.Errorf("%w: generator.command has an empty program name", ErrInvalidConfig)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("%w: watch.debounce must be non-negative, got %s",
			ErrInvalidConfig, cfg.Watch.Debounce)
	}
	return nil
}

// Engine returns a layout engine with the configured spacing.
func (c *Config) Engine() layout.Engine {
	return layout.Engine{
		Horizontal: c.Layout.HorizontalSpacing,
		Vertical:   c.Layout.VerticalSpacing,
	}
}

// TreeLimits returns the configured tree bounds.
func (c *Config) TreeLimits() model.Limits {
	return model.Limits{MaxDepth: c.Limits.MaxDepth, MaxNodes: c.Limits.MaxNodes}
}

// Style returns the default render style with the configured sizes.
func (c *Config) Style() render.Style {
	s := render.DefaultStyle()
	s.NodeWidth = c.Render.NodeWidth
	s.NodeHeight = c.Render.NodeHeight
	s.Placeholder = c.Render.Placeholder
	return s
}

// Save writes cfg as YAML to path.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
