// Package config holds the service configuration: transport endpoints, model
// locations, recognition tuning and the fleet parameters. Values come from a
// YAML file, environment variables and command-line flags, in that order of
// precedence from lowest to highest.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/railsight/sidenum/internal/accumulator"
	"github.com/railsight/sidenum/internal/ocr"
	"github.com/railsight/sidenum/internal/pipeline"
	"github.com/railsight/sidenum/internal/resolver"
	"github.com/railsight/sidenum/internal/transport"
)

// ModelsConfig locates the ONNX models and the recognition dictionary.
// Relative names resolve against Dir.
type ModelsConfig struct {
	Dir        string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Det        string `mapstructure:"det" yaml:"det" json:"det"`
	Cls        string `mapstructure:"cls" yaml:"cls" json:"cls"`
	Rec        string `mapstructure:"rec" yaml:"rec" json:"rec"`
	Dict       string `mapstructure:"dict" yaml:"dict" json:"dict"`
	NumThreads int    `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// OCRConfig tunes the recognition engine.
type OCRConfig struct {
	Thresh      float32 `mapstructure:"thresh" yaml:"thresh" json:"thresh"`
	TextThresh  float32 `mapstructure:"text_thresh" yaml:"text_thresh" json:"text_thresh"`
	UnclipRatio float64 `mapstructure:"unclip_ratio" yaml:"unclip_ratio" json:"unclip_ratio"`
	MinArea     float64 `mapstructure:"min_area" yaml:"min_area" json:"min_area"`
	KeepRepeats bool    `mapstructure:"keep_repeats" yaml:"keep_repeats" json:"keep_repeats"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr" json:"addr"`
}

// Config is the root configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`

	Transport   transport.Config     `mapstructure:"transport" yaml:"transport" json:"transport"`
	Models      ModelsConfig         `mapstructure:"models" yaml:"models" json:"models"`
	OCR         OCRConfig            `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Pipeline    pipeline.Config      `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Accumulator accumulator.Config   `mapstructure:"accumulator" yaml:"accumulator" json:"accumulator"`
	CRH         resolver.CRHConfig   `mapstructure:"crh" yaml:"crh" json:"crh"`
	Metro       resolver.MetroConfig `mapstructure:"metro" yaml:"metro" json:"metro"`
	Metrics     MetricsConfig        `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() *Config {
	engine := ocr.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Transport: transport.Config{
			ListenAddr: "0.0.0.0:18060",
			SendAddr:   "127.0.0.1:18061",
		},
		Models: ModelsConfig{
			Dir:        "models",
			Det:        "det.onnx",
			Cls:        "cls.onnx",
			Rec:        "rec.onnx",
			Dict:       "dict.txt",
			NumThreads: engine.NumThreads,
		},
		OCR: OCRConfig{
			Thresh:      engine.Thresh,
			TextThresh:  engine.TextThresh,
			UnclipRatio: engine.UnclipRatio,
			MinArea:     engine.MinArea,
			KeepRepeats: engine.KeepRepeats,
		},
		Pipeline: pipeline.Config{
			Channel:      "105-x",
			Side:         "2",
			TrainType:    2,
			RecMode:      1,
			ImageRoot:    "captures",
			ResizeWidth:  1920,
			ResizeHeight: 1080,
			SaveFrames:   false,
			SavePath:     "saved",
			DedupWindow:  10 * time.Second,
		},
		Accumulator: accumulator.DefaultConfig(),
		CRH:         resolver.DefaultCRHConfig(),
		Metro:       resolver.DefaultMetroConfig(),
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// normalize propagates the single train_type knob to the accumulator so the
// two stages cannot disagree on the fleet.
func (c *Config) normalize() {
	c.Accumulator.TrainType = c.Pipeline.TrainType
}

// EngineConfig assembles the recognition engine configuration from the
// models and ocr sections.
func (c *Config) EngineConfig() ocr.Config {
	eng := ocr.DefaultConfig()
	eng.DetModelPath = c.modelPath(c.Models.Det)
	eng.ClsModelPath = c.modelPath(c.Models.Cls)
	eng.RecModelPath = c.modelPath(c.Models.Rec)
	eng.DictPath = c.modelPath(c.Models.Dict)
	eng.NumThreads = c.Models.NumThreads
	eng.Thresh = c.OCR.Thresh
	eng.TextThresh = c.OCR.TextThresh
	eng.UnclipRatio = c.OCR.UnclipRatio
	eng.MinArea = c.OCR.MinArea
	eng.KeepRepeats = c.OCR.KeepRepeats
	return eng
}

func (c *Config) modelPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Models.Dir, name)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Transport.ListenAddr == "" {
		return fmt.Errorf("transport.listen_addr is required")
	}
	if c.Transport.SendAddr == "" {
		return fmt.Errorf("transport.send_addr is required")
	}
	for _, m := range []struct{ key, val string }{
		{"models.det", c.Models.Det},
		{"models.cls", c.Models.Cls},
		{"models.rec", c.Models.Rec},
		{"models.dict", c.Models.Dict},
	} {
		if m.val == "" {
			return fmt.Errorf("%s is required", m.key)
		}
	}
	if c.Models.NumThreads <= 0 {
		return fmt.Errorf("models.num_threads must be positive, got %d", c.Models.NumThreads)
	}
	if c.OCR.Thresh <= 0 || c.OCR.Thresh >= 1 {
		return fmt.Errorf("ocr.thresh must be in (0, 1), got %v", c.OCR.Thresh)
	}
	if c.OCR.TextThresh <= 0 || c.OCR.TextThresh >= 1 {
		return fmt.Errorf("ocr.text_thresh must be in (0, 1), got %v", c.OCR.TextThresh)
	}
	if c.OCR.UnclipRatio <= 0 {
		return fmt.Errorf("ocr.unclip_ratio must be positive, got %v", c.OCR.UnclipRatio)
	}
	if c.OCR.MinArea < 0 {
		return fmt.Errorf("ocr.min_area must not be negative, got %v", c.OCR.MinArea)
	}
	if c.Pipeline.Channel == "" {
		return fmt.Errorf("pipeline.channel is required")
	}
	if c.Pipeline.TrainType < 0 || c.Pipeline.TrainType > 2 {
		return fmt.Errorf("pipeline.train_type must be 0, 1 or 2, got %d", c.Pipeline.TrainType)
	}
	if c.Pipeline.RecMode != 0 && c.Pipeline.RecMode != 1 {
		return fmt.Errorf("pipeline.rec_mode must be 0 or 1, got %d", c.Pipeline.RecMode)
	}
	if c.Pipeline.ImageRoot == "" {
		return fmt.Errorf("pipeline.image_root is required")
	}
	if c.Pipeline.ResizeWidth <= 0 || c.Pipeline.ResizeHeight <= 0 {
		return fmt.Errorf("pipeline resize canvas must be positive, got %dx%d",
			c.Pipeline.ResizeWidth, c.Pipeline.ResizeHeight)
	}
	if c.Pipeline.SaveFrames && c.Pipeline.SavePath == "" {
		return fmt.Errorf("pipeline.save_path is required when pipeline.save_frames is set")
	}
	if c.Metro.CarCount <= 0 {
		return fmt.Errorf("metro.car_count must be positive, got %d", c.Metro.CarCount)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics.enabled is set")
	}
	return nil
}

// Dump renders the configuration as YAML, for the config subcommand and for
// logging the effective settings at startup.
func (c *Config) Dump() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}
