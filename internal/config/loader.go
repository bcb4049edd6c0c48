package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "sidenum"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SIDENUM"
)

// Loader reads configuration from files, environment variables and bound
// flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so cobra flag
// bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from the search paths, applies environment
// overrides and defaults, and validates the result.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars carry.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile reads configuration from a specific file path. An empty path
// falls back to the search paths.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}
	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// Get returns a value from the configuration.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/sidenum")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "sidenum"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "sidenum"))
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)

	l.v.SetDefault("transport.listen_addr", defaults.Transport.ListenAddr)
	l.v.SetDefault("transport.send_addr", defaults.Transport.SendAddr)

	l.v.SetDefault("models.dir", defaults.Models.Dir)
	l.v.SetDefault("models.det", defaults.Models.Det)
	l.v.SetDefault("models.cls", defaults.Models.Cls)
	l.v.SetDefault("models.rec", defaults.Models.Rec)
	l.v.SetDefault("models.dict", defaults.Models.Dict)
	l.v.SetDefault("models.num_threads", defaults.Models.NumThreads)

	l.v.SetDefault("ocr.thresh", defaults.OCR.Thresh)
	l.v.SetDefault("ocr.text_thresh", defaults.OCR.TextThresh)
	l.v.SetDefault("ocr.unclip_ratio", defaults.OCR.UnclipRatio)
	l.v.SetDefault("ocr.min_area", defaults.OCR.MinArea)
	l.v.SetDefault("ocr.keep_repeats", defaults.OCR.KeepRepeats)

	l.v.SetDefault("pipeline.channel", defaults.Pipeline.Channel)
	l.v.SetDefault("pipeline.side", defaults.Pipeline.Side)
	l.v.SetDefault("pipeline.train_type", defaults.Pipeline.TrainType)
	l.v.SetDefault("pipeline.rec_mode", defaults.Pipeline.RecMode)
	l.v.SetDefault("pipeline.image_root", defaults.Pipeline.ImageRoot)
	l.v.SetDefault("pipeline.resize_width", defaults.Pipeline.ResizeWidth)
	l.v.SetDefault("pipeline.resize_height", defaults.Pipeline.ResizeHeight)
	l.v.SetDefault("pipeline.save_frames", defaults.Pipeline.SaveFrames)
	l.v.SetDefault("pipeline.save_path", defaults.Pipeline.SavePath)
	l.v.SetDefault("pipeline.dedup_window", defaults.Pipeline.DedupWindow)

	l.v.SetDefault("accumulator.max_empty_frames", defaults.Accumulator.MaxEmptyFrames)
	l.v.SetDefault("accumulator.min_length", defaults.Accumulator.MinLength)
	l.v.SetDefault("accumulator.valid_prefixes", defaults.Accumulator.ValidPrefixes)
	l.v.SetDefault("accumulator.whitelist", defaults.Accumulator.Whitelist)

	l.v.SetDefault("crh.prefix_len", defaults.CRH.PrefixLen)
	l.v.SetDefault("crh.min_sightings", defaults.CRH.MinSightings)
	l.v.SetDefault("crh.legacy_second_unit_correction", defaults.CRH.LegacySecondUnitCorrection)

	l.v.SetDefault("metro.car_count", defaults.Metro.CarCount)

	l.v.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	l.v.SetDefault("metrics.addr", defaults.Metrics.Addr)
}

// GenerateDefaultConfigFile writes the default configuration to a file.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	dump, err := DefaultConfig().Dump()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(dump), 0o644)
}
