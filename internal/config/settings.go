// Package config loads application settings from a YAML file, environment
// variables and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration file lookup
const (
	ConfigName = "playlist-sync"
	ConfigType = "yaml"
	EnvPrefix  = "PLAYLIST_SYNC"
)

// Default values
const (
	DefaultFormat           = "mp3"
	DefaultQualityCeiling   = 0
	DefaultRetrievalTimeout = 10 * time.Minute
	DefaultMaxRetries       = 1
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultYTDLPPath        = "yt-dlp"
)

// Settings holds all runtime configuration.
type Settings struct {
	// DownloadDir is the base directory under which new collections are
	// created when no explicit directory is given.
	DownloadDir string `mapstructure:"download_dir"`

	// Format is the output format for newly added items.
	Format string `mapstructure:"format"`

	// QualityCeiling caps video resolution (height in pixels); 0 disables
	// the cap. Ignored for audio formats.
	QualityCeiling int `mapstructure:"quality_ceiling"`

	// RetrievalTimeout bounds a single item retrieval.
	RetrievalTimeout time.Duration `mapstructure:"retrieval_timeout"`

	// MaxRetries is how many times a transient retrieval failure is retried.
	MaxRetries int `mapstructure:"max_retries"`

	// AllowFullRemoval permits an update that deletes every local item.
	AllowFullRemoval bool `mapstructure:"allow_full_removal"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "console" or "json".
	LogFormat string `mapstructure:"log_format"`

	// YTDLPPath overrides the yt-dlp executable location.
	YTDLPPath string `mapstructure:"ytdlp_path"`
}

// Load reads settings from the given config file, or from the standard
// lookup paths when configPath is empty. A missing config file is not an
// error; defaults and environment variables still apply.
func Load(configPath string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("download_dir", defaultDownloadDir())
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("quality_ceiling", DefaultQualityCeiling)
	v.SetDefault("retrieval_timeout", DefaultRetrievalTimeout)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("allow_full_removal", false)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("ytdlp_path", DefaultYTDLPPath)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType(ConfigType)
		v.AddConfigPath(".")
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, ConfigName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Settings) validate() error {
	if s.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", s.MaxRetries)
	}
	if s.QualityCeiling < 0 {
		return fmt.Errorf("quality_ceiling must not be negative, got %d", s.QualityCeiling)
	}
	if s.RetrievalTimeout <= 0 {
		return fmt.Errorf("retrieval_timeout must be positive, got %s", s.RetrievalTimeout)
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", s.LogLevel)
	}
	switch s.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q", s.LogFormat)
	}
	return nil
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Music")
}
