// Package config loads server settings from an optional TOML file with
// STEEZE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Settings are the process-level knobs of a steeze server.
type Settings struct {
	Service       string        `mapstructure:"service"`
	ListenAddress string        `mapstructure:"listen_address"`
	Manifest      string        `mapstructure:"manifest"`
	BodyLimit     int64         `mapstructure:"body_limit"`
	HookTimeout   time.Duration `mapstructure:"hook_timeout"`
	LogDir        string        `mapstructure:"log_dir"`
	LogLevel      string        `mapstructure:"log_level"`
	TLSCert       string        `mapstructure:"tls_cert"`
	TLSKey        string        `mapstructure:"tls_key"`
	// MetricsSkipPaths are left out of request metrics next to /metrics.
	MetricsSkipPaths []string `mapstructure:"metrics_skip_paths"`
	// LogBodyPaths are the paths whose request bodies the access log records.
	LogBodyPaths []string `mapstructure:"log_body_paths"`
}

const envPrefix = "STEEZE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("service", "app")
	v.SetDefault("listen_address", ":4000")
	v.SetDefault("manifest", "manifest.toml")
	v.SetDefault("body_limit", 1<<20)
	v.SetDefault("hook_timeout", "30s")
	v.SetDefault("log_dir", "log")
	v.SetDefault("log_level", "info")
	v.SetDefault("tls_cert", "")
	v.SetDefault("tls_key", "")
	v.SetDefault("metrics_skip_paths", []string{})
	v.SetDefault("log_body_paths", []string{})
}

// Load reads path when it exists; a missing file leaves defaults and env in charge.
func Load(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("stat settings %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings the server cannot start with.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.ListenAddress) == "" {
		return errors.New("listen_address is required")
	}
	if s.BodyLimit <= 0 {
		return errors.New("body_limit must be > 0")
	}
	if s.HookTimeout < 0 {
		return errors.New("hook_timeout must be >= 0")
	}
	if (s.TLSCert == "") != (s.TLSKey == "") {
		return errors.New("tls_cert and tls_key must be set together")
	}
	return nil
}
