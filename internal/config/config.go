// Package config loads labelflow settings from defaults, an optional YAML
// file, LABELFLOW_* environment variables and command-line overrides, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LABELFLOW_"

// Config is the complete application configuration.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Upload UploadConfig `koanf:"upload"`
	Store  StoreConfig  `koanf:"store"`
	Server ServerConfig `koanf:"server"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error disabled"`
	JSON   bool   `koanf:"json"`
	Source bool   `koanf:"source"`
}

// UploadConfig holds the annotation platform connection.
type UploadConfig struct {
	URL        string        `koanf:"url"         validate:"omitempty,url"`
	APIKey     string        `koanf:"api_key"`
	Workspace  string        `koanf:"workspace"`
	BatchSize  int           `koanf:"batch_size"  validate:"min=1,max=1000"`
	Timeout    time.Duration `koanf:"timeout"     validate:"min=0"`
	MaxRetries int           `koanf:"max_retries" validate:"min=0,max=10"`
}

// StoreConfig locates the snapshot database.
type StoreConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// ServerConfig configures the HTTP command API.
type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Upload: UploadConfig{
			URL:        "http://localhost:6900",
			Workspace:  "admin",
			BatchSize:  100,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Store:  StoreConfig{Path: ".labelflow/state.db"},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

// Load builds the configuration. path may be empty; a named file that does
// not exist is an error. overrides are koanf paths such as "log.level" and
// win over every other source.
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		data, err := readYAML(path)
		if err != nil {
			return nil, err
		}

		if err := k.Load(rawMap(data), nil); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	var cfg Config

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration cannot be nil")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	return nil
}

func readYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return out, nil
}

// transformEnv maps LABELFLOW_UPLOAD_API_KEY to upload.api_key: the first
// segment names the section, the rest the field.
func transformEnv(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' })
	switch len(parts) {
	case 0:
		return "", value
	case 1:
		return parts[0], value
	}

	return parts[0] + "." + strings.Join(parts[1:], "_"), value
}

// rawMap is a koanf.Provider adapter for already decoded data.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, errors.New("ReadBytes not implemented")
}
