package config

import (
	"fmt"
	"os"

	"github.com/gear6io/stardog-go/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the stand-in server configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Listen  ListenConfig  `yaml:"listen"`
	Fixture FixtureConfig `yaml:"fixture"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level    string `yaml:"level"`
	Console  bool   `yaml:"console"`   // Whether to log to console
	FilePath string `yaml:"file_path"` // Path to log file
	MaxSize  int    `yaml:"max_size"`  // Rotate when the file exceeds this many MB
}

// ListenConfig is where the HTTP API is served
type ListenConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"` // 0 picks a free port
}

// FixtureConfig points at a YAML fixture; empty uses the bundled seed
type FixtureConfig struct {
	Path string `yaml:"path"`
}

// LoadDefaultConfig returns a default configuration
func LoadDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Console: true,
			MaxSize: 100,
		},
		Listen: ListenConfig{
			Address: DefaultServerAddress,
			Port:    DefaultHTTPPort,
		},
	}
}

// LoadConfig loads configuration from a file on top of the defaults
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(ErrConfigFileReadFailed, err, "failed to read config file").AddContext("path", filename)
	}

	config := LoadDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(ErrConfigFileParseFailed, err, "failed to parse config file").AddContext("path", filename)
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(ErrConfigValidationFailed, err, "configuration validation failed")
	}

	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(ErrConfigFileMarshalFailed, err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(ErrConfigFileWriteFailed, err, "failed to write config file")
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Listen.Address == "" {
		return errors.New(ErrAddressRequired, "listen address is required")
	}
	if c.Listen.Port < 0 || c.Listen.Port > 65535 {
		return errors.Newf(ErrPortInvalid, "invalid listen port: %d", c.Listen.Port)
	}
	return nil
}

// ListenAddr returns host:port for the HTTP listener
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Listen.Address, c.Listen.Port)
}
