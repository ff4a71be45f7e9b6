package config

import (
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gear6io/stardog-go/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the client configuration file searched for by Load
	FileName = "stardog-client.yml"

	EnvEndpoint = "STARDOG_ENDPOINT"
	EnvUser     = "STARDOG_USER"
	EnvPassword = "STARDOG_PASSWORD"
)

// Config represents the client configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Query   QueryConfig   `yaml:"query"`
	History HistoryConfig `yaml:"history"`
	Logging LogConfig     `yaml:"logging"`
}

// ServerConfig holds the triplestore endpoint
type ServerConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AuthConfig holds basic-auth credentials
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// QueryConfig holds connection-wide query defaults
type QueryConfig struct {
	Database  string `yaml:"database"`
	Reasoning bool   `yaml:"reasoning"`
	Limit     int    `yaml:"limit"` // 0 sends no limit
}

// HistoryConfig controls the local query history log
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level    string `yaml:"level"`
	Console  bool   `yaml:"console"`
	FilePath string `yaml:"file_path"`
}

// DefaultConfig returns default client configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Endpoint: "http://localhost:5820/",
			Timeout:  60 * time.Second,
		},
		Auth: AuthConfig{
			Username: "admin",
			Password: "admin",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
		Logging: LogConfig{
			Level:   "warn",
			Console: true,
		},
	}
}

// Load reads the first configuration file found, or the defaults when there
// is none, and then applies environment overrides
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if path := findConfigFile(); path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(ErrConfigFileReadFailed, err, "failed to read config file").AddContext("path", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(ErrConfigFileParseFailed, err, "failed to parse config file").AddContext("path", path)
	}

	return cfg, nil
}

// ApplyEnv overrides endpoint and credentials from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Server.Endpoint = v
	}
	if v := os.Getenv(EnvUser); v != "" {
		c.Auth.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Auth.Password = v
	}
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(ErrConfigFileMarshalFailed, err, "failed to marshal config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(ErrConfigFileWriteFailed, err, "failed to create config directory").AddContext("path", path)
	}

	// credentials live in this file
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(ErrConfigFileWriteFailed, err, "failed to write config file").AddContext("path", path)
	}

	return nil
}

// findConfigFile searches the working directory, ~/.stardog and /etc/stardog
func findConfigFile() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".stardog", FileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	etcPath := filepath.Join("/etc/stardog", FileName)
	if _, err := os.Stat(etcPath); err == nil {
		return etcPath
	}

	return ""
}

func defaultHistoryPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".stardog", "history.db")
	}
	return filepath.Join(homeDir, ".stardog", "history.db")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Endpoint == "" {
		return errors.New(ErrEndpointEmpty, "server endpoint cannot be empty")
	}

	u, err := url.Parse(c.Server.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		e := errors.New(ErrEndpointInvalid, "server endpoint must be an absolute http(s) URL").
			AddContext("endpoint", c.Server.Endpoint)
		if err != nil {
			e.WithCause(err)
		}
		return e
	}

	if c.Server.Timeout < 0 {
		return errors.Newf(ErrTimeoutInvalid, "invalid server timeout: %s", c.Server.Timeout)
	}

	if c.Query.Limit < 0 {
		return errors.Newf(ErrLimitInvalid, "invalid default limit: %d", c.Query.Limit)
	}

	return nil
}
