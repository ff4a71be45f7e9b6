package main

import (
	"os"

	"github.com/gear6io/stardog-go/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigRead  = errors.MustNewCode("code_checker.config_read_failed")
	ErrConfigParse = errors.MustNewCode("code_checker.config_parse_failed")
	ErrParseSource = errors.MustNewCode("code_checker.source_parse_failed")
)

// Config represents the ErrorCode checker configuration
type Config struct {
	ExcludePaths      []string `yaml:"exclude_paths"`
	ForbiddenPatterns []string `yaml:"forbidden_patterns"`
	// ForbiddenExempt lists path fragments where forbidden patterns are allowed
	ForbiddenExempt []string `yaml:"forbidden_exempt"`
	CheckForbidden  bool     `yaml:"check_forbidden"`
	ExitOnUnused    bool     `yaml:"exit_on_unused"`
	ExitOnForbidden bool     `yaml:"exit_on_forbidden"`
	Verbose         bool     `yaml:"verbose"`
}

// defaultConfig checks library code; commands and tools may use fmt.Errorf
func defaultConfig() *Config {
	return &Config{
		ExcludePaths:      []string{"_examples/", "vendor/", ".git/", "testdata/"},
		ForbiddenPatterns: []string{`fmt\.Errorf\(`},
		ForbiddenExempt:   []string{"cmd/", "scripts/", "_test.go"},
		CheckForbidden:    true,
		ExitOnUnused:      true,
		ExitOnForbidden:   true,
	}
}

// loadConfig overlays the file at path onto the defaults; empty path means
// defaults only
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(ErrConfigRead, err, "failed to read config file").AddContext("path", path)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(ErrConfigParse, err, "failed to parse config file").AddContext("path", path)
	}
	return config, nil
}
