package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var (
		dir        string
		configPath string
	)

	cmd := &cobra.Command{
		Use:          "errorcode-checker",
		Short:        "Report unused, malformed or duplicate error codes and forbidden error patterns",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: using default configuration: %v\n", err)
				config = defaultConfig()
			}

			failed, err := run(dir, config)
			if err != nil {
				return err
			}
			if failed {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to check")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")

	if err := cmd.Execute(); err != nil {
		os.Exit(2)
	}
}

// run prints the report and returns true when the configuration says the
// findings should fail the build
func run(dir string, config *Config) (bool, error) {
	checker := NewErrorCodeChecker(config.Verbose)
	if err := checker.CheckDirectory(dir, config.ExcludePaths); err != nil {
		return false, err
	}

	failed := false

	unused := checker.Unused()
	for _, info := range unused {
		fmt.Printf("unused: %s (%q) at %s:%d\n", info.Name, info.Code, info.File, info.Line)
	}
	if len(unused) > 0 && config.ExitOnUnused {
		failed = true
	}

	for _, v := range checker.Violations() {
		fmt.Printf("invalid: %s:%d: %s\n", v.File, v.Line, v.Message)
		failed = true
	}

	if config.CheckForbidden {
		found, err := checker.CheckForbiddenPatterns(dir, config.ExcludePaths, config.ForbiddenPatterns, config.ForbiddenExempt)
		if err != nil {
			return false, err
		}
		for _, v := range found {
			fmt.Printf("forbidden: %s:%d: %s\n", v.File, v.Line, v.Message)
		}
		if len(found) > 0 && config.ExitOnForbidden {
			failed = true
		}
	}

	fmt.Printf("%d error codes checked, %d unused\n", len(checker.errorCodes), len(unused))
	return failed, nil
}
