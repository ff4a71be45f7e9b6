package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gear6io/stardog-go/server"
	"github.com/gear6io/stardog-go/server/config"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configFile string
		address    string
		port       int
		fixture    string
	)

	rootCmd := &cobra.Command{
		Use:   "stardog-stub",
		Short: "Scripted Stardog-compatible server for local development and tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			usingDefaults := err != nil
			if usingDefaults {
				cfg = config.LoadDefaultConfig()
			}

			if cmd.Flags().Changed("address") {
				cfg.Listen.Address = address
			}
			if cmd.Flags().Changed("port") {
				cfg.Listen.Port = port
			}
			if cmd.Flags().Changed("fixture") {
				cfg.Fixture.Path = fixture
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, logManager, err := config.SetupLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer logManager.Close()

			if usingDefaults {
				logger.Info().Str("config", configFile).Msg("Using default configuration")
			}

			srv, err := server.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := srv.Start(ctx); err != nil {
				return err
			}
			logger.Info().Str("endpoint", srv.URL()).Msg("Serving")

			<-ctx.Done()
			if err := srv.Shutdown(); err != nil {
				logger.Error().Err(err).Msg("Error during shutdown")
			}
			logger.Info().Msg("Server stopped gracefully")
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, "config file")
	rootCmd.Flags().StringVar(&address, "address", config.DefaultServerAddress, "listen address")
	rootCmd.Flags().IntVarP(&port, "port", "p", config.DefaultHTTPPort, "listen port")
	rootCmd.Flags().StringVar(&fixture, "fixture", "", "YAML fixture (defaults to the bundled dataset)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
