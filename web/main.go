package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/df07/go-pathtracer/web/server"
)

const envPrefix = "PATHTRACER"

func main() {
	if err := newRootCommand(startServer).Execute(); err != nil {
		os.Exit(1)
	}
}

func startServer(config server.Config) error {
	webServer := server.NewServer(config)
	config.Logger.Infof("Visit http://localhost:%d to start rendering", config.Port)
	return webServer.Start()
}

// newRootCommand builds the server command; serve is called with the resolved config
func newRootCommand(serve func(server.Config) error) *cobra.Command {
	vip := viper.New()
	logger := logrus.New()

	cmd := &cobra.Command{
		Use:          "pathtracer-web",
		Short:        "HTTP render service for the path tracer",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd, vip, logger)
			if err != nil {
				return err
			}
			return serve(config)
		},
	}

	addServerFlags(cmd.Flags())
	return cmd
}

// addServerFlags registers the server flags; each can also come from PATHTRACER_* or the config file
func addServerFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Config file (YAML) with default flag values")
	flags.Int("port", 8080, "Port to serve on")
	flags.String("scene-dir", "scenes", "Directory of YAML scene files")
	flags.Int("workers", 0, "Render workers per request (0 = auto-detect)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.Bool("log-json", false, "Log as JSON")
}

// loadConfig merges flags, PATHTRACER_* environment variables and the config file
func loadConfig(cmd *cobra.Command, vip *viper.Viper, logger *logrus.Logger) (server.Config, error) {
	if err := vip.BindPFlags(cmd.Flags()); err != nil {
		return server.Config{}, fmt.Errorf("failed to bind flags: %w", err)
	}
	vip.SetEnvPrefix(envPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	if path := vip.GetString("config"); path != "" {
		vip.SetConfigFile(path)
		if err := vip.ReadInConfig(); err != nil {
			return server.Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	level, err := logrus.ParseLevel(vip.GetString("log-level"))
	if err != nil {
		return server.Config{}, err
	}
	logger.SetLevel(level)
	logger.SetOutput(cmd.ErrOrStderr())
	if vip.GetBool("log-json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	config := server.Config{
		Port:     vip.GetInt("port"),
		SceneDir: vip.GetString("scene-dir"),
		Workers:  vip.GetInt("workers"),
		Logger:   logger,
	}
	if config.Port < 1 || config.Port > 65535 {
		return server.Config{}, fmt.Errorf("port must be between 1 and 65535, got %d", config.Port)
	}
	if config.Workers < 0 {
		return server.Config{}, fmt.Errorf("workers must not be negative, got %d", config.Workers)
	}
	return config, nil
}
