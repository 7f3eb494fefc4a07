package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/dgwartney/agentic-app-cli/internal/config"
	"github.com/dgwartney/agentic-app-cli/internal/profile"
	"github.com/dgwartney/agentic-app-cli/sdk/agentic"
)

const version = "1.0.0"

func main() {
	app := &cli.App{
		Name:    "agentic-api-cli",
		Usage:   "Command-line interface for the Kore.ai Agentic App Platform",
		Version: version,
		Commands: []*cli.Command{
			executeCommand(),
			statusCommand(),
			chatCommand(),
			configCommand(),
			profileCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.SetFlags(0)
		log.Fatalf("Error: %v", err)
	}
}

// commonFlags are shared by every command that talks to the API.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "api-key",
			Usage: "API key (overrides " + config.EnvAPIKey + ")",
		},
		&cli.StringFlag{
			Name:  "app-id",
			Usage: "Application ID (overrides " + config.EnvAppID + ")",
		},
		&cli.StringFlag{
			Name:  "env-name",
			Usage: "Environment name (overrides " + config.EnvEnvName + ")",
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Base URL for the API (overrides " + config.EnvBaseURL + ")",
		},
		&cli.IntFlag{
			Name:  "timeout",
			Usage: "Request timeout in seconds (overrides " + config.EnvTimeout + ")",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a .env file for configuration",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "Profile name to use for configuration",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output in JSON format",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Verbose output (enables DEBUG logging and shows details)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: "WARNING",
			Usage: "Set logging level (DEBUG, INFO, WARNING, ERROR)",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Write logs to file in addition to stderr",
		},
	}
}

// newLogger builds the logger from --log-level/--log-file/--verbose.
func newLogger(c *cli.Context) *agentic.Logger {
	level := agentic.ParseLevel(c.String("log-level"))
	if c.Bool("verbose") {
		level = agentic.LevelDebug
	}

	var w io.Writer = os.Stderr
	if path := c.String("log-file"); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v\n", path, err)
		} else {
			w = io.MultiWriter(os.Stderr, f)
		}
	}

	return agentic.NewLogger(level, w)
}

// loadConfig resolves configuration for a command invocation.
func loadConfig(c *cli.Context, logger *agentic.Logger) (*config.Config, error) {
	store, err := profile.NewStore("", logger)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(store, config.Overrides{
		APIKey:         c.String("api-key"),
		AppID:          c.String("app-id"),
		EnvName:        c.String("env-name"),
		BaseURL:        c.String("base-url"),
		TimeoutSeconds: c.Int("timeout"),
		EnvFile:        c.String("env-file"),
		Profile:        c.String("profile"),
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded",
		"env_name", cfg.EnvName,
		"base_url", cfg.BaseURL,
		"profile", cfg.Profile,
	)
	return cfg, nil
}

// newAPIClient builds a validated SDK client.
func newAPIClient(c *cli.Context, logger *agentic.Logger) (*agentic.Client, *config.Config, error) {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w\nPlease set the required environment variables or use command-line options", err)
	}

	client := agentic.NewClient(cfg.BaseURL, cfg.AppID, cfg.EnvName, cfg.APIKey,
		agentic.WithTimeout(cfg.Timeout()),
		agentic.WithLogger(logger),
	)
	return client, cfg, nil
}

// newSessionID creates a unique session identifier with a command prefix.
func newSessionID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
