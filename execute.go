package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dgwartney/agentic-app-cli/sdk/agentic"
)

func executeCommand() *cli.Command {
	return &cli.Command{
		Name:  "execute",
		Usage: "Execute an agentic run",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "query",
				Aliases:  []string{"q"},
				Usage:    "Query or input text for the agent",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "session-id",
				Aliases: []string{"s"},
				Usage:   "Session identifier (auto-generated if not provided)",
			},
			&cli.StringFlag{
				Name:    "user-id",
				Aliases: []string{"u"},
				Usage:   "User identifier (optional, defaults to session-id)",
			},
			&cli.StringFlag{
				Name:  "stream",
				Usage: "Enable streaming with the given mode (tokens, messages or custom)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug mode",
			},
			&cli.StringFlag{
				Name:  "debug-mode",
				Usage: "Debug mode level (all, function-call or thoughts; requires --debug)",
			},
			&cli.StringFlag{
				Name:  "metadata",
				Usage: "JSON string of metadata key-value pairs",
			},
		}, commonFlags()...),
		Action: runExecute,
	}
}

func runExecute(c *cli.Context) error {
	logger := newLogger(c)

	metadata, err := parseMetadata(c.String("metadata"))
	if err != nil {
		return err
	}
	if c.String("debug-mode") != "" && !c.Bool("debug") {
		return fmt.Errorf("--debug-mode requires the --debug flag to be set")
	}

	client, _, err := newAPIClient(c, logger)
	if err != nil {
		return err
	}

	sessionID := c.String("session-id")
	if sessionID == "" {
		sessionID = newSessionID("cli")
	}

	logger.Info("executing run", "session", sessionID)
	if c.Bool("verbose") {
		fmt.Fprintf(c.App.Writer, "Executing run with session: %s\n", sessionID)
		if userID := c.String("user-id"); userID != "" {
			fmt.Fprintf(c.App.Writer, "User ID: %s\n", userID)
		}
		fmt.Fprintf(c.App.Writer, "Query: %s\n", c.String("query"))
	}

	result, err := client.ExecuteRun(c.Context, agentic.ExecuteOptions{
		Query:            c.String("query"),
		SessionReference: sessionID,
		UserReference:    c.String("user-id"),
		StreamEnabled:    c.String("stream") != "",
		StreamMode:       c.String("stream"),
		DebugEnabled:     c.Bool("debug"),
		DebugMode:        c.String("debug-mode"),
		Metadata:         metadata,
	})
	if err != nil {
		return err
	}

	logger.Info("run execution completed")
	return printRunResult(c.App.Writer, result, c.Bool("json"), c.Bool("verbose"))
}

func parseMetadata(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, fmt.Errorf("invalid JSON in --metadata: %w", err)
	}
	return metadata, nil
}
