package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dgwartney/agentic-app-cli/sdk/agentic"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check the status of an asynchronous run",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "run-id",
				Aliases:  []string{"r"},
				Usage:    "Run ID to check status for",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Wait for the run to complete",
			},
			&cli.IntFlag{
				Name:  "poll-interval",
				Value: 2,
				Usage: "Polling interval in seconds when waiting",
			},
			&cli.IntFlag{
				Name:  "max-attempts",
				Value: 30,
				Usage: "Maximum polling attempts when waiting",
			},
		}, commonFlags()...),
		Action: runStatus,
	}
}

func runStatus(c *cli.Context) error {
	logger := newLogger(c)

	client, _, err := newAPIClient(c, logger)
	if err != nil {
		return err
	}

	runID := c.String("run-id")
	logger.Info("checking run status", "run_id", runID)
	if c.Bool("verbose") {
		fmt.Fprintf(c.App.Writer, "Checking status for run: %s\n", runID)
	}

	var result *agentic.StatusResult
	if c.Bool("wait") {
		result, err = client.PollRunStatus(c.Context, runID,
			c.Int("max-attempts"),
			time.Duration(c.Int("poll-interval"))*time.Second,
		)
		if err != nil {
			return err
		}
		if c.Bool("verbose") {
			fmt.Fprintln(c.App.Writer, "Run completed after polling")
		}
	} else {
		result, err = client.GetRunStatus(c.Context, runID, nil)
		if err != nil {
			return err
		}
	}

	logger.Info("status check completed")
	return printStatusResult(c.App.Writer, result, c.Bool("json"), c.Bool("verbose"))
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Display current configuration (with sensitive data masked)",
		Flags:  commonFlags(),
		Action: runConfig,
	}
}

func runConfig(c *cli.Context) error {
	logger := newLogger(c)

	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	return printConfig(c.App.Writer, cfg, c.Bool("json"))
}
