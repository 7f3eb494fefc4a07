package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/gjson"

	"github.com/dgwartney/agentic-app-cli/internal/config"
	"github.com/dgwartney/agentic-app-cli/sdk/agentic"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	responseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// printRunResult renders an execute result for humans or as JSON.
func printRunResult(w io.Writer, result *agentic.RunResult, asJSON, verbose bool) error {
	if asJSON {
		if len(result.Raw) > 0 {
			return printIndentedJSON(w, result.Raw)
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	for _, item := range result.Output {
		if item.Type == "text" {
			fmt.Fprintln(w, responseStyle.Render(item.Content))
		}
	}

	if len(result.Output) == 0 && result.SessionInfo != nil {
		if result.SessionInfo.RunID != "" {
			fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Run ID:"), result.SessionInfo.RunID)
		}
		if result.SessionInfo.Status != "" {
			fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Status:"), result.SessionInfo.Status)
		}
	}

	if len(result.Raw) > 0 && gjson.GetBytes(result.Raw, "debug").Exists() {
		if verbose {
			fmt.Fprintf(w, "\n%s\n%s\n",
				labelStyle.Render("Debug Information:"),
				gjson.GetBytes(result.Raw, "debug").Raw)
		} else {
			fmt.Fprintln(w, noticeStyle.Render("\n[Debug] Debug information available (use --verbose to see details)"))
		}
	}

	if verbose && len(result.Raw) > 0 {
		fmt.Fprintf(w, "\n%s\n", labelStyle.Render("Full Response:"))
		if err := printIndentedJSON(w, result.Raw); err != nil {
			return err
		}
	}
	return nil
}

// printStatusResult renders a status lookup.
func printStatusResult(w io.Writer, result *agentic.StatusResult, asJSON, verbose bool) error {
	if asJSON {
		return printIndentedJSON(w, result.Raw)
	}

	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Run ID:"), result.RunID)
	if result.Status != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Status:"), result.Status)
	}
	if response := result.Response(); response != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", labelStyle.Render("Response:"), responseStyle.Render(response))
	}
	if items, err := result.RunOutput(); err == nil {
		for _, item := range items {
			if item.Type == "text" {
				fmt.Fprintln(w, responseStyle.Render(item.Content))
			}
		}
	}
	if msg := result.ErrorMessage(); msg != "" {
		fmt.Fprintf(w, "\n%s %s\n", errorStyle.Render("Error:"), msg)
	}

	if verbose {
		fmt.Fprintf(w, "\n%s\n", labelStyle.Render("Full Response:"))
		return printIndentedJSON(w, result.Raw)
	}
	return nil
}

// printConfig renders the resolved configuration with the key masked.
func printConfig(w io.Writer, cfg *config.Config, asJSON bool) error {
	if asJSON {
		masked := map[string]any{
			"api_key":  cfg.MaskedKey(),
			"app_id":   cfg.AppID,
			"env_name": cfg.EnvName,
			"base_url": cfg.BaseURL,
			"timeout":  cfg.TimeoutSeconds,
		}
		if cfg.APIKey == "" {
			masked["api_key"] = "Not set"
		}
		if cfg.AppID == "" {
			masked["app_id"] = "Not set"
		}
		data, err := json.MarshalIndent(masked, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	fmt.Fprintln(w, labelStyle.Render("Current Configuration:"))
	fmt.Fprintf(w, "  %s\n", cfg)
	return nil
}

func printIndentedJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		// Not JSON after all, print as-is.
		fmt.Fprintln(w, string(raw))
		return nil
	}
	fmt.Fprintln(w, buf.String())
	return nil
}
