package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dgwartney/agentic-app-cli/internal/config"
	"github.com/dgwartney/agentic-app-cli/internal/profile"
	"github.com/dgwartney/agentic-app-cli/sdk/agentic"
)

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage named configuration profiles",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add or update a profile (prompts for missing values)",
				ArgsUsage: "[name]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-key", Usage: "API key for the profile"},
					&cli.StringFlag{Name: "app-id", Usage: "Application ID for the profile"},
					&cli.StringFlag{Name: "env-name", Usage: "Environment name (defaults to the profile name)"},
					&cli.StringFlag{Name: "base-url", Usage: "Base URL for the API"},
					&cli.IntFlag{Name: "timeout", Usage: "Request timeout in seconds"},
				},
				Action: runProfileAdd,
			},
			{
				Name:  "list",
				Usage: "List configured profiles",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "show-keys",
						Usage: "Show full API keys instead of masked values",
					},
				},
				Action: runProfileList,
			},
			{
				Name:      "delete",
				Usage:     "Delete a profile",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Delete without confirmation",
					},
				},
				Action: runProfileDelete,
			},
			{
				Name:      "set-default",
				Usage:     "Set the default profile",
				ArgsUsage: "<name>",
				Action:    runProfileSetDefault,
			},
		},
	}
}

func newProfileStore(c *cli.Context) (*profile.Store, error) {
	return profile.NewStore("", newLogger(c))
}

func runProfileAdd(c *cli.Context) error {
	store, err := newProfileStore(c)
	if err != nil {
		return err
	}

	r := bufio.NewReader(stdinReader(c))
	w := c.App.Writer

	name := c.Args().First()
	if name == "" {
		name, err = prompt(r, w, "Profile name", "")
		if err != nil {
			return err
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("profile name is required")
	}

	if store.Exists(name) && !confirm(r, w, fmt.Sprintf("Profile %q already exists. Overwrite?", name)) {
		fmt.Fprintln(w, "Aborted")
		return nil
	}

	p := profile.Profile{
		APIKey:  c.String("api-key"),
		AppID:   c.String("app-id"),
		EnvName: c.String("env-name"),
		BaseURL: c.String("base-url"),
		Timeout: c.Int("timeout"),
	}

	if p.APIKey == "" {
		if p.APIKey, err = prompt(r, w, "API key", ""); err != nil {
			return err
		}
	}
	if p.AppID == "" {
		if p.AppID, err = prompt(r, w, "App ID", ""); err != nil {
			return err
		}
	}
	if p.EnvName == "" {
		if p.EnvName, err = prompt(r, w, "Environment name", name); err != nil {
			return err
		}
	}
	if p.BaseURL == "" {
		if p.BaseURL, err = prompt(r, w, "Base URL", agentic.DefaultBaseURL); err != nil {
			return err
		}
	}
	if p.Timeout <= 0 {
		raw, err := prompt(r, w, "Timeout in seconds", strconv.Itoa(config.DefaultTimeoutSeconds))
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid timeout %q", raw)
		}
		p.Timeout = n
	}

	if p.APIKey == "" || p.AppID == "" {
		return fmt.Errorf("API key and app ID are required")
	}

	if err := store.Add(name, p); err != nil {
		return err
	}
	fmt.Fprintf(w, "Profile %q saved\n", name)

	if store.DefaultName() == "" {
		if err := store.SetDefault(name); err != nil {
			return err
		}
		fmt.Fprintf(w, "Profile %q set as default\n", name)
	}
	return nil
}

func runProfileList(c *cli.Context) error {
	store, err := newProfileStore(c)
	if err != nil {
		return err
	}
	w := c.App.Writer

	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(w, "No profiles configured. Use 'profile add' to create one.")
		return nil
	}

	defaultName := store.DefaultName()
	fmt.Fprintf(w, "%s\n", labelStyle.Render(fmt.Sprintf("Profiles (%d):", len(names))))
	for _, name := range names {
		p, err := store.Get(name)
		if err != nil {
			return err
		}
		marker := " "
		if name == defaultName {
			marker = "*"
		}
		key := profile.MaskKey(p.APIKey)
		if c.Bool("show-keys") {
			key = p.APIKey
		}
		fmt.Fprintf(w, "%s %s\n", marker, name)
		fmt.Fprintf(w, "    api_key:  %s\n", key)
		fmt.Fprintf(w, "    app_id:   %s\n", p.AppID)
		fmt.Fprintf(w, "    env_name: %s\n", p.EnvName)
		fmt.Fprintf(w, "    base_url: %s\n", p.BaseURL)
		fmt.Fprintf(w, "    timeout:  %ds\n", p.Timeout)
	}
	if defaultName != "" {
		fmt.Fprintf(w, "\n* default profile\n")
	}
	return nil
}

func runProfileDelete(c *cli.Context) error {
	store, err := newProfileStore(c)
	if err != nil {
		return err
	}
	w := c.App.Writer

	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("profile name is required")
	}
	if !store.Exists(name) {
		return fmt.Errorf("profile %q not found", name)
	}

	if !c.Bool("force") {
		r := bufio.NewReader(stdinReader(c))
		if !confirm(r, w, fmt.Sprintf("Delete profile %q?", name)) {
			fmt.Fprintln(w, "Aborted")
			return nil
		}
	}

	wasDefault := store.DefaultName() == name
	if err := store.Delete(name); err != nil {
		return err
	}
	fmt.Fprintf(w, "Profile %q deleted\n", name)
	if wasDefault {
		fmt.Fprintln(w, "Note: the deleted profile was the default. Set a new one with 'profile set-default'.")
	}
	return nil
}

func runProfileSetDefault(c *cli.Context) error {
	store, err := newProfileStore(c)
	if err != nil {
		return err
	}

	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("profile name is required")
	}
	if err := store.SetDefault(name); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Profile %q set as default\n", name)
	return nil
}

// stdinReader returns the app's reader so tests can inject input.
func stdinReader(c *cli.Context) io.Reader {
	if c.App.Reader != nil {
		return c.App.Reader
	}
	return strings.NewReader("")
}

func prompt(r *bufio.Reader, w io.Writer, label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(w, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(w, "%s: ", label)
	}
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return def, nil
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

func confirm(r *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	line, _ := r.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}
