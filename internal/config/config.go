// Package config resolves CLI configuration from flags, environment
// variables, profiles and built-in defaults, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgwartney/agentic-app-cli/internal/profile"
	"github.com/dgwartney/agentic-app-cli/sdk/agentic"
)

// Environment variables read by Load.
const (
	EnvAPIKey  = "KOREAI_API_KEY"
	EnvAppID   = "KOREAI_APP_ID"
	EnvEnvName = "KOREAI_ENV_NAME"
	EnvBaseURL = "KOREAI_BASE_URL"
	EnvTimeout = "KOREAI_TIMEOUT"
)

// Defaults applied when nothing else sets a value.
const (
	DefaultEnvName        = "production"
	DefaultTimeoutSeconds = 30
)

// Config holds the resolved connection settings for one invocation.
type Config struct {
	APIKey         string
	AppID          string
	EnvName        string
	BaseURL        string
	TimeoutSeconds int

	// Profile is the name of the profile the values were seeded from, if any.
	Profile string
}

// Overrides carries flag-level values. Empty or zero fields are ignored.
type Overrides struct {
	APIKey         string
	AppID          string
	EnvName        string
	BaseURL        string
	TimeoutSeconds int

	// EnvFile is an explicit .env path. When empty, ./.env is loaded if
	// it exists.
	EnvFile string

	// Profile selects a named profile. When empty the store's default
	// profile applies.
	Profile string
}

// Load resolves configuration with precedence flags > environment >
// profile > defaults.
func Load(store *profile.Store, o Overrides) (*Config, error) {
	if o.EnvFile != "" {
		if err := godotenv.Load(o.EnvFile); err != nil {
			return nil, &agentic.Error{
				Kind:    agentic.KindConfig,
				Message: fmt.Sprintf("load env file %s", o.EnvFile),
				Err:     err,
			}
		}
	} else if _, err := os.Stat(filepath.Join(".", ".env")); err == nil {
		// Best effort, matching dotenv conventions.
		_ = godotenv.Load()
	}

	cfg := &Config{
		EnvName:        DefaultEnvName,
		BaseURL:        agentic.DefaultBaseURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}

	if store != nil {
		name := o.Profile
		if name == "" {
			name = store.DefaultName()
		}
		if name != "" {
			p, err := store.Get(name)
			if err != nil {
				// An explicitly requested profile must exist; a stale
				// default pointer is ignored.
				if o.Profile != "" {
					return nil, err
				}
			} else {
				cfg.Profile = name
				applyProfile(cfg, p)
			}
		}
	}

	applyEnv(cfg)
	applyOverrides(cfg, o)

	return cfg, nil
}

func applyProfile(cfg *Config, p profile.Profile) {
	if p.APIKey != "" {
		cfg.APIKey = p.APIKey
	}
	if p.AppID != "" {
		cfg.AppID = p.AppID
	}
	if p.EnvName != "" {
		cfg.EnvName = p.EnvName
	}
	if p.BaseURL != "" {
		cfg.BaseURL = p.BaseURL
	}
	if p.Timeout > 0 {
		cfg.TimeoutSeconds = p.Timeout
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv(EnvAppID); v != "" {
		cfg.AppID = v
	}
	if v := os.Getenv(EnvEnvName); v != "" {
		cfg.EnvName = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutSeconds = n
		}
	}
}

func applyOverrides(cfg *Config, o Overrides) {
	if o.APIKey != "" {
		cfg.APIKey = o.APIKey
	}
	if o.AppID != "" {
		cfg.AppID = o.AppID
	}
	if o.EnvName != "" {
		cfg.EnvName = o.EnvName
	}
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.TimeoutSeconds > 0 {
		cfg.TimeoutSeconds = o.TimeoutSeconds
	}
}

// Validate checks that the required credentials are present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &agentic.Error{
			Kind:    agentic.KindConfig,
			Message: "API key not configured, set " + EnvAPIKey + " or use --api-key",
		}
	}
	if c.AppID == "" {
		return &agentic.Error{
			Kind:    agentic.KindConfig,
			Message: "app ID not configured, set " + EnvAppID + " or use --app-id",
		}
	}
	return nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaskedKey returns the API key shortened for display.
func (c *Config) MaskedKey() string {
	return profile.MaskKey(c.APIKey)
}

// String renders the configuration with the API key masked.
func (c *Config) String() string {
	key := "Not set"
	if c.APIKey != "" {
		key = c.MaskedKey()
	}
	appID := c.AppID
	if appID == "" {
		appID = "Not set"
	}
	return fmt.Sprintf("Config(api_key=%s, app_id=%s, env_name=%s, base_url=%s, timeout=%ds)",
		key, appID, c.EnvName, c.BaseURL, c.TimeoutSeconds)
}
