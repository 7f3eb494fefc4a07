// Package profile manages named connection profiles stored under ~/.kore.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgwartney/agentic-app-cli/sdk/agentic"
)

const (
	profilesFileName = "profiles"
	configFileName   = "config"

	dirMode  = 0o700
	fileMode = 0o600
)

// Profile is one stored configuration set.
type Profile struct {
	APIKey  string `json:"api_key"`
	AppID   string `json:"app_id"`
	EnvName string `json:"env_name"`
	BaseURL string `json:"base_url"`
	Timeout int    `json:"timeout"`
}

// Store reads and writes profiles under a single directory, by default
// ~/.kore. Files are kept owner-only and written atomically.
type Store struct {
	dir    string
	logger *agentic.Logger
}

// NewStore creates a store rooted at dir. An empty dir selects ~/.kore.
func NewStore(dir string, logger *agentic.Logger) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, configErr("resolve home directory", err)
		}
		dir = filepath.Join(home, ".kore")
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) profilesPath() string {
	return filepath.Join(s.dir, profilesFileName)
}

func (s *Store) configPath() string {
	return filepath.Join(s.dir, configFileName)
}

func (s *Store) ensureDir() error {
	info, err := os.Stat(s.dir)
	if os.IsNotExist(err) {
		s.logger.Debug("creating profiles directory", "dir", s.dir)
		if err := os.MkdirAll(s.dir, dirMode); err != nil {
			return configErr("create profiles directory", err)
		}
		return nil
	}
	if err != nil {
		return configErr("stat profiles directory", err)
	}
	if info.Mode().Perm() != dirMode {
		if err := os.Chmod(s.dir, dirMode); err != nil {
			return configErr("restrict profiles directory", err)
		}
	}
	return nil
}

// loadAll reads the profiles file. A missing file is an empty set.
func (s *Store) loadAll() (map[string]Profile, error) {
	data, err := os.ReadFile(s.profilesPath())
	if os.IsNotExist(err) {
		return map[string]Profile{}, nil
	}
	if err != nil {
		return nil, configErr("read profiles file", err)
	}

	profiles := map[string]Profile{}
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, &agentic.Error{
			Kind: agentic.KindConfig,
			Message: fmt.Sprintf(
				"corrupted profiles file at %s, consider backing up and removing it", s.profilesPath()),
			Err: err,
		}
	}
	return profiles, nil
}

// saveAll writes the profiles file atomically with owner-only permissions.
func (s *Store) saveAll(profiles map[string]Profile) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return configErr("encode profiles", err)
	}

	tmp := s.profilesPath() + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return configErr("write profiles file", err)
	}
	if err := os.Rename(tmp, s.profilesPath()); err != nil {
		os.Remove(tmp)
		return configErr("write profiles file", err)
	}

	s.logger.Info("saved profiles", "count", len(profiles), "path", s.profilesPath())
	return nil
}

// Add creates or replaces a profile.
func (s *Store) Add(name string, p Profile) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &agentic.Error{Kind: agentic.KindConfig, Message: "profile name cannot be empty"}
	}

	profiles, err := s.loadAll()
	if err != nil {
		return err
	}
	if _, exists := profiles[name]; exists {
		s.logger.Warn("overwriting existing profile", "name", name)
	}
	profiles[name] = p
	return s.saveAll(profiles)
}

// Get returns the named profile.
func (s *Store) Get(name string) (Profile, error) {
	profiles, err := s.loadAll()
	if err != nil {
		return Profile{}, err
	}

	p, ok := profiles[name]
	if !ok {
		names := make([]string, 0, len(profiles))
		for n := range profiles {
			names = append(names, n)
		}
		sort.Strings(names)
		available := "none"
		if len(names) > 0 {
			available = strings.Join(names, ", ")
		}
		return Profile{}, &agentic.Error{
			Kind:    agentic.KindConfig,
			Message: fmt.Sprintf("profile %q not found, available profiles: %s", name, available),
		}
	}
	return p, nil
}

// Exists reports whether the named profile is stored.
func (s *Store) Exists(name string) bool {
	profiles, err := s.loadAll()
	if err != nil {
		return false
	}
	_, ok := profiles[name]
	return ok
}

// List returns all profile names sorted alphabetically.
func (s *Store) List() ([]string, error) {
	profiles, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a profile. Deleting the default profile clears the
// default pointer.
func (s *Store) Delete(name string) error {
	profiles, err := s.loadAll()
	if err != nil {
		return err
	}
	if _, ok := profiles[name]; !ok {
		return &agentic.Error{
			Kind:    agentic.KindConfig,
			Message: fmt.Sprintf("profile %q not found", name),
		}
	}

	delete(profiles, name)
	if err := s.saveAll(profiles); err != nil {
		return err
	}

	if s.DefaultName() == name {
		s.logger.Warn("deleted default profile, clearing default", "name", name)
		if err := s.clearDefault(); err != nil {
			return err
		}
	}
	return nil
}

// SetDefault records name as the default profile. The profile must exist.
func (s *Store) SetDefault(name string) error {
	if _, err := s.Get(name); err != nil {
		return err
	}
	if err := s.ensureDir(); err != nil {
		return err
	}

	cfg := s.readConfig()
	cfg["default_profile"] = name
	return s.writeConfig(cfg)
}

// DefaultName returns the default profile name, or "" when unset.
func (s *Store) DefaultName() string {
	cfg := s.readConfig()
	name, _ := cfg["default_profile"].(string)
	return name
}

func (s *Store) clearDefault() error {
	cfg := s.readConfig()
	if _, ok := cfg["default_profile"]; !ok {
		return nil
	}
	delete(cfg, "default_profile")
	return s.writeConfig(cfg)
}

// readConfig tolerates a missing or corrupted config file.
func (s *Store) readConfig() map[string]any {
	cfg := map[string]any{}
	data, err := os.ReadFile(s.configPath())
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.logger.Warn("corrupted config file, starting fresh", "path", s.configPath())
		return map[string]any{}
	}
	return cfg
}

func (s *Store) writeConfig(cfg map[string]any) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return configErr("encode config", err)
	}
	if err := os.WriteFile(s.configPath(), data, fileMode); err != nil {
		return configErr("write config file", err)
	}
	return nil
}

// MaskKey shortens an API key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:8] + "****"
}

func configErr(msg string, err error) *agentic.Error {
	return &agentic.Error{Kind: agentic.KindConfig, Message: msg, Err: err}
}
