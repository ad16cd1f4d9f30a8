package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/keel-hq/keelctl/internal/logging"
	"github.com/keel-hq/keelctl/internal/theme"
	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".keelctl"
	configFileName = "config.yaml"

	// PathEnv overrides the config file location.
	PathEnv = "KEELCTL_CONFIG"
)

var allowedFormats = []string{"table", "json", "yaml"}

type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Session   SessionConfig   `yaml:"session" json:"session"`
	TUI       TUIConfig       `yaml:"tui" json:"tui"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Approvals ApprovalsConfig `yaml:"approvals" json:"approvals"`
}

type ServerConfig struct {
	URL                string `yaml:"url" json:"url"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify" json:"insecureSkipVerify"`
}

type SessionConfig struct {
	TTL         string `yaml:"ttl" json:"ttl"`
	UseKeychain bool   `yaml:"useKeychain" json:"useKeychain"`
}

type TUIConfig struct {
	Theme           string `yaml:"theme" json:"theme"`
	RefreshInterval string `yaml:"refreshInterval" json:"refreshInterval"`
	Colors          bool   `yaml:"colors" json:"colors"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Path       string `yaml:"path,omitempty" json:"path,omitempty"`
	MaxSizeMB  int    `yaml:"maxSizeMB" json:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups" json:"maxBackups"`
}

type OutputConfig struct {
	Format string `yaml:"format" json:"format"`
}

type ApprovalsConfig struct {
	Voter string `yaml:"voter,omitempty" json:"voter,omitempty"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "http://localhost:9300/v1",
		},
		Session: SessionConfig{
			TTL: "168h",
		},
		TUI: TUIConfig{
			Theme:           theme.Default,
			RefreshInterval: "10s",
			Colors:          true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Output: OutputConfig{
			Format: "table",
		},
	}
}

// FilePath is $KEELCTL_CONFIG or ~/.keelctl/config.yaml.
func FilePath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(PathEnv)); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

// Load reads the config file and KEELCTL_* environment overrides.
func Load() (*Config, error) {
	path, err := FilePath()
	if err != nil {
		return nil, err
	}
	m := NewManager(path)
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m.Config(), nil
}

func Save(cfg *Config) error {
	path, err := FilePath()
	if err != nil {
		return err
	}
	return save(cfg, path)
}

// Update applies fn to the file as written, without environment overrides,
// and saves the result.
func Update(fn func(*Config) error) error {
	path, err := FilePath()
	if err != nil {
		return err
	}
	m := &Manager{path: path, fileOnly: true}
	if err := m.Load(); err != nil {
		return err
	}
	cfg := m.Config()
	if err := fn(cfg); err != nil {
		return err
	}
	return save(cfg, m.Path())
}

func save(cfg *Config, path string) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func EnsureExists() (string, error) {
	path, err := FilePath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := Save(Default()); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	u, err := url.Parse(strings.TrimSpace(c.Server.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server.url must be an http(s) URL, got %q", c.Server.URL)
	}
	if _, err := parsePositiveDuration(c.Session.TTL, "session.ttl"); err != nil {
		return err
	}
	if _, err := theme.Resolve(c.TUI.Theme); err != nil {
		return fmt.Errorf("tui.theme: %w", err)
	}
	if _, err := parsePositiveDuration(c.TUI.RefreshInterval, "tui.refreshInterval"); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.MaxSizeMB < 1 || c.Logging.MaxSizeMB > 1024 {
		return fmt.Errorf("logging.maxSizeMB must be between 1 and 1024")
	}
	if c.Logging.MaxBackups < 0 || c.Logging.MaxBackups > 100 {
		return fmt.Errorf("logging.maxBackups must be between 0 and 100")
	}
	if !validFormat(c.Output.Format) {
		return fmt.Errorf("output.format must be one of: %s", strings.Join(allowedFormats, ", "))
	}
	return nil
}

func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Session.TTL))
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

func (c *Config) RefreshIntervalDuration() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.TUI.RefreshInterval))
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// LogPath falls back to logging.DefaultPath when logging.path is unset.
func (c *Config) LogPath() (string, error) {
	if p := strings.TrimSpace(c.Logging.Path); p != "" {
		return p, nil
	}
	return logging.DefaultPath()
}

func (c *Config) SetByKey(key, value string) error {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return fmt.Errorf("key cannot be empty")
	}
	v := strings.TrimSpace(value)
	switch k {
	case "server.url":
		c.Server.URL = v
	case "server.insecureskipverify", "server.insecure_skip_verify":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("server.insecureSkipVerify must be true or false")
		}
		c.Server.InsecureSkipVerify = b
	case "session.ttl":
		c.Session.TTL = v
	case "session.usekeychain", "session.use_keychain":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("session.useKeychain must be true or false")
		}
		c.Session.UseKeychain = b
	case "tui.theme":
		c.TUI.Theme = v
	case "tui.refreshinterval", "tui.refresh_interval":
		c.TUI.RefreshInterval = v
	case "tui.colors":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("tui.colors must be true or false")
		}
		c.TUI.Colors = b
	case "logging.level":
		c.Logging.Level = v
	case "logging.path":
		c.Logging.Path = v
	case "logging.maxsizemb", "logging.max_size_mb":
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("logging.maxSizeMB must be an integer")
		}
		c.Logging.MaxSizeMB = n
	case "logging.maxbackups", "logging.max_backups":
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("logging.maxBackups must be an integer")
		}
		c.Logging.MaxBackups = n
	case "output.format":
		c.Output.Format = v
	case "approvals.voter":
		c.Approvals.Voter = v
	default:
		return fmt.Errorf("unsupported key %q", key)
	}
	c.normalize()
	return c.Validate()
}

func (c *Config) GetByKey(key string) (any, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	switch k {
	case "server.url":
		return c.Server.URL, nil
	case "server.insecureskipverify", "server.insecure_skip_verify":
		return c.Server.InsecureSkipVerify, nil
	case "session.ttl":
		return c.Session.TTL, nil
	case "session.usekeychain", "session.use_keychain":
		return c.Session.UseKeychain, nil
	case "tui.theme":
		return c.TUI.Theme, nil
	case "tui.refreshinterval", "tui.refresh_interval":
		return c.TUI.RefreshInterval, nil
	case "tui.colors":
		return c.TUI.Colors, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.path":
		return c.Logging.Path, nil
	case "logging.maxsizemb", "logging.max_size_mb":
		return c.Logging.MaxSizeMB, nil
	case "logging.maxbackups", "logging.max_backups":
		return c.Logging.MaxBackups, nil
	case "output.format":
		return c.Output.Format, nil
	case "approvals.voter":
		return c.Approvals.Voter, nil
	default:
		return nil, fmt.Errorf("unsupported key %q", key)
	}
}

func (c *Config) ToYAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Config) ToJSON() (string, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Config) normalize() {
	c.Server.URL = strings.TrimRight(strings.TrimSpace(c.Server.URL), "/")
	c.Session.TTL = strings.TrimSpace(c.Session.TTL)
	c.TUI.Theme = strings.ToLower(strings.TrimSpace(c.TUI.Theme))
	c.TUI.RefreshInterval = strings.TrimSpace(c.TUI.RefreshInterval)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Path = strings.TrimSpace(c.Logging.Path)
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Approvals.Voter = strings.TrimSpace(c.Approvals.Voter)
}

func validFormat(v string) bool {
	for _, f := range allowedFormats {
		if v == f {
			return true
		}
	}
	return false
}

func parsePositiveDuration(v, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return d, nil
}
