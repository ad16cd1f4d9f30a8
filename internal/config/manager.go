package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Manager loads one config file through viper and can follow its changes.
type Manager struct {
	path   string
	viper  *viper.Viper
	config *Config
	// fileOnly skips KEELCTL_* overrides.
	fileOnly bool
}

func NewManager(path string) *Manager {
	return &Manager{path: path}
}

func (m *Manager) Path() string { return m.path }

// Config returns the last successfully loaded configuration.
func (m *Manager) Config() *Config { return m.config }

// Load reads defaults, then the file, then KEELCTL_* variables.
func (m *Manager) Load() error {
	m.viper = viper.New()
	m.viper.SetConfigFile(m.path)
	m.viper.SetConfigType("yaml")
	if !m.fileOnly {
		m.viper.SetEnvPrefix("KEELCTL")
		m.viper.AutomaticEnv()
		m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	}
	m.setDefaults()

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to parse config %s: %w", m.path, err)
		}
	}
	cfg, err := m.unmarshalConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Watch calls onChange with every valid revision of the file until ctx is
// done. Invalid revisions are passed to onError and otherwise ignored.
func (m *Manager) Watch(ctx context.Context, onChange func(*Config), onError func(error)) {
	m.viper.OnConfigChange(func(fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		cfg, err := m.unmarshalConfig()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		m.config = cfg
		onChange(cfg)
	})
	m.viper.WatchConfig()
}

func (m *Manager) setDefaults() {
	d := Default()
	m.viper.SetDefault("server.url", d.Server.URL)
	m.viper.SetDefault("server.insecureSkipVerify", d.Server.InsecureSkipVerify)
	m.viper.SetDefault("session.ttl", d.Session.TTL)
	m.viper.SetDefault("session.useKeychain", d.Session.UseKeychain)
	m.viper.SetDefault("tui.theme", d.TUI.Theme)
	m.viper.SetDefault("tui.refreshInterval", d.TUI.RefreshInterval)
	m.viper.SetDefault("tui.colors", d.TUI.Colors)
	m.viper.SetDefault("logging.level", d.Logging.Level)
	m.viper.SetDefault("logging.path", d.Logging.Path)
	m.viper.SetDefault("logging.maxSizeMB", d.Logging.MaxSizeMB)
	m.viper.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	m.viper.SetDefault("output.format", d.Output.Format)
	m.viper.SetDefault("approvals.voter", d.Approvals.Voter)
}

func (m *Manager) unmarshalConfig() (*Config, error) {
	v := m.viper
	cfg := &Config{
		Server: ServerConfig{
			URL:                v.GetString("server.url"),
			InsecureSkipVerify: v.GetBool("server.insecureSkipVerify"),
		},
		Session: SessionConfig{
			TTL:         v.GetString("session.ttl"),
			UseKeychain: v.GetBool("session.useKeychain"),
		},
		TUI: TUIConfig{
			Theme:           v.GetString("tui.theme"),
			RefreshInterval: v.GetString("tui.refreshInterval"),
			Colors:          v.GetBool("tui.colors"),
		},
		Logging: LoggingConfig{
			Level:      v.GetString("logging.level"),
			Path:       v.GetString("logging.path"),
			MaxSizeMB:  v.GetInt("logging.maxSizeMB"),
			MaxBackups: v.GetInt("logging.maxBackups"),
		},
		Output: OutputConfig{
			Format: v.GetString("output.format"),
		},
		Approvals: ApprovalsConfig{
			Voter: v.GetString("approvals.voter"),
		},
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
