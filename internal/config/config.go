package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/sitekeeper/internal/logger"
	"github.com/loykin/sitekeeper/internal/site"
)

const (
	DefaultListen           = ":8420"
	DefaultBasePath         = "/api"
	DefaultPIDDir           = "/tmp/sitekeeper_pids"
	DefaultGracePeriod      = 2 * time.Second
	DefaultPollInterval     = 250 * time.Millisecond
	DefaultWatchdogInterval = 3 * time.Second
	DefaultTailLines        = 200
)

// Auth holds HTTP credentials. Empty fields disable the corresponding scheme;
// when both are empty the API is open.
type Auth struct {
	Username string `toml:"username" mapstructure:"username"`
	Password string `toml:"password" mapstructure:"password"`
	Token    string `toml:"token" mapstructure:"token"`
}

func (a Auth) Enabled() bool {
	return (a.Username != "" && a.Password != "") || a.Token != ""
}

// Config represents the top-level TOML structure.
type Config struct {
	Listen           string        `toml:"listen" mapstructure:"listen"`
	BasePath         string        `toml:"base_path" mapstructure:"base_path"`
	PIDDir           string        `toml:"pid_dir" mapstructure:"pid_dir"`
	GracePeriod      time.Duration `toml:"grace_period" mapstructure:"grace_period"`
	PollInterval     time.Duration `toml:"poll_interval" mapstructure:"poll_interval"`
	WatchdogInterval time.Duration `toml:"watchdog_interval" mapstructure:"watchdog_interval"`
	TailLines        int           `toml:"tail_lines" mapstructure:"tail_lines"`
	HistoryDSN       string        `toml:"history_dsn" mapstructure:"history_dsn"`
	Auth             Auth          `toml:"auth" mapstructure:"auth"`
	Log              logger.Config `toml:"log" mapstructure:"log"`
	Sites            []site.Spec   `toml:"sites" mapstructure:"sites"`
}

// Load parses a TOML config file, applies defaults, and lets
// SITEKEEPER_USERNAME, SITEKEEPER_PASSWORD and SITEKEEPER_TOKEN
// override the [auth] section.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	c.applyEnv()
	seen := make(map[string]struct{}, len(c.Sites))
	for _, s := range c.Sites {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("site %q: %w", s.Name, err)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate site %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.PIDDir == "" {
		c.PIDDir = DefaultPIDDir
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = DefaultWatchdogInterval
	}
	if c.TailLines <= 0 {
		c.TailLines = DefaultTailLines
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SITEKEEPER_USERNAME"); v != "" {
		c.Auth.Username = v
	}
	if v := os.Getenv("SITEKEEPER_PASSWORD"); v != "" {
		c.Auth.Password = v
	}
	if v := os.Getenv("SITEKEEPER_TOKEN"); v != "" {
		c.Auth.Token = v
	}
}

// SaveSites rewrites only the [[sites]] blocks of the config file, keeping a
// .bak copy of the previous contents. The write goes through a temp file and
// rename so a crash cannot leave a half-written config.
func SaveSites(path string, sites []site.Spec) error {
	prev, err := os.ReadFile(filepath.Clean(path))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	var out []byte
	if len(prev) > 0 {
		out = stripSiteBlocks(prev)
		if err := os.WriteFile(path+".bak", prev, 0o600); err != nil {
			return err
		}
	}
	for _, s := range sites {
		out = append(out, renderSite(s)...)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func renderSite(s site.Spec) []byte {
	b := fmt.Sprintf("\n[[sites]]\nname = %q\ncwd = %q\ncommand = %q\n", s.Name, s.CWD, s.Command)
	if s.Port != 0 {
		b += fmt.Sprintf("port = %d\n", s.Port)
	}
	if s.Log != "" {
		b += fmt.Sprintf("log = %q\n", s.Log)
	}
	if len(s.Env) > 0 {
		b += "env = ["
		for i, kv := range s.Env {
			if i > 0 {
				b += ", "
			}
			b += fmt.Sprintf("%q", kv)
		}
		b += "]\n"
	}
	if s.Autostart {
		b += "autostart = true\n"
	}
	if s.Autorestart {
		b += "autorestart = true\n"
	}
	return []byte(b)
}

// stripSiteBlocks removes every [[sites]] table from raw TOML, preserving all
// other sections verbatim.
func stripSiteBlocks(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	inSite := false
	for _, line := range strings.SplitAfter(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "[[sites]]" {
			inSite = true
			continue
		}
		if inSite && strings.HasPrefix(trimmed, "[") {
			inSite = false
		}
		if !inSite {
			out = append(out, line...)
		}
	}
	return out
}
