package site

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNotFound is returned when a site name is not registered.
var ErrNotFound = errors.New("site not found")

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Spec describes a supervised site. Specs are immutable once registered;
// edits go through Registry.Add/Remove.
type Spec struct {
	Name        string   `json:"name" mapstructure:"name"`
	CWD         string   `json:"cwd" mapstructure:"cwd"`                 // working directory, must exist
	Command     string   `json:"command" mapstructure:"command"`         // shell command line
	Port        int      `json:"port,omitempty" mapstructure:"port"`     // display only
	Log         string   `json:"log,omitempty" mapstructure:"log"`       // log path relative to CWD
	Env         []string `json:"env,omitempty" mapstructure:"env"`       // extra KEY=VALUE pairs
	Autostart   bool     `json:"autostart" mapstructure:"autostart"`     // start once at daemon startup
	Autorestart bool     `json:"autorestart" mapstructure:"autorestart"` // watchdog restarts on crash
}

// LogPath returns the absolute path of the site's log file.
// The log defaults to "activity.log" under CWD.
func (s Spec) LogPath() string {
	lg := s.Log
	if lg == "" {
		lg = "activity.log"
	}
	if filepath.IsAbs(lg) {
		return lg
	}
	return filepath.Join(s.CWD, lg)
}

// Validate checks the spec before registration. The name charset keeps
// session names and pidfile names shell- and path-safe.
func (s Spec) Validate() error {
	if !nameRe.MatchString(s.Name) {
		return fmt.Errorf("invalid site name %q: allowed [A-Za-z0-9_-]", s.Name)
	}
	if strings.TrimSpace(s.Command) == "" {
		return fmt.Errorf("site %s: command cannot be empty", s.Name)
	}
	if s.CWD == "" {
		return fmt.Errorf("site %s: cwd is required", s.Name)
	}
	if fi, err := os.Stat(s.CWD); err != nil || !fi.IsDir() {
		return fmt.Errorf("site %s: cwd does not exist: %s", s.Name, s.CWD)
	}
	return nil
}
