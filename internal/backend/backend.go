// Package backend defines the process lifecycle contract shared by the
// tmux session backend and the detached background backend, and picks
// one of the two at startup.
package backend

import (
	"log/slog"
	"os/exec"
	"time"

	"github.com/loykin/sitekeeper/internal/site"
)

// Mode identifies which backend manages a site's process.
type Mode string

const (
	ModeSession    Mode = "session"
	ModeBackground Mode = "background"
)

// Status is the on-demand probe result for a single site. It is always
// recomputed from the live system, never cached, so external interference
// (a manually killed process) is observed on the next query.
type Status struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	Mode    Mode   `json:"mode"`
	PID     int    `json:"pid,omitempty"`
	Port    int    `json:"port,omitempty"`
	CWD     string `json:"cwd,omitempty"`
	Command string `json:"command,omitempty"`
	Log     string `json:"log,omitempty"`
}

// Backend manages site processes. Implementations are idempotent: starting
// a running site and stopping a stopped one both succeed without effect.
// Callers serialize operations per site; implementations need not lock.
type Backend interface {
	Start(s site.Spec) error
	Stop(s site.Spec) error
	Restart(s site.Spec) error
	Status(s site.Spec) Status
	Mode() Mode
}

// Config carries the settings both backends need.
type Config struct {
	PIDDir      string        // pidfile directory for the background backend
	GracePeriod time.Duration // SIGTERM-to-SIGKILL window on stop
}

// Select probes for tmux once and returns the session backend when the tool
// is installed, else the background backend. The choice holds for the whole
// process lifetime; there is no error path.
func Select(cfg Config, logger *slog.Logger) Backend {
	if tmuxAvailable() {
		logger.Info("backend selected", "mode", ModeSession)
		return NewTmux(cfg)
	}
	logger.Info("backend selected", "mode", ModeBackground, "reason", "tmux not available")
	return NewBackground(cfg)
}

func tmuxAvailable() bool {
	if _, err := exec.LookPath("tmux"); err != nil {
		return false
	}
	return exec.Command("tmux", "-V").Run() == nil
}
