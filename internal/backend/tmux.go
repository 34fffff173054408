package backend

import (
	"fmt"
	"os/exec"

	"github.com/loykin/sitekeeper/internal/site"
)

// Tmux runs each site inside a detached tmux session named after the site.
// The session name is derived verbatim from the site name, which the
// registry has already constrained to a shell-safe charset.
type Tmux struct {
	cfg Config
}

func NewTmux(cfg Config) *Tmux { return &Tmux{cfg: cfg} }

func (t *Tmux) Mode() Mode { return ModeSession }

func (t *Tmux) hasSession(name string) bool {
	return exec.Command("tmux", "has-session", "-t", name).Run() == nil
}

func (t *Tmux) Start(s site.Spec) error {
	if t.hasSession(s.Name) {
		return nil
	}
	script := sessionScript(s.Command, s.LogPath(), s.Env)
	cmd := exec.Command("tmux", "new-session", "-d", "-s", s.Name, "-c", s.CWD, script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return opErr("start", s.Name, fmt.Errorf("tmux new-session: %v: %s", err, out))
	}
	return nil
}

func (t *Tmux) Stop(s site.Spec) error {
	if !t.hasSession(s.Name) {
		return nil
	}
	if out, err := exec.Command("tmux", "kill-session", "-t", s.Name).CombinedOutput(); err != nil {
		return opErr("stop", s.Name, fmt.Errorf("tmux kill-session: %v: %s", err, out))
	}
	return nil
}

func (t *Tmux) Restart(s site.Spec) error {
	// stop-then-start; a crash between the two leaves the site stopped
	// and the watchdog reconciles it when autorestart is set.
	if err := t.Stop(s); err != nil {
		return err
	}
	return t.Start(s)
}

func (t *Tmux) Status(s site.Spec) Status {
	return Status{
		Name:    s.Name,
		Running: t.hasSession(s.Name),
		Mode:    ModeSession,
		Port:    s.Port,
		CWD:     s.CWD,
		Command: s.Command,
		Log:     s.LogPath(),
	}
}
