//go:build !windows

package backend

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/loykin/sitekeeper/internal/site"
)

const killPollInterval = 100 * time.Millisecond

// Background manages detached processes directly. Each site runs in its own
// session (setsid), so the child's pid doubles as the process-group id; that
// id is persisted to <pid_dir>/<name>.pid and is the only durable record of
// the process across supervisor restarts.
type Background struct {
	cfg Config
}

func NewBackground(cfg Config) *Background { return &Background{cfg: cfg} }

func (b *Background) Mode() Mode { return ModeBackground }

func (b *Background) pidFile(name string) string {
	return pidFilePath(b.cfg.PIDDir, name)
}

// running reports liveness from the pidfile, opportunistically removing a
// stale file when the recorded group is gone.
func (b *Background) running(name string) (int, bool) {
	pf := b.pidFile(name)
	pgid, err := readPIDFile(pf)
	if err != nil {
		if !os.IsNotExist(err) {
			// unreadable or corrupt pidfile: treat as stale
			removePIDFile(pf)
		}
		return 0, false
	}
	if !groupAlive(pgid) {
		removePIDFile(pf)
		return 0, false
	}
	return pgid, true
}

func (b *Background) Start(s site.Spec) error {
	if fi, err := os.Stat(s.CWD); err != nil || !fi.IsDir() {
		return opErr("start", s.Name, fmt.Errorf("cwd does not exist: %s", s.CWD))
	}
	if _, alive := b.running(s.Name); alive {
		return nil
	}
	// The command may be a pipeline or spawn children, so the whole group
	// must be signalable together; setsid puts the shell in a fresh session
	// whose group id equals its pid.
	script := detachedScript(s.Command, s.LogPath())
	// #nosec G204
	cmd := exec.Command("/bin/sh", "-c", script)
	cmd.Dir = s.CWD
	cmd.Env = append(os.Environ(), s.Env...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	null, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return opErr("start", s.Name, err)
	}
	defer func() { _ = null.Close() }()
	cmd.Stdin = null
	cmd.Stdout = null
	cmd.Stderr = null
	if err := cmd.Start(); err != nil {
		return opErr("start", s.Name, err)
	}
	pgid := cmd.Process.Pid
	if err := writePIDFile(b.pidFile(s.Name), pgid); err != nil {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
		return opErr("start", s.Name, fmt.Errorf("write pidfile: %w", err))
	}
	// The child outlives the supervisor; init reaps it. Release drops our
	// handle so no goroutine needs to Wait on it.
	_ = cmd.Process.Release()
	return nil
}

func (b *Background) Stop(s site.Spec) error {
	pf := b.pidFile(s.Name)
	pgid, alive := b.running(s.Name)
	if !alive {
		return nil
	}
	if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			removePIDFile(pf)
			return nil
		}
		return opErr("stop", s.Name, err)
	}
	grace := b.cfg.GracePeriod
	if grace <= 0 {
		grace = 2 * time.Second
	}
	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !groupAlive(pgid) {
			removePIDFile(pf)
			return nil
		}
		time.Sleep(killPollInterval)
	}
	_ = syscall.Kill(-pgid, syscall.SIGKILL)
	removePIDFile(pf)
	return nil
}

func (b *Background) Restart(s site.Spec) error {
	if err := b.Stop(s); err != nil {
		return err
	}
	return b.Start(s)
}

func (b *Background) Status(s site.Spec) Status {
	pgid, alive := b.running(s.Name)
	return Status{
		Name:    s.Name,
		Running: alive,
		Mode:    ModeBackground,
		PID:     pgid,
		Port:    s.Port,
		CWD:     s.CWD,
		Command: s.Command,
		Log:     s.LogPath(),
	}
}
