//go:build !windows

package backend

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/loykin/sitekeeper/internal/site"
)

func newTestTmux(t *testing.T) (*Tmux, site.Spec) {
	t.Helper()
	if !tmuxAvailable() {
		t.Skip("tmux not installed")
	}
	b := NewTmux(Config{GracePeriod: time.Second})
	s := site.Spec{
		Name:    "sk_tmux_test",
		CWD:     t.TempDir(),
		Command: "sleep 30",
	}
	t.Cleanup(func() { _ = b.Stop(s) })
	return b, s
}

func waitTmuxRunning(t *testing.T, b *Tmux, s site.Spec, want bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if b.Status(s).Running == want {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("session %s running != %v within deadline", s.Name, want)
}

func TestTmuxStartStop(t *testing.T) {
	b, s := newTestTmux(t)
	if err := b.Start(s); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitTmuxRunning(t, b, s, true)

	if st := b.Status(s); st.Mode != ModeSession {
		t.Fatalf("mode = %s", st.Mode)
	}

	// Second start must not error or spawn another session.
	if err := b.Start(s); err != nil {
		t.Fatalf("second start: %v", err)
	}

	if err := b.Stop(s); err != nil {
		t.Fatalf("stop: %v", err)
	}
	waitTmuxRunning(t, b, s, false)
	if err := b.Stop(s); err != nil {
		t.Fatalf("double stop errored: %v", err)
	}
}

func TestTmuxSiteEnvReachesProcess(t *testing.T) {
	b, s := newTestTmux(t)
	s.Command = "printenv SK_GREETING"
	s.Env = []string{"SK_GREETING=from-site-env"}
	if err := b.Start(s); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(s.LogPath()); err == nil && strings.Contains(string(data), "from-site-env") {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("site env value never reached the process")
}

func TestTmuxLogTee(t *testing.T) {
	b, s := newTestTmux(t)
	s.Command = "echo tmux-hello"
	if err := b.Start(s); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(s.LogPath()); err == nil && len(data) > 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("command output never reached the log file")
}
