//go:build !windows

package sitekeeper

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmbeddedLifecycle(t *testing.T) {
	mgr := New(Options{PIDDir: t.TempDir(), GracePeriod: time.Second})
	dir := t.TempDir()

	if err := mgr.Add(Spec{Name: "demo", CWD: dir, Command: "sleep 30"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Stop("demo") })

	if err := mgr.Start("demo"); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st, err := mgr.Status("demo")
		if err != nil {
			t.Fatal(err)
		}
		if st.Running {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	all := mgr.StatusAll()
	if len(all) != 1 || all[0].Name != "demo" {
		t.Fatalf("statuses = %v", all)
	}

	if err := mgr.Stop("demo"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := mgr.Remove("demo"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := mgr.Status("demo"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	body := `
pid_dir = "` + filepath.Join(dir, "pids") + `"

[[sites]]
name = "a"
cwd = "` + dir + `"
command = "sleep 1"
`
	if err := os.WriteFile(cfgPath, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	mgr, err := NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	if len(mgr.StatusAll()) != 1 {
		t.Fatal("site not seeded")
	}
}
