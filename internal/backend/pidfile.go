//go:build !windows

package backend

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// pidFilePath returns <pid_dir>/<name>.pid for a site.
func pidFilePath(dir, name string) string {
	return filepath.Join(dir, name+".pid")
}

// readPIDFile reads a pidfile written by writePIDFile. The file holds the
// decimal process-group id on the first line and nothing else.
func readPIDFile(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	line, _, _ := strings.Cut(string(b), "\n")
	pgid, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, err
	}
	return pgid, nil
}

func writePIDFile(path string, pgid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pgid)), 0o600)
}

func removePIDFile(path string) {
	_ = os.Remove(path)
}

// groupAlive probes a process group with signal 0. EPERM still means a
// process exists, so it counts as alive.
func groupAlive(pgid int) bool {
	if pgid <= 0 {
		return false
	}
	err := syscall.Kill(-pgid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
