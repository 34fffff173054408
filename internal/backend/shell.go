package backend

import (
	"fmt"
	"os/exec"
	"strings"
)

// wrapUnbuffered prefixes the command so output reaches the log promptly:
// line-buffered stdio via stdbuf when present, plus PYTHONUNBUFFERED for
// interpreters that ignore stdbuf.
func wrapUnbuffered(cmd string) string {
	prefix := "export PYTHONUNBUFFERED=1; "
	if _, err := exec.LookPath("stdbuf"); err == nil {
		return prefix + "stdbuf -oL -eL " + cmd
	}
	return prefix + cmd
}

// sessionScript builds the shell line run inside a tmux session. Site env
// entries become exports inside the script: the tmux server spawns the
// process, not the client, so the client's environment never reaches it.
// Output is duplicated to the log via tee so it lands in the file and stays
// visible on the pane for interactive attach.
func sessionScript(cmd, logPath string, env []string) string {
	var b strings.Builder
	for _, e := range env {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			continue
		}
		fmt.Fprintf(&b, "export %s=%s; ", k, shellQuote(v))
	}
	return fmt.Sprintf("%s%s 2>&1 | tee -a %s", b.String(), wrapUnbuffered(cmd), shellQuote(logPath))
}

// detachedScript builds the shell line for the background backend: stdout
// and stderr both append to the log.
func detachedScript(cmd, logPath string) string {
	return fmt.Sprintf("%s >> %s 2>&1", wrapUnbuffered(cmd), shellQuote(logPath))
}

// shellQuote single-quotes a path for embedding in a /bin/sh command line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
