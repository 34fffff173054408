package backend

import (
	"strings"
	"testing"
)

func TestScriptsWrapUnbuffered(t *testing.T) {
	s := sessionScript("python app.py", "/srv/a/activity.log", nil)
	if !strings.Contains(s, "PYTHONUNBUFFERED=1") {
		t.Fatalf("session script = %q", s)
	}
	if !strings.Contains(s, "| tee -a '/srv/a/activity.log'") {
		t.Fatalf("session script = %q", s)
	}

	d := detachedScript("python app.py", "/srv/a/activity.log")
	if !strings.Contains(d, ">> '/srv/a/activity.log' 2>&1") {
		t.Fatalf("detached script = %q", d)
	}
}

func TestSessionScriptExportsEnv(t *testing.T) {
	env := []string{"FOO=bar baz", "EMPTY=", "malformed"}
	s := sessionScript("python app.py", "/srv/a/activity.log", env)
	if !strings.HasPrefix(s, "export FOO='bar baz'; export EMPTY=''; ") {
		t.Fatalf("session script = %q", s)
	}
	if strings.Contains(s, "malformed") {
		t.Fatalf("malformed entry leaked into script: %q", s)
	}
}

func TestShellQuote(t *testing.T) {
	if got := shellQuote("/a b/c.log"); got != "'/a b/c.log'" {
		t.Fatalf("got %q", got)
	}
	if got := shellQuote("a'b"); got != `'a'\''b'` {
		t.Fatalf("got %q", got)
	}
}
