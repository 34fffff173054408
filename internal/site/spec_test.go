package site

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	ok := Spec{Name: "blog", CWD: dir, Command: "python app.py"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}

	cases := []Spec{
		{Name: "", CWD: dir, Command: "x"},
		{Name: "bad name", CWD: dir, Command: "x"},
		{Name: "../etc", CWD: dir, Command: "x"},
		{Name: "a/b", CWD: dir, Command: "x"},
		{Name: "ok", CWD: dir, Command: ""},
		{Name: "ok", CWD: filepath.Join(dir, "missing"), Command: "x"},
	}
	for _, c := range cases {
		if err := c.Validate(); err == nil {
			t.Errorf("spec %+v passed validation", c)
		}
	}
}

func TestLogPath(t *testing.T) {
	s := Spec{Name: "a", CWD: "/srv/a", Command: "x"}
	if got := s.LogPath(); got != "/srv/a/activity.log" {
		t.Fatalf("default log path = %q", got)
	}
	s.Log = "logs/app.log"
	if got := s.LogPath(); got != "/srv/a/logs/app.log" {
		t.Fatalf("relative log path = %q", got)
	}
	s.Log = "/var/log/a.log"
	if got := s.LogPath(); got != "/var/log/a.log" {
		t.Fatalf("absolute log path = %q", got)
	}
}

func TestRegistryAddGetRemove(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry()
	if err := r.Add(Spec{Name: "a", CWD: dir, Command: "x"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add(Spec{Name: "a", CWD: dir, Command: "y"}); err == nil {
		t.Fatal("duplicate add accepted")
	}
	s, err := r.Get("a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.Command != "x" {
		t.Fatalf("got wrong spec: %+v", s)
	}
	if _, err := r.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := r.Remove("a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := r.Remove("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestRegistryListOrder(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry()
	for _, n := range []string{"c", "a", "b"} {
		if err := r.Add(Spec{Name: n, CWD: dir, Command: "x"}); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	got := r.List()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("order = %v", got)
		}
	}
}

func TestRegistryReplace(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry()
	_ = r.Add(Spec{Name: "old", CWD: dir, Command: "x"})
	err := r.Replace([]Spec{
		{Name: "new", CWD: dir, Command: "x"},
		{Name: "bad name", CWD: dir, Command: "x"},
	})
	if err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if r.Len() != 1 {
		t.Fatalf("len = %d", r.Len())
	}
	if _, err := r.Get("new"); err != nil {
		t.Fatalf("new missing: %v", err)
	}
	if _, err := r.Get("old"); !errors.Is(err, ErrNotFound) {
		t.Fatal("old survived replace")
	}
}
