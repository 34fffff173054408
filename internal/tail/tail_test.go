package tail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "activity.log")
	data := ""
	if len(lines) > 0 {
		data = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTailMissingFile(t *testing.T) {
	got, err := Tail(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("missing file errored: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestTailZeroLines(t *testing.T) {
	p := writeLog(t, "a", "b")
	got, err := Tail(p, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestTailShortFile(t *testing.T) {
	p := writeLog(t, "one", "two", "three")
	got, err := Tail(p, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v", got)
		}
	}
}

func TestTailLastN(t *testing.T) {
	p := writeLog(t, "1", "2", "3", "4", "5")
	got, err := Tail(p, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "4" || got[1] != "5" {
		t.Fatalf("got %v", got)
	}
}

func TestTailNoTrailingNewline(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.log")
	if err := os.WriteFile(p, []byte("x\ny"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := Tail(p, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Fatalf("got %v", got)
	}
}

func TestTailLargeFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.log")
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		sb.WriteString("line with some padding to cross block boundaries\n")
	}
	sb.WriteString("last-one\n")
	if err := os.WriteFile(p, []byte(sb.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := Tail(p, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[2] != "last-one" {
		t.Fatalf("got %v", got)
	}
}

func TestTailEmptyFile(t *testing.T) {
	p := writeLog(t)
	got, err := Tail(p, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}
