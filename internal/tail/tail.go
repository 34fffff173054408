// Package tail reads site log files: the last N lines on demand and a
// polling follow mode that streams appended lines to a viewer.
package tail

import (
	"os"
	"strings"
)

const tailBlockSize = 4 * 1024

// Tail returns up to the last n lines of the file at path, in file order.
// A missing file yields an empty slice, not an error; n <= 0 yields an
// empty slice. The file is read backwards in fixed-size blocks so large
// logs are not loaded whole.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	var data []byte
	for size > 0 && countLines(data) <= n+1 {
		step := int64(tailBlockSize)
		if step > size {
			step = size
		}
		size -= step
		buf := make([]byte, step)
		if _, err := f.ReadAt(buf, size); err != nil {
			return nil, err
		}
		data = append(buf, data...)
	}
	lines := splitLines(data)
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

func countLines(b []byte) int {
	c := 0
	for _, ch := range b {
		if ch == '\n' {
			c++
		}
	}
	return c
}

func splitLines(b []byte) []string {
	if len(b) == 0 {
		return []string{}
	}
	s := strings.TrimSuffix(string(b), "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
