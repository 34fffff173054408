//go:build !windows

package tail

import (
	"context"
	"os"
	"strings"
	"syscall"
	"time"
)

const DefaultPollInterval = 250 * time.Millisecond

// Follower streams lines appended to one log file to one viewer. Each
// viewer owns its own Follower; cursors never interfere.
type Follower struct {
	path     string
	interval time.Duration

	offset int64
	inode  uint64
	// carry holds a trailing partial line until its newline arrives
	carry string
}

// NewFollower prepares a follower for path polling at interval
// (DefaultPollInterval when interval <= 0).
func NewFollower(path string, interval time.Duration) *Follower {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Follower{path: path, interval: interval}
}

// Run starts at the current end of the file and sends each subsequently
// appended complete line on the returned channel. It ends only when ctx is
// canceled or the file becomes permanently unreadable, in which case the
// error channel carries the cause. Both channels are closed on return.
//
// A file that shrinks resets the cursor to the new end; a rotated file
// (new inode) is reopened and followed from its end. Neither is an error,
// so a viewer survives log rotation without re-reading old content.
func (fw *Follower) Run(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string, 64)
	errc := make(chan error, 1)

	fw.syncToEnd()

	go func() {
		defer close(lines)
		defer close(errc)
		t := time.NewTicker(fw.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := fw.poll(ctx, lines); err != nil {
					errc <- err
					return
				}
			}
		}
	}()
	return lines, errc
}

// syncToEnd positions the cursor at the current end of file, if it exists.
func (fw *Follower) syncToEnd() {
	fi, err := os.Stat(fw.path)
	if err != nil {
		fw.offset, fw.inode = 0, 0
		return
	}
	fw.offset = fi.Size()
	fw.inode = inodeOf(fi)
	fw.carry = ""
}

func (fw *Follower) poll(ctx context.Context, out chan<- string) error {
	fi, err := os.Stat(fw.path)
	if err != nil {
		if os.IsNotExist(err) {
			// not created yet, or mid-rotation; start from the beginning
			// of whatever appears next
			fw.offset, fw.inode, fw.carry = 0, 0, ""
			return nil
		}
		return err
	}
	if ino := inodeOf(fi); ino != fw.inode {
		if fw.inode == 0 {
			// the file just appeared: read it from the top
			fw.inode = ino
			fw.offset = 0
			fw.carry = ""
		} else {
			// rotated: resume from the end of the new file
			fw.inode = ino
			fw.offset = fi.Size()
			fw.carry = ""
			return nil
		}
	}
	size := fi.Size()
	if size < fw.offset {
		// truncated: resume from the new end
		fw.offset = size
		fw.carry = ""
		return nil
	}
	if size == fw.offset {
		return nil
	}

	f, err := os.Open(fw.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	buf := make([]byte, size-fw.offset)
	n, err := f.ReadAt(buf, fw.offset)
	if err != nil && n == 0 {
		return err
	}
	fw.offset += int64(n)

	chunk := fw.carry + string(buf[:n])
	parts := strings.Split(chunk, "\n")
	fw.carry = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		select {
		case out <- line:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func inodeOf(fi os.FileInfo) uint64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return st.Ino
	}
	return 0
}
