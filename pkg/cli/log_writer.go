package cli

import (
	"strings"
	"sync"
)

// LogWriter is an io.Writer that keeps the last lines written to it, for
// showing logs inside a redrawn frame. Each line is also offered on a
// channel without blocking.
type LogWriter struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
	ch    chan string
}

// NewLogWriter keeps at most maxLines lines.
func NewLogWriter(maxLines int) *LogWriter {
	return &LogWriter{
		lines: make([]string, max(maxLines, 1)),
		ch:    make(chan string, 100),
	}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	text := strings.TrimRight(string(p), "\n")
	w.mu.Lock()
	defer w.mu.Unlock()
	for line := range strings.SplitSeq(text, "\n") {
		w.lines[w.next] = line
		w.next = (w.next + 1) % len(w.lines)
		if w.next == 0 {
			w.full = true
		}
		select {
		case w.ch <- line:
		default:
		}
	}
	return len(p), nil
}

// Lines returns the buffered lines, oldest first.
func (w *LogWriter) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.full {
		return append([]string(nil), w.lines[:w.next]...)
	}
	out := make([]string, 0, len(w.lines))
	out = append(out, w.lines[w.next:]...)
	return append(out, w.lines[:w.next]...)
}

// Channel delivers new lines. Lines are dropped when nobody reads.
func (w *LogWriter) Channel() <-chan string {
	return w.ch
}
