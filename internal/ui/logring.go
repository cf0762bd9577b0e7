package ui

import (
	"strings"
	"sync"
)

// LogRing is a bounded, concurrency-safe sink for log output. The sync loop's
// logger writes into it from its own goroutine; the view reads the tail.
type LogRing struct {
	mu    sync.Mutex
	lines []string
	max   int
}

// NewLogRing creates a ring keeping at most max lines.
func NewLogRing(max int) *LogRing {
	if max <= 0 {
		max = 100
	}
	return &LogRing{max: max}
}

// Write implements io.Writer. Each newline-terminated chunk becomes one line;
// the oldest lines are dropped past capacity.
func (r *LogRing) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		r.lines = append(r.lines, line)
	}
	if overflow := len(r.lines) - r.max; overflow > 0 {
		r.lines = r.lines[overflow:]
	}

	return len(p), nil
}

// Tail returns up to n most recent lines, oldest first.
func (r *LogRing) Tail(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > len(r.lines) {
		n = len(r.lines)
	}
	tail := make([]string, n)
	copy(tail, r.lines[len(r.lines)-n:])
	return tail
}
