// Package spinner renders a single-line terminal activity indicator for
// command-line operations that run long enough to look stalled, such as
// readiness checks that read whole datasets.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const frameInterval = 80 * time.Millisecond

// Spinner animates a braille activity indicator next to a message on a
// single terminal line. The message may be swapped while it runs, which
// lets callers show progress counts without scrolling output.
type Spinner struct {
	w    io.Writer
	mu   sync.Mutex
	msg  string
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// Start begins animating message on w and returns the running spinner.
// The caller must Stop it before writing anything else to the terminal.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{w: w, msg: message, done: make(chan struct{})}
	s.wg.Add(1)
	go s.run()
	return s
}

// Update replaces the message shown next to the indicator. Safe to call
// from other goroutines while the spinner runs.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.msg = message
	s.mu.Unlock()
}

// Stop halts the animation and clears the line. Calling it more than
// once is harmless.
func (s *Spinner) Stop() {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Spinner) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	// Redraws pad to the widest line printed so far, so a shorter
	// message fully overwrites its predecessor.
	width := 0
	for i := 0; ; i++ {
		select {
		case <-s.done:
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", width)) //nolint:errcheck
			return
		case <-ticker.C:
			s.mu.Lock()
			line := fmt.Sprintf("%s %s", frames[i%len(frames)], s.msg)
			s.mu.Unlock()
			if len(line) > width {
				width = len(line)
			}
			fmt.Fprintf(s.w, "\r%-*s", width, line) //nolint:errcheck
		}
	}
}
