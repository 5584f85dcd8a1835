package queue

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// StatusRenderer draws one line per worker slot, in place, by consuming a
// Bus. Grounded on the teacher's cmd/distri/batch.go scheduler
// (refreshStatus/updateStatus: print every line then move the cursor back
// up with "\033[%dA"), generalized to the Bus/Message abstraction instead
// of a scheduler-private status slice, and with isatty.IsTerminal in place
// of the teacher's raw unix.IoctlGetTermios probe, colorized per MsgFinish
// outcome.
type StatusRenderer struct {
	Workers int
	Out     *os.File // defaults to os.Stdout

	mu         sync.Mutex
	status     []string
	lastRender time.Time
}

func (s *StatusRenderer) out() *os.File {
	if s.Out != nil {
		return s.Out
	}
	return os.Stdout
}

func (s *StatusRenderer) isTerminal() bool {
	f := s.out()
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run consumes msgs until the bus is closed, rendering a status line per
// worker. Intended to run in its own goroutine alongside Scheduler.Run.
func (s *StatusRenderer) Run(msgs <-chan Message) {
	if s.Workers < 1 {
		s.Workers = 1
	}
	s.status = make([]string, s.Workers)
	for i := range s.status {
		s.status[i] = "idle"
	}
	for m := range msgs {
		switch m.Kind {
		case MsgRunning:
			s.set(m.Worker, fmt.Sprintf("building %s", m.UnitName))
		case MsgFinish:
			if m.Err != nil {
				s.set(m.Worker, color.RedString("FAILED %s: %v", m.UnitName, m.Err))
			} else {
				s.set(m.Worker, color.GreenString("finished %s", m.UnitName))
			}
		}
	}
}

func (s *StatusRenderer) set(worker int, line string) {
	if worker < 0 || worker >= len(s.status) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if diff := stripANSILen(s.status[worker]) - stripANSILen(line); diff > 0 {
		line += strings.Repeat(" ", diff)
	}
	s.status[worker] = line
	if time.Since(s.lastRender) < 100*time.Millisecond {
		return
	}
	s.render()
}

// render must be called with s.mu held.
func (s *StatusRenderer) render() {
	if !s.isTerminal() {
		return
	}
	s.lastRender = time.Now()
	f := s.out()
	for _, line := range s.status {
		fmt.Fprintln(f, line)
	}
	fmt.Fprintf(f, "\033[%dA", len(s.status)) // restore cursor position
}

// stripANSILen is a rough visible-width estimate: color.*String wraps text
// in a handful of fixed-width escape codes, so padding against the raw
// byte length alone leaves visible gaps once colors are enabled.
func stripANSILen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\033':
			inEscape = true
		default:
			n++
		}
	}
	return n
}
