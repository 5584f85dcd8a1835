// Package timings records a Chrome-trace-event stream of unit execution and
// renders it as an HTML report, adapted from the teacher's internal/trace
// package: same PendingEvent/Event/Done shape and JSON-array-without-
// closing-bracket sink, generalized from "build + cpu/mem samples" to
// "unit queue/run/finish events" (spec.md §4.4, "timings: {html, json}").
package timings

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

var start = time.Now()

// Event is one Chrome-trace-event-format record.
type Event struct {
	Name     string      `json:"name"`
	Category string      `json:"cat"`
	Type     string      `json:"ph"`
	Ts       uint64      `json:"ts"`
	Dur      uint64      `json:"dur,omitempty"`
	Pid      uint64      `json:"pid"`
	Tid      uint64      `json:"tid"`
	Args     interface{} `json:"args,omitempty"`

	begin time.Time
}

// Sink is a JSON-array Chrome-trace-event stream, safe for concurrent use
// by every scheduler worker.
type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSink opens the JSON array; like the teacher, the closing ']' is
// optional in the Chrome trace-event format and is never written, so a
// crash mid-build still leaves a loadable (if truncated-looking) trace.
func NewSink(w io.Writer) *Sink {
	w.Write([]byte{'['})
	return &Sink{w: w}
}

// Begin starts a duration event for unitName on worker slot tid.
func (s *Sink) Begin(unitName string, tid int) *Event {
	return &Event{
		Name:  unitName,
		Type:  "B",
		Ts:    uint64(time.Since(start) / time.Microsecond),
		Tid:   uint64(tid),
		begin: time.Now(),
	}
}

// End closes a Begin event and writes both the begin and end records.
func (s *Sink) End(ev *Event) {
	endTs := uint64(time.Since(start) / time.Microsecond)
	s.write(Event{Name: ev.Name, Type: "B", Ts: ev.Ts, Tid: ev.Tid})
	s.write(Event{Name: ev.Name, Type: "E", Ts: endTs, Tid: ev.Tid})
}

func (s *Sink) write(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Write(append(b, ','))
}
