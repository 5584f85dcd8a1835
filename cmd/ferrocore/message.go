package main

import (
	"encoding/json"
	"io"
	"sync"
)

// Message is one record of the optional JSON message stream (spec.md §6,
// SPEC_FULL.md §6 EXPANSION): one JSON value per line, matching the
// original tool's own --message-format=json convention. Only the fields
// relevant to Reason are populated.
type Message struct {
	Reason string `json:"reason"` // "compiler-artifact"|"compiler-message"|"build-script-executed"|"build-finished"

	PackageID string `json:"package_id,omitempty"`
	Target    string `json:"target,omitempty"`
	Profile   string `json:"profile,omitempty"`
	Fresh     *bool  `json:"fresh,omitempty"`

	FileNames []string `json:"filenames,omitempty"`

	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`

	LibraryPaths []string          `json:"linked_paths,omitempty"`
	LibraryLinks []string          `json:"linked_libs,omitempty"`
	Cfgs         []string          `json:"cfgs,omitempty"`
	Env          map[string]string `json:"env,omitempty"`

	Success *bool `json:"success,omitempty"`
}

// messageWriter serializes Messages as the caller's configured
// message-format. Only MessageJSON writes anything to w; human/short are
// rendered by the status renderer instead, matching the original tool's
// split between the message stream (machine consumers) and the terminal UI
// (human consumers).
type messageWriter struct {
	format MessageFormat
	w      io.Writer
	mu     sync.Mutex
}

func newMessageWriter(format MessageFormat, w io.Writer) *messageWriter {
	return &messageWriter{format: format, w: w}
}

func (m *messageWriter) Emit(msg Message) {
	if m.format != MessageJSON || m.w == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	enc := json.NewEncoder(m.w)
	_ = enc.Encode(msg) // a message stream consumer dropping a line is not fatal to the build
}

func boolPtr(b bool) *bool { return &b }
