// Package diagnostics carries per-channel error reports out of the
// processing pipeline. Failures are always channel-scoped: nothing in the
// pipeline throws process-wide.
package diagnostics

import (
	"log/slog"
	"sync"
)

// Code classifies a channel-scoped failure.
type Code string

const (
	CodeMalformedGrid Code = "malformed_grid"
	CodeFrameMismatch Code = "frame_mismatch"
	CodePoolGrowth    Code = "pool_growth"
	CodeBadMessage    Code = "bad_message"
)

// Reporter receives channel-scoped error reports.
type Reporter interface {
	ReportError(channel string, code Code, message string)
}

// SlogReporter logs reports through a structured logger.
type SlogReporter struct {
	logger *slog.Logger
}

// NewSlogReporter creates a reporter backed by the given logger.
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	return &SlogReporter{logger: logger}
}

func (r *SlogReporter) ReportError(channel string, code Code, message string) {
	r.logger.Error("channel diagnostic", "channel", channel, "code", string(code), "message", message)
}

// Entry is one recorded report.
type Entry struct {
	Channel string
	Code    Code
	Message string
}

// Recorder collects reports in memory. Used by tests and the monitor to
// aggregate per-channel error counts.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	counts  map[string]int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[string]int)}
}

func (r *Recorder) ReportError(channel string, code Code, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Channel: channel, Code: code, Message: message})
	r.counts[channel]++
}

// Entries returns a copy of all recorded reports.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// CountFor returns the number of reports recorded for a channel.
func (r *Recorder) CountFor(channel string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[channel]
}

// Counts returns a copy of the per-channel report counts.
func (r *Recorder) Counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}

// Multi fans reports out to several reporters.
type Multi []Reporter

func (m Multi) ReportError(channel string, code Code, message string) {
	for _, r := range m {
		r.ReportError(channel, code, message)
	}
}
