// Package testlog records log output so tests can assert on it.
package testlog

import (
	"sync"

	"swiftdrop/internal/logx"
)

// Entry is one captured log call.
type Entry struct {
	Level  string
	Msg    string
	Fields []logx.Field
}

// Recorder captures entries from every logger bound to it.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// New creates an empty Recorder.
func New() *Recorder { return &Recorder{} }

// Logger returns a logx.Logger writing into the recorder.
func (r *Recorder) Logger() logx.Logger { return capture{rec: r} }

// Entries returns a snapshot of everything captured so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Has reports whether an entry with the given level and message was captured.
func (r *Recorder) Has(level, msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Level == level && e.Msg == msg {
			return true
		}
	}
	return false
}

func (r *Recorder) record(level, msg string, fields []logx.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		Level:  level,
		Msg:    msg,
		Fields: append([]logx.Field(nil), fields...),
	})
}

type capture struct {
	rec  *Recorder
	with []logx.Field
}

func (c capture) Debug(msg string, f ...logx.Field) { c.rec.record("debug", msg, c.merged(f)) }
func (c capture) Info(msg string, f ...logx.Field)  { c.rec.record("info", msg, c.merged(f)) }
func (c capture) Warn(msg string, f ...logx.Field)  { c.rec.record("warn", msg, c.merged(f)) }
func (c capture) Error(msg string, f ...logx.Field) { c.rec.record("error", msg, c.merged(f)) }

func (c capture) With(f ...logx.Field) logx.Logger {
	return capture{rec: c.rec, with: c.merged(f)}
}

func (c capture) Sync() error { return nil }

func (c capture) merged(f []logx.Field) []logx.Field {
	out := append([]logx.Field(nil), c.with...)
	return append(out, f...)
}
