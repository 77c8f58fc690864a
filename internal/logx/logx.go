package logx

import "time"

// Logger is the structured logging facade used across the platform.
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field is one key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// Any attaches a value of arbitrary type.
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// String attaches a string value.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int attaches an int value.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 attaches an int64 value.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Float64 attaches a float64 value.
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

// Time attaches a timestamp.
func Time(key string, value time.Time) Field { return Field{Key: key, Value: value} }

// Duration attaches a duration.
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Err attaches an error under the conventional "err" key.
func Err(err error) Field { return Field{Key: "err", Value: err} }

// Nop returns a logger that discards everything.
func Nop() Logger { return nop{} }

type nop struct{}

func (nop) Debug(string, ...Field) {}
func (nop) Info(string, ...Field)  {}
func (nop) Warn(string, ...Field)  {}
func (nop) Error(string, ...Field) {}
func (nop) With(...Field) Logger   { return nop{} }
func (nop) Sync() error            { return nil }
