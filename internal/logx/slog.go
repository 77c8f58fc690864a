package logx

import "log/slog"

// NewSlogAdapter wraps a *slog.Logger in the Logger facade.
func NewSlogAdapter(l *slog.Logger) Logger {
	return slogAdapter{l: l}
}

type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Debug(msg string, fields ...Field) { a.l.Debug(msg, attrs(fields)...) }
func (a slogAdapter) Info(msg string, fields ...Field)  { a.l.Info(msg, attrs(fields)...) }
func (a slogAdapter) Warn(msg string, fields ...Field)  { a.l.Warn(msg, attrs(fields)...) }
func (a slogAdapter) Error(msg string, fields ...Field) { a.l.Error(msg, attrs(fields)...) }

func (a slogAdapter) With(fields ...Field) Logger {
	return slogAdapter{l: a.l.With(attrs(fields)...)}
}

// Sync is a no-op: slog handlers write through.
func (a slogAdapter) Sync() error { return nil }

func attrs(fields []Field) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		// bare errors render as {} under the JSON handler
		if err, ok := f.Value.(error); ok && err != nil {
			out[i] = slog.String(f.Key, err.Error())
			continue
		}
		out[i] = slog.Any(f.Key, f.Value)
	}
	return out
}
