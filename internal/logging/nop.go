package logging

// NopLogger discards everything. Used by tests and when no logger is configured.
type NopLogger struct{}

// NewNop returns a logger that does nothing
func NewNop() Logger {
	return NopLogger{}
}

func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (n NopLogger) With(fields ...Field) Logger     { return n }
func (NopLogger) Sync() error                       { return nil }

// OrNop returns l, or a no-op logger when l is nil
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
