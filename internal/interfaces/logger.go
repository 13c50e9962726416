package interfaces

// Logger is the structured logger used across the service. keyvals are
// alternating string keys and values.
type Logger interface {
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	Debug(msg string, keyvals ...interface{})
	SetLevel(level string)
	WithFields(fields map[string]interface{}) Logger
}
