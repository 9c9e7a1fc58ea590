package core

// Logger interface for raytracer logging.
// Satisfied by *logrus.Logger and *logrus.Entry.
type Logger interface {
	Printf(format string, args ...interface{})
}

// NopLogger discards everything
type NopLogger struct{}

// Printf implements Logger
func (NopLogger) Printf(string, ...interface{}) {}
