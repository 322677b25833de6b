package channelmap

type Logger interface {
	Info(message string, module string)
	Error(string)
}

type nopLogger struct{}

func (nopLogger) Info(string, string) {}
func (nopLogger) Error(string)        {}

var logger Logger = nopLogger{}

// SetLogger installs the logger used by the package. A nil logger discards
// every message.
func SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	logger = l
}

// GetLogger returns the logger installed with SetLogger.
func GetLogger() Logger {
	return logger
}
