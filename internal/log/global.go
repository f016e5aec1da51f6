package log

import "sync"

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// SetDefaultLogger installs the process-wide logger. The CLI calls this
// once from the root command's PersistentPreRun after parsing the
// --log-level and --log-format flags.
func SetDefaultLogger(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// DefaultLogger returns the process-wide logger, creating one with the
// default configuration on first use if none was installed.
func DefaultLogger() *Logger {
	globalMu.RLock()
	logger := globalLogger
	globalMu.RUnlock()
	if logger != nil {
		return logger
	}

	logger = Default()
	SetDefaultLogger(logger)
	return logger
}
