package channelmap

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(message string, module string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf("[%s] %s", module, message))
}

func (l *recordingLogger) Error(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
}

// useVerbosity installs a recording logger and a configuration with the
// given verbosity until the test ends.
func useVerbosity(t *testing.T, verbosity int) *recordingLogger {
	t.Helper()
	previousConfig := GetConfiguration()
	previousLogger := GetLogger()
	t.Cleanup(func() {
		SetConfiguration(previousConfig)
		SetLogger(previousLogger)
	})

	config := DefaultConfiguration()
	config.Verbosity = verbosity
	SetConfiguration(config)
	l := &recordingLogger{}
	SetLogger(l)
	return l
}

func fullFDHDMap(t *testing.T, opts ...FDHDOption) *FDHDMap {
	t.Helper()
	m, err := NewFDHDMap(GenerateFDHDTable(), GenerateCrateList(25), "generated", opts...)
	require.NoError(t, err)
	return m
}
