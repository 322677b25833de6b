package channelmap

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrOutOfRange    = errors.New("channel out of range")
	ErrLogic         = errors.New("logic error")
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ConfigurationError is returned while a map is being built: malformed input
// lines, duplicated hardware, geometry that cannot be grouped.
type ConfigurationError struct {
	Source  string
	Line    int
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	message := e.Message
	if e.Err != nil {
		message = fmt.Sprintf("%s: %v", message, e.Err)
	}
	switch {
	case e.Source != "" && e.Line > 0:
		return fmt.Sprintf("configuration error in %q line %d: %s", e.Source, e.Line, message)
	case e.Source != "":
		return fmt.Sprintf("configuration error in %q: %s", e.Source, message)
	}
	return fmt.Sprintf("configuration error: %s", message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError builds a ConfigurationError with a formatted message.
func NewConfigurationError(source string, line int, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Source:  source,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}

// RangeError reports an offline channel beyond the channels of the map.
type RangeError struct {
	Channel   uint32
	NChannels uint32
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("offline channel %d out of range (must be lower than %d)", e.Channel, e.NChannels)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// LogicError means a built map is internally inconsistent.
type LogicError struct {
	Message string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("logic error: %s", e.Message)
}

func (e *LogicError) Is(target error) bool {
	return target == ErrLogic
}

// NewLogicError builds a LogicError with a formatted message.
func NewLogicError(format string, args ...any) *LogicError {
	return &LogicError{Message: fmt.Sprintf(format, args...)}
}
