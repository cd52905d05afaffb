package sim

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the simulator and its collaborators.
type ErrorKind string

const (
	// KindConfiguration marks a malformed network, experiment or weights description.
	// It is reported before the run starts and is fatal to that run.
	KindConfiguration ErrorKind = "configuration"
	// KindConnection marks an input/output driver failure (file or socket).
	KindConnection ErrorKind = "connection"
	// KindSimulation marks an invalid internal reference found while processing events.
	KindSimulation ErrorKind = "simulation"
)

// Sentinels for errors.Is matching on the kind of a *Error.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrConnection    = errors.New("connection error")
	ErrSimulation    = errors.New("simulation error")
)

// Error is the typed error returned across the simulator boundary.
// Source names the offending file, driver or identifier; Line is set for
// file-based configuration errors (0 when unknown).
type Error struct {
	Kind   ErrorKind
	Source string
	Line   int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Source != "" && e.Line > 0:
		return fmt.Sprintf("%s error in %s:%d: %v", e.Kind, e.Source, e.Line, e.Err)
	case e.Source != "":
		return fmt.Sprintf("%s error in %s: %v", e.Kind, e.Source, e.Err)
	default:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrConnection:
		return e.Kind == KindConnection
	case ErrSimulation:
		return e.Kind == KindSimulation
	}
	return false
}

// NewConfigurationError builds a configuration error for source (file or identifier).
func NewConfigurationError(source string, line int, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Source: source, Line: line, Err: fmt.Errorf(format, args...)}
}

// NewConnectionError wraps a driver failure.
func NewConnectionError(source string, err error) *Error {
	return &Error{Kind: KindConnection, Source: source, Err: err}
}

// NewSimulationError builds a fatal run-time error.
func NewSimulationError(source string, format string, args ...any) *Error {
	return &Error{Kind: KindSimulation, Source: source, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err if it wraps a *Error, or "" otherwise.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
