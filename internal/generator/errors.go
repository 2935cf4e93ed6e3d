package generator

import (
	"errors"
	"fmt"
)

// Kind classifies a failed derivation.
type Kind int

const (
	// KindFailed is a non-zero exit, a process that could not start, or a
	// missing entry point.
	KindFailed Kind = iota + 1
	// KindReflection is an in-process entry point that could not be invoked.
	KindReflection
	// KindParse means the derivation exited cleanly but its report was
	// missing or malformed.
	KindParse
)

var (
	ErrGeneratorFailed   = errors.New("generator failed")
	ErrReflectionFailure = errors.New("generator entry point invocation failed")
	ErrReportInvalid     = errors.New("generator report invalid")
)

// Error describes a failed Run. ExitCode is -1 when no exit status exists.
type Error struct {
	Kind     Kind
	ExitCode int
	Err      error
}

func (k Kind) sentinel() error {
	switch k {
	case KindFailed:
		return ErrGeneratorFailed
	case KindReflection:
		return ErrReflectionFailure
	case KindParse:
		return ErrReportInvalid
	default:
		return ErrGeneratorFailed
	}
}

func (e *Error) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Kind == KindFailed && e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s, exit code %d", msg, e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind.sentinel() }
