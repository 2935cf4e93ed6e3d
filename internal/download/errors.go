package download

import (
	"errors"
	"fmt"
)

// Kind classifies why a download was rejected.
type Kind int

const (
	// KindTransport covers connection failures and non-2xx responses.
	KindTransport Kind = iota + 1
	// KindLengthMismatch means the body length differs from the declared size.
	KindLengthMismatch
	// KindHashMismatch means the body digest differs from the declared SHA-1.
	KindHashMismatch
)

// Sentinels matched by *Error through errors.Is.
var (
	ErrTransport      = errors.New("I/O error occurred")
	ErrLengthMismatch = errors.New("length did not match")
	ErrHashMismatch   = errors.New("hash did not match")
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "io"
	case KindLengthMismatch:
		return "length-mismatch"
	case KindHashMismatch:
		return "hash-mismatch"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindLengthMismatch:
		return ErrLengthMismatch
	case KindHashMismatch:
		return ErrHashMismatch
	default:
		return nil
	}
}

// Error is returned for every rejected download.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func newError(kind Kind, url string, err error) *Error {
	return &Error{Kind: kind, URL: url, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.sentinel()
	if msg == nil {
		msg = errors.New(e.Kind.String())
	}
	if e.Err == nil {
		return fmt.Sprintf("download %s: %v", e.URL, msg)
	}
	return fmt.Sprintf("download %s: %v: %v", e.URL, msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Code returns a stable machine-readable identifier, e.g.
// "hash-mismatch.download.error".
func (e *Error) Code() string {
	return e.Kind.String() + ".download.error"
}
