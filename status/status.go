// Package status implements the error taxonomy shared by every layer of the
// msgpack-rpc runtime: the codec, the connection state machine, and the
// client/server cores fail through a *Status rather than a bare string, so
// callers can branch on Kind instead of matching text. The transport
// package's sockets and listeners return the underlying net errors, which
// Connection and Connector wrap into a *Status.
package status

import (
	"errors"
	"fmt"
)

// Kind enumerates the error categories a Status can carry.
type Kind int

const (
	// Success is not an error; it exists so a zero Kind is never mistaken
	// for a real failure.
	Success Kind = iota
	InvalidArgument
	InvalidMessage
	TypeError
	PreconditionNotMet
	OperationAborted
	OperationFailure
	HostUnresolved
	ConnectionFailure
	Timeout
	ServerError
	UnexpectedError
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case InvalidArgument:
		return "invalid_argument"
	case InvalidMessage:
		return "invalid_message"
	case TypeError:
		return "type_error"
	case PreconditionNotMet:
		return "precondition_not_met"
	case OperationAborted:
		return "operation_aborted"
	case OperationFailure:
		return "operation_failure"
	case HostUnresolved:
		return "host_unresolved"
	case ConnectionFailure:
		return "connection_failure"
	case Timeout:
		return "timeout"
	case ServerError:
		return "server_error"
	case UnexpectedError:
		return "unexpected_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Status is the error type used across the core. It carries a Kind, a
// human-readable message, and an optional wrapped cause so the standard
// errors.Is/errors.As machinery still works.
type Status struct {
	Kind    Kind
	Message string
	Cause   error
}

// New builds a Status with no wrapped cause.
func New(kind Kind, message string) *Status {
	return &Status{Kind: kind, Message: message}
}

// Newf builds a Status with a formatted message.
func Newf(kind Kind, format string, args ...any) *Status {
	return &Status{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an existing error, preserving it as the Cause so
// errors.Unwrap keeps working.
func Wrap(kind Kind, err error) *Status {
	if err == nil {
		return nil
	}
	if s, ok := err.(*Status); ok {
		return s
	}
	return &Status{Kind: kind, Message: err.Error(), Cause: err}
}

func (s *Status) Error() string {
	if s.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", s.Kind, s.Message, s.Cause)
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.Message)
}

func (s *Status) Unwrap() error {
	return s.Cause
}

// Is reports whether err is a *Status of the given Kind.
func Is(err error, kind Kind) bool {
	var s *Status
	if errors.As(err, &s) {
		return s.Kind == kind
	}
	return false
}

// Ok reports whether err is nil (i.e. represents Success).
func Ok(err error) bool {
	return err == nil
}
