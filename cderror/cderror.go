// Package cderror implements the flat error taxonomy shared by every
// layer of the disc-image engine.
//
// Every boundary in this module except the storage helper returns (or
// wraps) an *Error rather than an ad-hoc error value, so callers can
// branch on Kind with Is
// while still getting a github.com/pkg/errors wrap chain for
// diagnostics.
package cderror

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind enumerates every distinct failure mode surfaced by this module.
type Kind int

const (
	IoError Kind = iota
	ZipError
	ParseError
	BadImage
	BadFormat
	BadTrack
	EndOfTrack
	BadSyncPattern
	BadBcd
	InvalidSubQCRC
	InvalidMsf
	InvalidDiscPosition
	InvalidLeadOutPosition
	PreLeadInPosition
	OutOfDiscPosition
	Unsupported
	EmptyToc
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case ZipError:
		return "ZipError"
	case ParseError:
		return "ParseError"
	case BadImage:
		return "BadImage"
	case BadFormat:
		return "BadFormat"
	case BadTrack:
		return "BadTrack"
	case EndOfTrack:
		return "EndOfTrack"
	case BadSyncPattern:
		return "BadSyncPattern"
	case BadBcd:
		return "BadBcd"
	case InvalidSubQCRC:
		return "InvalidSubQCRC"
	case InvalidMsf:
		return "InvalidMsf"
	case InvalidDiscPosition:
		return "InvalidDiscPosition"
	case InvalidLeadOutPosition:
		return "InvalidLeadOutPosition"
	case PreLeadInPosition:
		return "PreLeadInPosition"
	case OutOfDiscPosition:
		return "OutOfDiscPosition"
	case Unsupported:
		return "Unsupported"
	case EmptyToc:
		return "EmptyToc"
	default:
		return "UnknownError"
	}
}

// Error is the single error type returned across package boundaries.
// Path and Line are only populated for ParseError and BadImage; other
// kinds carry a Kind plus, when built through Wrap/Wrapf, a Desc and
// an optional lower-level cause.
type Error struct {
	Kind Kind
	Path string
	Line uint32
	Desc string
	// cause holds the pkg/errors-wrapped chain, if any, so Unwrap and
	// the %+v stack trace keep working through this type.
	cause error
}

// New builds a bare Error carrying only a Kind, for conditions that
// need no extra context (BadFormat, BadTrack, InvalidSubQCRC, ...).
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Parse builds a ParseError, used exclusively by the cue package; it
// always reports the line the failure occurred on.
func Parse(path string, line uint32, desc string) *Error {
	return &Error{Kind: ParseError, Path: path, Line: line, Desc: desc}
}

// BadImageErr builds a BadImage error describing a structurally
// invalid disc (empty ToC, misaligned track 01 pregap, ...).
func BadImageErr(path, desc string) *Error {
	return &Error{Kind: BadImage, Path: path, Desc: desc}
}

// Wrap attaches cause to a new Error of the given kind and desc,
// keeping pkg/errors' wrap chain (and stack trace) intact via Unwrap.
func Wrap(cause error, kind Kind, desc string) *Error {
	if cause == nil {
		return &Error{Kind: kind, Desc: desc}
	}
	return &Error{Kind: kind, Desc: desc, cause: errors.Wrap(cause, desc)}
}

// Wrapf is Wrap with a formatted description.
func Wrapf(cause error, kind Kind, format string, args ...interface{}) *Error {
	return Wrap(cause, kind, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}

	switch e.Kind {
	case ParseError:
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Desc)
	case BadImage:
		return fmt.Sprintf("%s: %s", e.Path, e.Desc)
	default:
		if e.Desc != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Desc)
		}
		return e.Kind.String()
	}
}

// Unwrap exposes the pkg/errors-wrapped cause, if any, so errors.Is
// and errors.As keep working across this boundary.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether err is an *Error of the given Kind, unwrapping
// through any unrelated wrap layers first.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
