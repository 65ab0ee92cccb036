package bitmap

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind identifies the category of failure produced by this package.
// The set is open: callers pattern-matching on Kind must include a default
// arm, since future revisions may add kinds.
type ErrorKind int

const (
	KindTruncated ErrorKind = iota
	KindBadMagic
	KindBadHeader
	KindUnsupportedFormat
	KindUnsupportedBitDepth
	KindUnsupportedCompression
	KindBadPalette
	KindBadBitfields
	KindBadRLE
	KindBadSample
	KindDimensionOverflow
	KindTooWide
	KindTooTall
	KindTooManyPixels
	KindTooMuchMemory
	KindLayoutMismatch
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindTruncated:
		return "truncated"
	case KindBadMagic:
		return "bad magic"
	case KindBadHeader:
		return "bad header"
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindUnsupportedBitDepth:
		return "unsupported bit depth"
	case KindUnsupportedCompression:
		return "unsupported compression"
	case KindBadPalette:
		return "bad palette"
	case KindBadBitfields:
		return "bad bitfields"
	case KindBadRLE:
		return "bad rle"
	case KindBadSample:
		return "bad sample"
	case KindDimensionOverflow:
		return "dimension overflow"
	case KindTooWide:
		return "too wide"
	case KindTooTall:
		return "too tall"
	case KindTooManyPixels:
		return "too many pixels"
	case KindTooMuchMemory:
		return "too much memory"
	case KindLayoutMismatch:
		return "layout mismatch"
	case KindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the single error type this package returns. It never panics and
// never aborts; every failure path, however deep, surfaces as an *Error.
type Error struct {
	Kind  ErrorKind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.msg == "" {
		return "bitmap: " + e.Kind.String()
	}
	return "bitmap: " + e.Kind.String() + ": " + e.msg
}

// Unwrap exposes the underlying cause, if any, so callers can use errors.Is
// / errors.As against it. Only PNM header tokens that fail to parse carry a
// cause (the *strconv.NumError); every other error has none.
func (e *Error) Unwrap() error { return e.cause }

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func newErrorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// wrapError preserves cause via github.com/pkg/errors so a stack trace
// survives from the original parse failure to the caller, while the
// public surface still only ever sees the fixed *Error kind.
func wrapError(kind ErrorKind, cause error, msg string) *Error {
	return &Error{Kind: kind, msg: msg, cause: errors.WithStack(cause)}
}

// IsKind reports whether err is a *Error of the given kind. Safe to call
// with a nil or foreign error.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
