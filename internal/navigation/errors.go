package navigation

import (
	"errors"
	"fmt"
)

// Kind classifies a navigation failure
type Kind int

const (
	// KindInvalidPath means the path is empty or malformed
	KindInvalidPath Kind = iota + 1
	// KindUnknownType means the type segment names no addressable catalog type
	KindUnknownType
	// KindNotFound means no instance exists at the identifier, or traversal reached an absent value
	KindNotFound
	// KindAttributeAccess means a field segment names no property of the current value
	KindAttributeAccess
	// KindUnsupportedConversion means the identifier cannot be coerced to the declared kind
	KindUnsupportedConversion
)

// Sentinel errors, one per kind, usable with errors.Is
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrUnknownType           = errors.New("unknown type")
	ErrNotFound              = errors.New("not found")
	ErrAttributeAccess       = errors.New("attribute access error")
	ErrUnsupportedConversion = errors.New("unsupported conversion")
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindInvalidPath:
		return "InvalidPath"
	case KindUnknownType:
		return "UnknownType"
	case KindNotFound:
		return "NotFound"
	case KindAttributeAccess:
		return "AttributeAccessError"
	case KindUnsupportedConversion:
		return "UnsupportedConversion"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidPath:
		return ErrInvalidPath
	case KindUnknownType:
		return ErrUnknownType
	case KindNotFound:
		return ErrNotFound
	case KindAttributeAccess:
		return ErrAttributeAccess
	case KindUnsupportedConversion:
		return ErrUnsupportedConversion
	default:
		return nil
	}
}

// Error is a navigation failure tied to one path segment
type Error struct {
	Kind     Kind
	Segment  string // the offending segment, empty when the path itself is at fault
	Position int    // zero-based segment index; 0 is the type, 1 the identifier
	Message  string
	Err      error // underlying cause, if any
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.sentinel().Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is matches the sentinel error of the kind
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, position int, segment, format string, args ...interface{}) *Error {
	return &Error{
		Kind:     kind,
		Segment:  segment,
		Position: position,
		Message:  fmt.Sprintf(format, args...),
	}
}

// KindOf returns the navigation kind of err, or 0 when err is not a navigation error
func KindOf(err error) Kind {
	var navErr *Error
	if errors.As(err, &navErr) {
		return navErr.Kind
	}
	return 0
}
