package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the monitoring core.
type ErrorKind int

const (
	// KindUnsupported means the host has no facility for the resource.
	KindUnsupported ErrorKind = iota + 1
	// KindSample is a transient failure reading a resource.
	KindSample
	// KindValidation is rejected configuration input.
	KindValidation
	// KindPersistence is a store read or write failure.
	KindPersistence
	// KindNotification is a mail dispatch failure.
	KindNotification
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindSample:
		return "sample"
	case KindValidation:
		return "validation"
	case KindPersistence:
		return "persistence"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Error is a classified error. errors.Is matches on Kind against the
// ErrUnsupported, ErrSample, ErrValidation, ErrPersistence and
// ErrNotification sentinels.
type Error struct {
	Kind     ErrorKind
	Op       string
	Resource ResourceType
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Resource != "" {
		msg = fmt.Sprintf("%s: %s", e.Resource, msg)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches sentinels of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Cause == nil
}

var (
	ErrUnsupported  = &Error{Kind: KindUnsupported}
	ErrSample       = &Error{Kind: KindSample}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrPersistence  = &Error{Kind: KindPersistence}
	ErrNotification = &Error{Kind: KindNotification}
)

// NewUnsupportedError reports that resource t cannot be measured on this host.
func NewUnsupportedError(t ResourceType, cause error) *Error {
	return &Error{Kind: KindUnsupported, Op: "probe", Resource: t, Message: "unsupported on this host", Cause: cause}
}

// NewSampleError wraps a failed read of resource t.
func NewSampleError(t ResourceType, op string, cause error) *Error {
	return &Error{Kind: KindSample, Op: op, Resource: t, Message: "sample failed", Cause: cause}
}

// NewValidationError reports rejected input with a user-visible message.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewPersistenceError wraps a store failure during op.
func NewPersistenceError(op string, cause error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Message: "store failure", Cause: cause}
}

// NewNotificationError wraps a failed dispatch to recipient.
func NewNotificationError(recipient string, cause error) *Error {
	return &Error{Kind: KindNotification, Op: "notify", Message: "dispatch to " + recipient + " failed", Cause: cause}
}

// KindOf returns the kind of err, or 0 when err is not classified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
