package types

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAuth
	KindAuthz
	KindConfig
	KindStore
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindAuthz:
		return "authz"
	case KindConfig:
		return "config"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Status is the HTTP status code the kind is reported with.
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindAuthz:
		return http.StatusForbidden
	case KindConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a caller-facing failure. Msg is safe to show to clients, Err is
// the underlying cause and is only logged.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ValidationErrorf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func AuthError(msg string, cause error) error {
	return &Error{Kind: KindAuth, Msg: msg, Err: cause}
}

func AuthzError(msg string) error {
	return &Error{Kind: KindAuthz, Msg: msg}
}

func ConfigErrorf(format string, args ...any) error {
	return &Error{Kind: KindConfig, Msg: fmt.Sprintf(format, args...)}
}

// StoreError wraps a persistence failure. A nil err returns nil so it can
// wrap gorm results directly.
func StoreError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindStore, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// StatusOf maps err to an HTTP status code. Errors outside the taxonomy are
// internal errors.
func StatusOf(err error) int {
	if k := KindOf(err); k != 0 {
		return k.Status()
	}
	return http.StatusInternalServerError
}

// PublicMessage is the message that may be returned to a client for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal server error"
}
