package srt

import (
	"errors"
	"fmt"
)

// Kind classifies an SRT error.
type Kind int

const (
	KindBase Kind = iota
	KindProtocol
	KindLogin
	KindResponse
	KindDuplicate
	KindNotLoggedIn
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindBase:
		return "srt"
	case KindProtocol:
		return "protocol"
	case KindLogin:
		return "login"
	case KindResponse:
		return "response"
	case KindDuplicate:
		return "duplicate"
	case KindNotLoggedIn:
		return "not logged in"
	case KindValidation:
		return "validation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// parent returns the kind this kind specializes. KindBase is its own parent.
func (k Kind) parent() Kind {
	if k == KindDuplicate {
		return KindResponse
	}
	return KindBase
}

// Error is the single error type raised by the SRT client.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String() + " error"
	}
	return e.Msg
}

// Is matches sentinels by kind, walking up the specialization chain:
// a duplicate error is a response error, and every error is an SRT error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Msg != "" {
		return false
	}
	for k := e.Kind; ; k = k.parent() {
		if k == t.Kind {
			return true
		}
		if k == KindBase {
			return false
		}
	}
}

// Sentinels for errors.Is.
var (
	ErrSRT         = &Error{Kind: KindBase}
	ErrProtocol    = &Error{Kind: KindProtocol}
	ErrLogin       = &Error{Kind: KindLogin}
	ErrResponse    = &Error{Kind: KindResponse}
	ErrDuplicate   = &Error{Kind: KindDuplicate}
	ErrNotLoggedIn = &Error{Kind: KindNotLoggedIn}
	ErrValidation  = &Error{Kind: KindValidation}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func NewError(msg string) *Error           { return &Error{Kind: KindBase, Msg: msg} }
func NewProtocolError(msg string) *Error   { return &Error{Kind: KindProtocol, Msg: msg} }
func NewResponseError(msg string) *Error   { return &Error{Kind: KindResponse, Msg: msg} }
func NewDuplicateError(msg string) *Error  { return &Error{Kind: KindDuplicate, Msg: msg} }
func NewValidationError(msg string) *Error { return &Error{Kind: KindValidation, Msg: msg} }

// NewLoginError returns a login error, falling back to a generic message.
func NewLoginError(msg string) *Error {
	if msg == "" {
		msg = "login failed, please check ID/PW"
	}
	return &Error{Kind: KindLogin, Msg: msg}
}

// NewNotLoggedInError is returned before any request when the session is logged out.
func NewNotLoggedInError() *Error {
	return &Error{Kind: KindNotLoggedIn, Msg: "not logged in"}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
