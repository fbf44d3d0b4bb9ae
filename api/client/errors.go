package client

import "fmt"

type ErrorKind int

const (
	KindInvalidEndpoint ErrorKind = iota + 1
	KindTransport
	KindServer // non-2xx with a server supplied detail
	KindStatus // non-2xx without a usable body
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidEndpoint:
		return "invalid endpoint"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every backend call. Error() is the message shown to
// the user.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

// Sentinels for errors.Is; they match on Kind only.
var (
	ErrInvalidEndpoint = &Error{Kind: KindInvalidEndpoint}
	ErrTransport       = &Error{Kind: KindTransport}
	ErrServer          = &Error{Kind: KindServer}
	ErrStatus          = &Error{Kind: KindStatus}
	ErrDecode          = &Error{Kind: KindDecode}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidEndpoint:
		return "Invalid server URL"
	case KindTransport:
		return fmt.Sprintf("Network error: %v", e.Err)
	case KindServer:
		return fmt.Sprintf("Server error: %s", e.Message)
	case KindStatus:
		return fmt.Sprintf("Server error: HTTP %d", e.StatusCode)
	case KindDecode:
		return fmt.Sprintf("Failed to decode response: %v", e.Err)
	}
	return fmt.Sprintf("backend error (%s)", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
