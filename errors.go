package afpacket

import (
	"syscall"

	"github.com/pkg/errors"
)

// Kind classify a socket failure, it is also an error so that
//
//	errors.Is(err, afpacket.InvalidState)
//
// match any *Error of that kind.
type Kind uint8

const (
	OSError Kind = iota
	PermissionDenied
	UnsupportedDomain
	ResourceExhausted
	NoSuchInterface
	BindFailed
	WouldBlock
	MessageTooLong
	ConnectionRefused
	InvalidState
)

var kindNames = [...]string{
	OSError:           "os error",
	PermissionDenied:  "permission denied",
	UnsupportedDomain: "unsupported domain",
	ResourceExhausted: "resource exhausted",
	NoSuchInterface:   "no such interface",
	BindFailed:        "bind failed",
	WouldBlock:        "would block",
	MessageTooLong:    "message too long",
	ConnectionRefused: "connection refused",
	InvalidState:      "invalid state",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) Error() string { return k.String() }

// Error is returned by every Socket operation. Errno is zero when the
// failure did not come from the kernel (e.g. InvalidState).
type Error struct {
	Kind  Kind
	Op    string
	Errno syscall.Errno
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) Temporary() bool { return e.Kind == WouldBlock }

// KindOf return the Kind of err, OSError if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return OSError
}

// ErrnoOf return the kernel error number carried by err, or 0.
func ErrnoOf(err error) syscall.Errno {
	var e *Error
	if errors.As(err, &e) {
		return e.Errno
	}
	var no syscall.Errno
	if errors.As(err, &no) {
		return no
	}
	return 0
}

func osError(op string, err error, classify func(syscall.Errno) Kind) error {
	var no syscall.Errno
	if !errors.As(err, &no) {
		return &Error{Kind: OSError, Op: op, Err: errors.WithStack(err)}
	}
	return &Error{Kind: classify(no), Op: op, Errno: no, Err: errors.WithStack(no)}
}

func errClosed(op string) error {
	return &Error{Kind: InvalidState, Op: op, Err: errors.WithStack(errSocketClosed)}
}

func errInvalidArg(op string, format string, args ...any) error {
	return &Error{
		Kind: OSError, Op: op, Errno: syscall.EINVAL,
		Err: errors.WithMessagef(errors.WithStack(syscall.EINVAL), format, args...),
	}
}

func classifySocket(no syscall.Errno) Kind {
	switch no {
	case syscall.EPERM, syscall.EACCES:
		return PermissionDenied
	case syscall.EAFNOSUPPORT, syscall.EPROTONOSUPPORT, syscall.ESOCKTNOSUPPORT, syscall.EINVAL:
		return UnsupportedDomain
	case syscall.EMFILE, syscall.ENFILE, syscall.ENOBUFS, syscall.ENOMEM:
		return ResourceExhausted
	default:
		return OSError
	}
}

func classifyIfindex(no syscall.Errno) Kind {
	switch no {
	case syscall.ENODEV, syscall.ENXIO, syscall.EINVAL:
		return NoSuchInterface
	default:
		return classifySocket(no)
	}
}

func classifyBind(no syscall.Errno) Kind {
	switch no {
	case syscall.ENODEV:
		return NoSuchInterface
	default:
		return BindFailed
	}
}

func classifyIO(no syscall.Errno) Kind {
	switch no {
	case syscall.EAGAIN:
		return WouldBlock
	case syscall.EMSGSIZE:
		return MessageTooLong
	case syscall.ECONNREFUSED:
		return ConnectionRefused
	case syscall.EPERM, syscall.EACCES:
		return PermissionDenied
	case syscall.ENOBUFS, syscall.ENOMEM:
		return ResourceExhausted
	default:
		return OSError
	}
}

func classifyOS(syscall.Errno) Kind { return OSError }
