package socketcan

import (
	"errors"
	"syscall"
)

var (
	// ErrInterfaceNotFound means no interface with the requested name
	// exists at the time of the lookup.
	ErrInterfaceNotFound = errors.New("socketcan: interface not found")
	// ErrNotCANInterface means the named interface exists but is not a
	// CAN (or vcan) link.
	ErrNotCANInterface = errors.New("socketcan: not a CAN interface")
	// ErrInterfaceDown means the interface exists but is administratively
	// down. Binding to a down CAN interface succeeds at the syscall level
	// and only fails on the first transfer, so Dial rejects it up front.
	ErrInterfaceDown = errors.New("socketcan: interface is down")

	// ErrClosed is returned by every operation on a closed socket.
	ErrClosed = errors.New("socketcan: use of closed socket")
	// ErrNotBound is returned when I/O or configuration is attempted
	// before Bind.
	ErrNotBound = errors.New("socketcan: socket is not bound")
	// ErrAlreadyBound is returned by a second Bind on the same socket.
	ErrAlreadyBound = errors.New("socketcan: socket is already bound")

	// ErrShortRead means a buffer did not hold a complete 16 byte frame.
	ErrShortRead = errors.New("socketcan: buffer is not a complete frame")
	// ErrInvalidLength means a frame declared more than 8 payload bytes.
	ErrInvalidLength = errors.New("socketcan: frame length exceeds 8 bytes")
	// ErrInvalidID means an identifier does not fit its frame format.
	ErrInvalidID = errors.New("socketcan: identifier out of range")
	// ErrTooMuchData means more than 8 payload bytes were supplied.
	ErrTooMuchData = errors.New("socketcan: payload exceeds 8 bytes")
	// ErrShortWrite means the kernel accepted less than one full frame.
	ErrShortWrite = errors.New("socketcan: short write")

	// ErrNotErrorFrame is returned when decoding a bus error from a frame
	// without the error flag.
	ErrNotErrorFrame = errors.New("socketcan: frame is not an error frame")
)

// OpError wraps the OS error from a failed syscall together with the
// operation that failed ("socket", "bind", "setsockopt", "fcntl", "ioctl",
// "read", "write", "poll", "close").
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return "socketcan: " + e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

// Timeout reports whether the wrapped error is a would-block or timeout
// condition, in the style of net.Error.
func (e *OpError) Timeout() bool { return isWouldBlockErrno(e.Err) }

// IsWouldBlock reports whether err is the kernel telling us to try again:
// a non-blocking read with nothing pending, a write into a full transmit
// queue, or an elapsed SO_RCVTIMEO/SO_SNDTIMEO. The kernel signals all of
// these as EAGAIN (or EINPROGRESS), so would-block and timeout are not
// distinguishable after the fact.
func IsWouldBlock(err error) bool { return isWouldBlockErrno(err) }

// IsTimeout is an alias for IsWouldBlock; see that function for why the two
// conditions collapse into one.
func IsTimeout(err error) bool { return isWouldBlockErrno(err) }

func isWouldBlockErrno(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EAGAIN || errno == syscall.EWOULDBLOCK || errno == syscall.EINPROGRESS
	}
	return false
}
