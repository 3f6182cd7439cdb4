//go:build linux

package socketcan

import (
	"fmt"
	"time"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// sockios ioctl returning the receive time of the last packet read from the
// socket as a struct timespec (SIOCGSTAMPNS, nanosecond accuracy).
const siocgstampns = 0x8907

type socketState uint8

const (
	stateCreated socketState = iota
	stateBound
	stateClosed
)

// Socket owns exactly one raw CAN descriptor for its lifetime. All
// configuration lives kernel-side; the object mirrors nothing but the
// created/bound/closed state needed to reject misuse.
//
// A Socket is not safe for concurrent use from multiple goroutines without
// external synchronization. Independent Sockets share no state and may run
// concurrently.
type Socket struct {
	fd    int
	state socketState
}

// Open creates an unbound raw socket in the CAN address family.
func Open() (*Socket, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return nil, &OpError{Op: "socket", Err: err}
	}
	return &Socket{fd: fd}, nil
}

// Dial resolves ifname, opens a raw socket and binds it. The interface must
// already exist and be administratively up; Dial does not create or
// configure links. The descriptor is released if bind fails.
func Dial(ifname string) (*Socket, error) {
	iface, err := ResolveInterface(ifname)
	if err != nil {
		return nil, err
	}
	return dial(iface)
}

// dial binds a fresh socket to a resolved interface. The kernel happily
// binds to a down CAN interface and defers the failure to the first
// transfer, so the IFF_UP check happens here instead.
func dial(iface Interface) (*Socket, error) {
	if !iface.Up {
		return nil, fmt.Errorf("%w: %s", ErrInterfaceDown, iface.Name)
	}
	s, err := Open()
	if err != nil {
		return nil, err
	}
	if err := s.Bind(NewAddr(iface.Index)); err != nil {
		s.Close()
		return nil, err
	}
	log.Debugf("bound CAN socket to %s (index %d, fd %d)", iface.Name, iface.Index, s.fd)
	return s, nil
}

// Bind attaches the socket to an interface. Valid once, on a freshly
// opened socket; the socket stays open if bind fails so the caller can
// retry with a different address or close it.
func (s *Socket) Bind(addr Addr) error {
	switch s.state {
	case stateClosed:
		return ErrClosed
	case stateBound:
		return ErrAlreadyBound
	}
	if err := unix.Bind(s.fd, addr.sockaddr()); err != nil {
		return &OpError{Op: "bind", Err: err}
	}
	s.state = stateBound
	return nil
}

// guardIO rejects configuration and I/O outside the bound state.
func (s *Socket) guardIO() error {
	switch s.state {
	case stateClosed:
		return ErrClosed
	case stateCreated:
		return ErrNotBound
	}
	return nil
}

// SetNonblocking toggles O_NONBLOCK on the descriptor. The flag word is
// read, modified and written back so every other status flag is preserved.
func (s *Socket) SetNonblocking(enable bool) error {
	if err := s.guardIO(); err != nil {
		return err
	}
	flags, err := unix.FcntlInt(uintptr(s.fd), unix.F_GETFL, 0)
	if err != nil {
		return &OpError{Op: "fcntl", Err: err}
	}
	if enable {
		flags |= unix.O_NONBLOCK
	} else {
		flags &^= unix.O_NONBLOCK
	}
	if _, err := unix.FcntlInt(uintptr(s.fd), unix.F_SETFL, flags); err != nil {
		return &OpError{Op: "fcntl", Err: err}
	}
	return nil
}

// SetReadTimeout bounds how long a blocking ReadFrame waits before failing
// with a timeout. A zero duration clears the timeout and reads block
// forever (kernel SO_RCVTIMEO semantics); it does NOT mean "return
// immediately". Use SetNonblocking for that.
func (s *Socket) SetReadTimeout(timeout time.Duration) error {
	return s.setTimeout(unix.SO_RCVTIMEO, timeout)
}

// SetWriteTimeout bounds how long a blocking WriteFrame waits for transmit
// queue space. Zero clears the timeout, as with SetReadTimeout.
func (s *Socket) SetWriteTimeout(timeout time.Duration) error {
	return s.setTimeout(unix.SO_SNDTIMEO, timeout)
}

func (s *Socket) setTimeout(opt int, timeout time.Duration) error {
	if err := s.guardIO(); err != nil {
		return err
	}
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, opt, &tv); err != nil {
		return &OpError{Op: "setsockopt", Err: err}
	}
	return nil
}

// SetFilters replaces the socket's acceptance filters in a single
// setsockopt call.
//
// An empty slice installs a zero-length filter list, which the kernel
// treats as "accept nothing": the socket goes silent. To accept every
// frame, do not call SetFilters at all (the default filter matches
// everything) or install NewFilter(0, 0).
func (s *Socket) SetFilters(filters []Filter) error {
	if err := s.guardIO(); err != nil {
		return err
	}
	if len(filters) == 0 {
		if err := unix.SetsockoptString(s.fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, ""); err != nil {
			return &OpError{Op: "setsockopt", Err: err}
		}
		return nil
	}
	kfs := make([]unix.CanFilter, len(filters))
	for i, f := range filters {
		kfs[i] = unix.CanFilter{Id: f.Id, Mask: f.Mask}
	}
	if err := unix.SetsockoptCanRawFilter(s.fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, kfs); err != nil {
		return &OpError{Op: "setsockopt", Err: err}
	}
	return nil
}

// SetErrorMask subscribes the socket to bus error conditions; matching
// errors are delivered as error frames. ErrMaskNone (the default) drops
// all of them, ErrMaskAll reports everything.
func (s *Socket) SetErrorMask(mask uint32) error {
	return s.setRawOptInt(unix.CAN_RAW_ERR_FILTER, int(mask))
}

// SetLoopback controls whether frames sent on this interface are echoed to
// other local sockets. Enabled by default by the kernel.
func (s *Socket) SetLoopback(enable bool) error {
	return s.setRawOptInt(unix.CAN_RAW_LOOPBACK, boolToInt(enable))
}

// SetRecvOwnMsgs controls whether this socket receives the frames it sent
// itself (requires loopback). Off by default.
func (s *Socket) SetRecvOwnMsgs(enable bool) error {
	return s.setRawOptInt(unix.CAN_RAW_RECV_OWN_MSGS, boolToInt(enable))
}

// SetJoinFilters makes a frame pass only if it matches ALL installed
// filters instead of any one of them.
func (s *Socket) SetJoinFilters(enable bool) error {
	return s.setRawOptInt(unix.CAN_RAW_JOIN_FILTERS, boolToInt(enable))
}

func (s *Socket) setRawOptInt(opt, value int) error {
	if err := s.guardIO(); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(s.fd, unix.SOL_CAN_RAW, opt, value); err != nil {
		return &OpError{Op: "setsockopt", Err: err}
	}
	return nil
}

// ReadFrame reads exactly one frame. In non-blocking mode an empty receive
// queue fails with a would-block error (check IsWouldBlock); an elapsed
// read timeout fails the same way (check IsTimeout).
//
// No timestamp is attached; call ReadTimestamp afterwards if you need the
// kernel receive time.
func (s *Socket) ReadFrame() (Frame, error) {
	var f Frame
	if err := s.guardIO(); err != nil {
		return f, err
	}
	buf := make([]byte, frameLen)
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		return f, &OpError{Op: "read", Err: err}
	}
	if err := f.Unmarshal(buf[:n]); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// ReadTimestamp returns the kernel receive timestamp of the last frame read
// from this socket. Only meaningful immediately after a successful
// ReadFrame: at any other time the kernel may report a stale or zero
// timestamp. Kept separate from ReadFrame so the extra ioctl is only paid
// when the caller wants it.
func (s *Socket) ReadTimestamp() (time.Time, error) {
	if err := s.guardIO(); err != nil {
		return time.Time{}, err
	}
	// Out parameter the kernel fills in; trust it only once the ioctl
	// reports success.
	var ts unix.Timespec
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(s.fd), siocgstampns, uintptr(unsafe.Pointer(&ts)))
	if errno != 0 {
		return time.Time{}, &OpError{Op: "ioctl", Err: errno}
	}
	return time.Unix(ts.Unix()), nil
}

// WriteFrame makes a single attempt to queue one frame. A full transmit
// queue in non-blocking mode fails with a would-block error; there is no
// retry here. Wrap the socket in a Writer for that policy.
func (s *Socket) WriteFrame(f Frame) error {
	if err := s.guardIO(); err != nil {
		return err
	}
	buf, err := f.Marshal()
	if err != nil {
		return err
	}
	n, err := unix.Write(s.fd, buf)
	if err != nil {
		return &OpError{Op: "write", Err: err}
	}
	if n != frameLen {
		return ErrShortWrite
	}
	return nil
}

// WaitReadable blocks until the descriptor has data to read or the timeout
// elapses (reported as a would-block error). Zero timeout waits forever.
func (s *Socket) WaitReadable(timeout time.Duration) error {
	return s.wait(unix.POLLIN, timeout)
}

// WaitWritable blocks until the descriptor can accept a write or the
// timeout elapses (reported as a would-block error). Zero timeout waits
// forever.
func (s *Socket) WaitWritable(timeout time.Duration) error {
	return s.wait(unix.POLLOUT, timeout)
}

func (s *Socket) wait(events int16, timeout time.Duration) error {
	if err := s.guardIO(); err != nil {
		return err
	}
	ms := -1
	if timeout > 0 {
		ms = int(timeout.Milliseconds())
	}
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: events}}
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return &OpError{Op: "poll", Err: err}
		}
		if n == 0 {
			return &OpError{Op: "poll", Err: unix.EAGAIN}
		}
		return nil
	}
}

// Fd exposes the raw descriptor so callers can integrate the socket into
// their own readiness polling. The Socket still owns it: do not close it.
func (s *Socket) Fd() int {
	return s.fd
}

// Close releases the descriptor. Safe to call more than once; every call
// after the first is a no-op.
func (s *Socket) Close() error {
	if s.state == stateClosed {
		return nil
	}
	s.state = stateClosed
	fd := s.fd
	s.fd = -1
	log.Debugf("closing CAN socket (fd %d)", fd)
	if err := unix.Close(fd); err != nil {
		return &OpError{Op: "close", Err: err}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
