package socketcan

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stubFrameWriter fails with errs[i] on the i-th WriteFrame and succeeds
// once errs is exhausted.
type stubFrameWriter struct {
	errs   []error
	writes int
	waits  int
}

func (s *stubFrameWriter) WriteFrame(Frame) error {
	defer func() { s.writes++ }()
	if s.writes < len(s.errs) {
		return s.errs[s.writes]
	}
	return nil
}

func (s *stubFrameWriter) WaitWritable(time.Duration) error {
	s.waits++
	return nil
}

func wouldBlock() error {
	return &OpError{Op: "write", Err: syscall.EAGAIN}
}

func TestWriterRetriesUntilQueueDrains(t *testing.T) {
	stub := &stubFrameWriter{errs: []error{wouldBlock(), wouldBlock()}}
	w := NewWriter(stub)

	assert.NoError(t, w.WriteBlocking(Frame{ID: 0x123}))
	assert.Equal(t, 3, stub.writes)
	assert.Equal(t, 2, stub.waits)
}

func TestWriterStopsOnHardError(t *testing.T) {
	bad := &OpError{Op: "write", Err: syscall.ENETDOWN}
	stub := &stubFrameWriter{errs: []error{bad}}
	w := NewWriter(stub)

	err := w.WriteBlocking(Frame{ID: 0x123})
	assert.ErrorIs(t, err, syscall.ENETDOWN)
	assert.Equal(t, 1, stub.writes)
	assert.Zero(t, stub.waits, "hard errors must not wait for queue space")
}

func TestWriterExhaustsAttempts(t *testing.T) {
	stub := &stubFrameWriter{errs: []error{
		wouldBlock(), wouldBlock(), wouldBlock(), wouldBlock(), wouldBlock(),
	}}
	w := NewWriter(stub)
	w.Attempts = 3

	err := w.WriteBlocking(Frame{ID: 0x123})
	assert.True(t, IsWouldBlock(err))
	assert.Equal(t, 3, stub.writes)
}

// failingWaiter would-blocks on write and fails hard on wait.
type failingWaiter struct {
	stubFrameWriter
	waitErr error
}

func (f *failingWaiter) WriteFrame(Frame) error {
	f.writes++
	return wouldBlock()
}

func (f *failingWaiter) WaitWritable(time.Duration) error {
	f.waits++
	return f.waitErr
}

func TestWriterStopsWhenWaitFails(t *testing.T) {
	fw := &failingWaiter{waitErr: ErrClosed}
	w := NewWriter(fw)

	err := w.WriteBlocking(Frame{ID: 0x123})
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 1, fw.writes)
}
