package socketcan

import (
	"time"

	"github.com/avast/retry-go"
	log "github.com/sirupsen/logrus"
)

// DefaultAttempts is the number of write attempts a Writer makes before
// giving up on a persistently full transmit queue.
const DefaultAttempts = 10

// FrameWriter is the write side of a CAN socket.
type FrameWriter interface {
	WriteFrame(Frame) error
	WaitWritable(timeout time.Duration) error
}

// Writer retries would-block write failures until the frame is queued or
// the attempt budget runs out. Any other failure is returned immediately.
type Writer struct {
	dst FrameWriter

	// Attempts is the total number of WriteFrame calls per WriteBlocking.
	Attempts uint

	// WaitTimeout bounds each wait for transmit queue space between
	// attempts. Zero waits indefinitely.
	WaitTimeout time.Duration
}

func NewWriter(dst FrameWriter) *Writer {
	return &Writer{dst: dst, Attempts: DefaultAttempts}
}

// WriteBlocking queues f, waiting for transmit queue space between
// attempts instead of spinning. If the queue stays full through all
// attempts the last would-block error is returned.
func (w *Writer) WriteBlocking(f Frame) error {
	return retry.Do(
		func() error {
			err := w.dst.WriteFrame(f)
			if !IsWouldBlock(err) {
				return err
			}
			// Queue full. Park on the descriptor until there is room;
			// an elapsed wait keeps the would-block error retryable,
			// anything else aborts the loop.
			if werr := w.dst.WaitWritable(w.WaitTimeout); werr != nil && !IsWouldBlock(werr) {
				return werr
			}
			return err
		},
		retry.Attempts(w.Attempts),
		retry.RetryIf(IsWouldBlock),
		retry.Delay(time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debugf("transmit queue full, retrying write (attempt %d): %v", n+1, err)
		}),
	)
}
