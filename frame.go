package socketcan

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	MAX_DATA_LEN = 8
	frameLen     = 16

	CAN_EFF_FLAG uint32 = 0x80000000 // Extended frame flag.
	CAN_RTR_FLAG uint32 = 0x40000000 // Remote frame flag.
	CAN_ERR_FLAG uint32 = 0x20000000 // Error frame flag.
	/* mask */
	CAN_SFF_MASK uint32 = 0x000007FF // Valid bits of a standard frame ID.
	CAN_EFF_MASK uint32 = 0x1FFFFFFF // Valid bits of an extended frame ID.
	CAN_ERR_MASK uint32 = 0x1FFFFFFF // Omit EFF, RTR, ERR flags.

	// ErrMaskAll subscribes the socket to every bus error condition when
	// passed to SetErrorMask.
	ErrMaskAll uint32 = CAN_ERR_MASK
	// ErrMaskNone silently drops all bus error conditions (the default).
	ErrMaskNone uint32 = 0
)

// Frame is a classical CAN 2.0 frame. The wire image is the kernel's
// fixed 16 byte struct can_frame:
//
//	0..3  can_id, little-endian, EFF/RTR/ERR flags in the top three bits
//	4     dlc
//	5..7  padding + reserved, zero
//	8..15 payload, zero-filled past Length
type Frame struct {
	// ID is the CAN ID without flag bits.
	ID uint32
	// Length is the number of bytes of data in the frame.
	Length uint8
	// Data is the payload; only the first Length bytes are meaningful.
	Data [MAX_DATA_LEN]byte
	// Whether a extended frame or not.
	IsExtended bool
	// Whether a remote frame or not.
	IsRemote bool
	// Whether a error frame or not.
	IsError bool
}

// NewFrame builds a frame from an identifier and payload. Identifiers above
// CAN_SFF_MASK get the extended flag automatically.
func NewFrame(id uint32, data []byte, rtr, errFrame bool) (Frame, error) {
	if len(data) > MAX_DATA_LEN {
		return Frame{}, ErrTooMuchData
	}
	if id > CAN_EFF_MASK {
		return Frame{}, ErrInvalidID
	}
	f := Frame{
		ID:       id,
		Length:   uint8(len(data)),
		IsRemote: rtr,
		IsError:  errFrame,
	}
	if id > CAN_SFF_MASK {
		f.IsExtended = true
	}
	copy(f.Data[:], data)
	return f, nil
}

// Validate checks that Length fits a classical frame and that ID fits the
// mask implied by the frame format.
func (f *Frame) Validate() error {
	if f.Length > MAX_DATA_LEN {
		return ErrInvalidLength
	}
	max := CAN_SFF_MASK
	if f.IsExtended || f.IsError {
		max = CAN_EFF_MASK
	}
	if f.ID > max {
		return ErrInvalidID
	}
	return nil
}

// Marshal packs the frame into the kernel's 16 byte can_frame layout.
// Payload bytes past Length are written as zero.
func (f *Frame) Marshal() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	maskId := f.ID
	if f.IsExtended {
		maskId |= CAN_EFF_FLAG
	}
	if f.IsRemote {
		maskId |= CAN_RTR_FLAG
	}
	if f.IsError {
		maskId |= CAN_ERR_FLAG
	}

	buf := make([]byte, frameLen)
	binary.LittleEndian.PutUint32(buf[0:4], maskId)
	buf[4] = f.Length
	copy(buf[8:], f.Data[:f.Length])
	return buf, nil
}

// Unmarshal decodes one can_frame. The buffer must be exactly 16 bytes
// (ErrShortRead otherwise); a DLC above 8 fails with ErrInvalidLength.
func (f *Frame) Unmarshal(buf []byte) error {
	if len(buf) != frameLen {
		return ErrShortRead
	}
	id := binary.LittleEndian.Uint32(buf[0:4])
	f.IsExtended = id&CAN_EFF_FLAG != 0
	f.IsRemote = id&CAN_RTR_FLAG != 0
	f.IsError = id&CAN_ERR_FLAG != 0
	if f.IsExtended || f.IsError {
		f.ID = id & CAN_EFF_MASK
	} else {
		f.ID = id & CAN_SFF_MASK
	}
	f.Length = buf[4]
	if f.Length > MAX_DATA_LEN {
		return ErrInvalidLength
	}
	copy(f.Data[:], buf[8:frameLen])
	return nil
}

// Payload returns the Length meaningful bytes of Data.
func (f *Frame) Payload() []byte {
	return f.Data[:f.Length]
}

// String renders the frame in candump notation, e.g. "123#DEADBEEF".
func (f Frame) String() string {
	var b strings.Builder
	if f.IsExtended {
		fmt.Fprintf(&b, "%08X#", f.ID)
	} else {
		fmt.Fprintf(&b, "%03X#", f.ID)
	}
	if f.IsRemote {
		b.WriteByte('R')
		return b.String()
	}
	for _, v := range f.Payload() {
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}
