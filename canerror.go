package socketcan

import "strings"

// Error class bits carried in the CAN ID of an error frame
// (linux/can/error.h).
const (
	ErrClassTxTimeout       uint32 = 0x00000001
	ErrClassLostArbitration uint32 = 0x00000002
	ErrClassController      uint32 = 0x00000004
	ErrClassProtocol        uint32 = 0x00000008
	ErrClassTransceiver     uint32 = 0x00000010
	ErrClassNoAck           uint32 = 0x00000020
	ErrClassBusOff          uint32 = 0x00000040
	ErrClassBusError        uint32 = 0x00000080
	ErrClassRestarted       uint32 = 0x00000100
)

// Controller status detail, Data[1] of an error frame.
const (
	CtrlRxOverflow uint8 = 0x01
	CtrlTxOverflow uint8 = 0x02
	CtrlRxWarning  uint8 = 0x04
	CtrlTxWarning  uint8 = 0x08
	CtrlRxPassive  uint8 = 0x10
	CtrlTxPassive  uint8 = 0x20
	CtrlActive     uint8 = 0x40
)

// BusError is the decoded payload of an error frame.
type BusError struct {
	// Class is the set of ErrClass* bits from the frame ID.
	Class uint32

	// LostArbitrationBit is the bit position where arbitration was lost,
	// valid when ErrClassLostArbitration is set.
	LostArbitrationBit uint8

	// Controller holds the Ctrl* status bits, valid when
	// ErrClassController is set.
	Controller uint8

	// ProtocolViolation and ProtocolLocation describe a protocol error,
	// valid when ErrClassProtocol is set.
	ProtocolViolation uint8
	ProtocolLocation  uint8
}

var errClassNames = []struct {
	bit  uint32
	name string
}{
	{ErrClassTxTimeout, "tx-timeout"},
	{ErrClassLostArbitration, "lost-arbitration"},
	{ErrClassController, "controller"},
	{ErrClassProtocol, "protocol-violation"},
	{ErrClassTransceiver, "transceiver"},
	{ErrClassNoAck, "no-ack"},
	{ErrClassBusOff, "bus-off"},
	{ErrClassBusError, "bus-error"},
	{ErrClassRestarted, "restarted"},
}

func (e BusError) String() string {
	var names []string
	for _, c := range errClassNames {
		if e.Class&c.bit != 0 {
			names = append(names, c.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// DecodeBusError interprets an error frame's ID and payload. Frames without
// the error flag fail with ErrNotErrorFrame.
func (f *Frame) DecodeBusError() (BusError, error) {
	if !f.IsError {
		return BusError{}, ErrNotErrorFrame
	}
	return BusError{
		Class:              f.ID & CAN_ERR_MASK,
		LostArbitrationBit: f.Data[0],
		Controller:         f.Data[1],
		ProtocolViolation:  f.Data[2],
		ProtocolLocation:   f.Data[3],
	}, nil
}
