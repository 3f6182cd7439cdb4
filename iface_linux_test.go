//go:build linux

package socketcan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestResolveInterfaceNotFound(t *testing.T) {
	// Longer than IFNAMSIZ-1: no interface can carry this name and the
	// kernel would reject the query with ERANGE rather than ENODEV.
	_, err := ResolveInterface("nonexistent-iface-xyz")
	assert.ErrorIs(t, err, ErrInterfaceNotFound)

	// Short enough to reach the device lookup.
	_, err = ResolveInterface("nonexist0")
	assert.ErrorIs(t, err, ErrInterfaceNotFound)
}

func TestResolveInterfaceLoopback(t *testing.T) {
	iface, err := ResolveInterface("lo")
	require.NoError(t, err)
	assert.Equal(t, "lo", iface.Name)
	assert.Greater(t, iface.Index, 0)
}

func TestGetLinkInfoRejectsNonCAN(t *testing.T) {
	_, err := GetLinkInfo("lo")
	assert.ErrorIs(t, err, ErrNotCANInterface)
}

func TestDecodeBitTiming(t *testing.T) {
	buf := make([]byte, sizeofBitTiming)
	nlPutUint32(buf[0:4], 500000) // bitrate
	nlPutUint32(buf[4:8], 875)    // sample point
	nlPutUint32(buf[28:32], 4)    // brp

	var bt unix.CANBitTiming
	require.NoError(t, decodeBitTiming(buf, &bt))
	assert.Equal(t, uint32(500000), bt.Bitrate)
	assert.Equal(t, uint32(875), bt.Sample_point)
	assert.Equal(t, uint32(4), bt.Brp)

	assert.Error(t, decodeBitTiming(buf[:8], &bt))
}

func TestDecodeErrCounters(t *testing.T) {
	buf := make([]byte, sizeofErrCounters)
	buf[0], buf[1] = 0x10, 0x00 // txerr = 16
	buf[2], buf[3] = 0x80, 0x00 // rxerr = 128

	var bec unix.CANBusErrorCounters
	require.NoError(t, decodeErrCounters(buf, &bec))
	assert.Equal(t, uint16(16), bec.Txerr)
	assert.Equal(t, uint16(128), bec.Rxerr)
}

func TestIfInfoMsgRoundTrip(t *testing.T) {
	in := ifInfoMsg{
		Family: unix.AF_UNSPEC,
		Type:   unix.ARPHRD_CAN,
		Index:  3,
		Flags:  unix.IFF_UP,
	}
	buf := in.marshalBinary()
	require.Len(t, buf, unix.SizeofIfInfomsg)

	var out ifInfoMsg
	require.NoError(t, out.unmarshalBinary(buf))
	assert.Equal(t, in, out)
}

func nlPutUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
