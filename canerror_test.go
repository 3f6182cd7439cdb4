package socketcan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBusError(t *testing.T) {
	f := Frame{
		ID:      ErrClassLostArbitration | ErrClassController,
		Length:  8,
		IsError: true,
		Data:    [8]byte{11, CtrlRxWarning | CtrlTxPassive, 0, 0},
	}
	be, err := f.DecodeBusError()
	require.NoError(t, err)
	assert.Equal(t, ErrClassLostArbitration|ErrClassController, be.Class)
	assert.Equal(t, uint8(11), be.LostArbitrationBit)
	assert.Equal(t, CtrlRxWarning|CtrlTxPassive, be.Controller)
	assert.Equal(t, "lost-arbitration,controller", be.String())
}

func TestDecodeBusErrorRejectsDataFrame(t *testing.T) {
	f := Frame{ID: 0x123, Length: 8}
	_, err := f.DecodeBusError()
	assert.ErrorIs(t, err, ErrNotErrorFrame)
}

func TestBusErrorStringEmpty(t *testing.T) {
	assert.Equal(t, "none", BusError{}.String())
}
