package socketcan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	frames := []Frame{
		{ID: 0x123, Length: 3, Data: [8]byte{0xDE, 0xAD, 0xBE}},
		{ID: 0x7FF, Length: 8, Data: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{ID: 0x1FFFFFFF, Length: 2, Data: [8]byte{0xCA, 0xFE}, IsExtended: true},
		{ID: 0x123, Length: 0, IsRemote: true},
		{ID: ErrClassBusOff, Length: 8, IsError: true},
		{ID: 0x000, Length: 0},
	}
	for _, want := range frames {
		t.Run(want.String(), func(t *testing.T) {
			buf, err := want.Marshal()
			require.NoError(t, err)
			require.Len(t, buf, 16)

			var got Frame
			require.NoError(t, got.Unmarshal(buf))
			assert.Equal(t, want, got)
		})
	}
}

func TestFrameWireLayout(t *testing.T) {
	f := Frame{ID: 0x123, Length: 3, Data: [8]byte{1, 2, 3}}
	buf, err := f.Marshal()
	require.NoError(t, err)
	want := []byte{
		0x23, 0x01, 0x00, 0x00, // id, little-endian
		0x03,             // dlc
		0x00, 0x00, 0x00, // pad
		0x01, 0x02, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	assert.Equal(t, want, buf)
}

func TestFrameMarshalFlags(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		id    uint32
	}{
		{"extended", Frame{ID: 0x123, IsExtended: true}, 0x123 | CAN_EFF_FLAG},
		{"remote", Frame{ID: 0x123, IsRemote: true}, 0x123 | CAN_RTR_FLAG},
		{"error", Frame{ID: 0x1, IsError: true}, 0x1 | CAN_ERR_FLAG},
		{"plain", Frame{ID: 0x123}, 0x123},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := tt.frame.Marshal()
			require.NoError(t, err)
			got := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
			assert.Equal(t, tt.id, got)
		})
	}
}

func TestFrameMarshalZeroFillsPastLength(t *testing.T) {
	f := Frame{ID: 0x42, Length: 2, Data: [8]byte{0xAA, 0xBB, 0xCC, 0xDD}}
	buf, err := f.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0, 0, 0, 0, 0, 0}, buf[8:])
}

func TestFrameUnmarshalShortBuffer(t *testing.T) {
	var f Frame
	for n := 0; n < 16; n++ {
		assert.ErrorIs(t, f.Unmarshal(make([]byte, n)), ErrShortRead)
	}
	assert.ErrorIs(t, f.Unmarshal(make([]byte, 17)), ErrShortRead)
}

func TestFrameUnmarshalBadLength(t *testing.T) {
	buf := make([]byte, 16)
	buf[4] = 9
	var f Frame
	assert.ErrorIs(t, f.Unmarshal(buf), ErrInvalidLength)
}

func TestNewFrame(t *testing.T) {
	f, err := NewFrame(0x123, []byte{1, 2, 3}, false, false)
	require.NoError(t, err)
	assert.False(t, f.IsExtended)
	assert.Equal(t, uint8(3), f.Length)
	assert.Equal(t, []byte{1, 2, 3}, f.Payload())

	f, err = NewFrame(0x800, nil, false, false)
	require.NoError(t, err)
	assert.True(t, f.IsExtended, "id above 11 bits should auto-extend")

	_, err = NewFrame(0x123, make([]byte, 9), false, false)
	assert.ErrorIs(t, err, ErrTooMuchData)

	_, err = NewFrame(CAN_EFF_MASK+1, nil, false, false)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestFrameValidate(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  error
	}{
		{"std ok", Frame{ID: 0x7FF}, nil},
		{"std id too big", Frame{ID: 0x800}, ErrInvalidID},
		{"ext ok", Frame{ID: 0x1FFFFFFF, IsExtended: true}, nil},
		{"ext id too big", Frame{ID: 0x20000000, IsExtended: true}, ErrInvalidID},
		{"error frame wide id", Frame{ID: 0x1FFFFFFF, IsError: true}, nil},
		{"too long", Frame{ID: 0x1, Length: 9}, ErrInvalidLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestFrameString(t *testing.T) {
	tests := []struct {
		frame Frame
		want  string
	}{
		{Frame{ID: 0x123, Length: 4, Data: [8]byte{0xDE, 0xAD, 0xBE, 0xEF}}, "123#DEADBEEF"},
		{Frame{ID: 0x1, Length: 0}, "001#"},
		{Frame{ID: 0x1FFFFFFF, Length: 1, Data: [8]byte{0xFF}, IsExtended: true}, "1FFFFFFF#FF"},
		{Frame{ID: 0x456, IsRemote: true}, "456#R"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.frame.String())
	}
}
