package bytesutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0xAA, 0xBB, 'h', 'i', 0x00, 'x'}
	r := NewReader(buf)

	u32, err := r.U32()
	require.NoError(t, err)
	require.EqualValues(t, 0x04030201, u32)

	u16, err := r.U16()
	require.NoError(t, err)
	require.EqualValues(t, 0xBBAA, u16)

	raw, err := r.Bytes(4)
	require.NoError(t, err)
	require.Equal(t, []byte("hi\x00x"), raw)
	require.Equal(t, []byte("hi"), NulTerminated(raw))

	_, err = r.U8()
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestCStringAt(t *testing.T) {
	buf := []byte("\x00\x00hello\x00world\x00")
	s, err := CStringAt(buf, 2)
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	s, err = CStringAt(buf, 8)
	require.NoError(t, err)
	require.Equal(t, "world", s)

	_, err = CStringAt(buf, 100)
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestMacEpoch(t *testing.T) {
	// 2001-01-01T00:00:00Z + 0 seconds
	got := FromMacEpochSeconds(0)
	require.Equal(t, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestFromUnixMillis(t *testing.T) {
	got := FromUnixMillis(1000)
	require.Equal(t, time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC), got)
}
