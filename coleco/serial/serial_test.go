package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(0)
	w.Push8(0xAB)
	w.Push16(0x1234)
	w.Push32(0xDEADBEEF)
	w.PushBool(true)
	w.PushBool(false)
	w.PushBytes([]byte{1, 2, 3, 4})

	buf := w.Bytes()
	require.Equal(t, 1+2+4+1+1+4, len(buf))

	r := NewReader(buf)
	assert.Equal(t, uint8(0xAB), r.Pop8())
	assert.Equal(t, uint16(0x1234), r.Pop16())
	assert.Equal(t, uint32(0xDEADBEEF), r.Pop32())
	assert.True(t, r.PopBool())
	assert.False(t, r.PopBool())
	assert.Equal(t, []byte{1, 2, 3, 4}, r.PopBytes(4))
	assert.Equal(t, 0, r.Remaining())
}

func TestLittleEndianByteOrder(t *testing.T) {
	w := NewWriter(0)
	w.Push16(0x1234)
	w.Push32(0xAABBCCDD)

	buf := w.Bytes()
	assert.Equal(t, []byte{0x34, 0x12}, buf[0:2])
	assert.Equal(t, []byte{0xDD, 0xCC, 0xBB, 0xAA}, buf[2:6])
}

func TestCheckSize(t *testing.T) {
	assert.NoError(t, CheckSize(make([]byte, 10), 10))
	assert.Error(t, CheckSize(make([]byte, 9), 10))
}
