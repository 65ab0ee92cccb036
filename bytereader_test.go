package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteReaderReadsLittleAndBigEndian(t *testing.T) {
	r := newByteReader([]byte{0x01, 0x02, 0x03, 0x04})
	v, err := r.readU32LE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), v)

	r = newByteReader([]byte{0x01, 0x02, 0x03, 0x04})
	v, err = r.readU32BE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), v)
}

func TestByteReaderTruncatedReadsReturnTruncatedKind(t *testing.T) {
	r := newByteReader([]byte{0x01, 0x02})
	_, err := r.readU32LE()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTruncated))
}

func TestByteReaderSkipAndPeek(t *testing.T) {
	r := newByteReader([]byte{0xAA, 0xBB, 0xCC})
	b, err := r.peekU8()
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), b)
	require.NoError(t, r.skip(1))
	assert.Equal(t, 1, r.position())
	assert.Equal(t, 2, r.remaining())
}

func TestByteReaderReadSliceNeverPanicsOnOverrun(t *testing.T) {
	r := newByteReader([]byte{0x01})
	_, err := r.readSlice(10)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTruncated))
}
