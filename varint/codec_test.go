package varint

import (
	"io"
	"testing"

	"github.com/fastcodec/fast/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTripUnsigned encodes v then decodes it back, asserting identity.
// This mirrors the engine's testable property 7 (varint idempotence).
func roundTripUnsigned(t *testing.T, v uint64) {
	t.Helper()

	enc := NewEncoder(NewSliceSink())
	enc.WriteUvarint(v)
	require.NoError(t, enc.Flush())

	sink := enc.sink.(*SliceSink)
	dec := NewDecoder(NewSliceSource(sink.Data))

	got, err := dec.ReadUvarint()
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func roundTripSigned(t *testing.T, v int64) {
	t.Helper()

	enc := NewEncoder(NewSliceSink())
	enc.WriteVarint(v)
	require.NoError(t, enc.Flush())

	sink := enc.sink.(*SliceSink)
	dec := NewDecoder(NewSliceSource(sink.Data))

	got, err := dec.ReadVarint()
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestVarint_UnsignedRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 63, 64, 127, 128, 16383, 16384,
		1 << 20, 1<<35 + 7, 1<<63 - 1, ^uint64(0),
	}

	for _, v := range values {
		roundTripUnsigned(t, v)
	}
}

func TestVarint_SignedRoundTrip(t *testing.T) {
	values := []int64{
		0, 1, -1, 63, -63, 64, -64, 8191, -8192,
		1 << 40, -(1 << 40), 9223372036854775807, -9223372036854775808,
	}

	for _, v := range values {
		roundTripSigned(t, v)
	}
}

func TestVarint_ZeroEncodesOneByte(t *testing.T) {
	enc := NewEncoder(NewSliceSink())
	enc.WriteUvarint(0)
	require.NoError(t, enc.Flush())

	sink := enc.sink.(*SliceSink)
	assert.Equal(t, []byte{0x80}, sink.Data)
}

func TestVarint_LargeValueUsesAtMostTenBytes(t *testing.T) {
	enc := NewEncoder(NewSliceSink())
	enc.WriteUvarint(^uint64(0))
	require.NoError(t, enc.Flush())

	sink := enc.sink.(*SliceSink)
	assert.LessOrEqual(t, len(sink.Data), maxVarintBytes)
}

func TestVarint_TruncatedStreamIsUnexpectedEOF(t *testing.T) {
	// A byte with the stop bit clear, followed by nothing: the varint
	// never terminates.
	dec := NewDecoder(NewSliceSource([]byte{0x01}))

	_, err := dec.ReadUvarint()
	assert.ErrorIs(t, err, errs.ErrUnexpectedEOF)
}

func TestVarint_CleanEOFBeforeAnyByte(t *testing.T) {
	dec := NewDecoder(NewSliceSource(nil))

	_, err := dec.ReadUvarint()
	assert.ErrorIs(t, err, io.EOF)
}

// blockingSource returns ErrWouldBlock for its first N Read calls, then
// serves the remaining bytes.
type blockingSource struct {
	data       []byte
	pos        int
	blocksLeft int
}

func (s *blockingSource) Read(p []byte) (int, error) {
	if s.blocksLeft > 0 {
		s.blocksLeft--
		return 0, errs.ErrWouldBlock
	}
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}

	n := copy(p, s.data[s.pos:])
	s.pos += n

	return n, nil
}

func TestVarint_Decode_ResumesAcrossWouldBlock(t *testing.T) {
	enc := NewEncoder(NewSliceSink())
	enc.WriteUvarint(123456789)
	require.NoError(t, enc.Flush())
	wire := enc.sink.(*SliceSink).Data

	src := &blockingSource{data: wire, blocksLeft: 2}
	dec := NewDecoder(src)

	_, err := dec.ReadUvarint()
	require.ErrorIs(t, err, errs.ErrWouldBlock)

	_, err = dec.ReadUvarint()
	require.ErrorIs(t, err, errs.ErrWouldBlock)

	v, err := dec.ReadUvarint()
	require.NoError(t, err)
	assert.Equal(t, uint64(123456789), v)
}

func TestPMap_RoundTrip(t *testing.T) {
	enc := NewEncoder(NewSliceSink())
	enc.OpenPMap()
	bits := []bool{true, false, true, true, false, false, false, true, true}
	for _, b := range bits {
		require.NoError(t, enc.SetBit(b))
	}
	require.NoError(t, enc.ClosePMap())
	require.NoError(t, enc.Flush())

	wire := enc.sink.(*SliceSink).Data
	dec := NewDecoder(NewSliceSource(wire))
	require.NoError(t, dec.OpenPMap(len(bits)))

	for _, want := range bits {
		got, err := dec.PopBit()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	require.NoError(t, dec.ClosePMap())
}

func TestPMap_TrailingOmittedBitsReadAsZero(t *testing.T) {
	enc := NewEncoder(NewSliceSink())
	enc.OpenPMap()
	require.NoError(t, enc.SetBit(true))
	require.NoError(t, enc.ClosePMap())
	require.NoError(t, enc.Flush())

	wire := enc.sink.(*SliceSink).Data
	dec := NewDecoder(NewSliceSource(wire))
	// Catalog says this group's PMap has 10 bits, but the sender trimmed
	// trailing zero bytes: the decoder must treat the missing bits as 0.
	require.NoError(t, dec.OpenPMap(10))

	first, err := dec.PopBit()
	require.NoError(t, err)
	assert.True(t, first)

	for i := 0; i < 9; i++ {
		bit, err := dec.PopBit()
		require.NoError(t, err)
		assert.False(t, bit)
	}
}

func TestPMap_NestedFrames(t *testing.T) {
	enc := NewEncoder(NewSliceSink())
	enc.OpenPMap()
	require.NoError(t, enc.SetBit(true))
	require.NoError(t, enc.ClosePMap())
	enc.OpenPMap()
	require.NoError(t, enc.SetBit(false))
	require.NoError(t, enc.SetBit(true))
	require.NoError(t, enc.ClosePMap())
	require.NoError(t, enc.Flush())

	wire := enc.sink.(*SliceSink).Data
	dec := NewDecoder(NewSliceSource(wire))

	require.NoError(t, dec.OpenPMap(1))
	outerBit, err := dec.PopBit()
	require.NoError(t, err)
	assert.True(t, outerBit)
	require.NoError(t, dec.ClosePMap())

	require.NoError(t, dec.OpenPMap(2))
	b0, err := dec.PopBit()
	require.NoError(t, err)
	assert.False(t, b0)
	b1, err := dec.PopBit()
	require.NoError(t, err)
	assert.True(t, b1)
	require.NoError(t, dec.ClosePMap())
}

func TestPMap_PopWithoutOpenErrors(t *testing.T) {
	dec := NewDecoder(NewSliceSource(nil))
	_, err := dec.PopBit()
	assert.Error(t, err)
}

func TestPMap_OverflowingFrameErrorsInsteadOfTruncating(t *testing.T) {
	enc := NewEncoder(NewSliceSink())
	enc.OpenPMap()
	for i := 0; i < 9; i++ {
		require.NoError(t, enc.SetBit(true))
	}
	require.NoError(t, enc.ClosePMap())
	require.NoError(t, enc.Flush())

	wire := enc.sink.(*SliceSink).Data
	dec := NewDecoder(NewSliceSource(wire))
	// The catalog says this scope's pmap is only 1 bit wide, but the wire
	// carries 9: a sender exceeding the compiled layout is a protocol
	// violation, not something to silently clip down to size.
	err := dec.OpenPMap(1)
	assert.ErrorIs(t, err, errs.ErrProtocolViolation)
}
