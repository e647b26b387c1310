package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_WriteReadRoundTrip_AllFieldKinds(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(8))

	frag := r.BeginMessage(1, 6, 10) // level, price, symbol, exp, mantissa, note
	frag.WriteInt(7, false)
	frag.WriteLong(-100, false)
	require.NoError(t, frag.AppendBytes([]byte("AAPL"), false))
	frag.WriteDecimal(-2, 12345, false)
	require.NoError(t, frag.AppendBytes(nil, true))
	require.NoError(t, frag.Publish())

	_, cur, err := r.TryReadMessage(6, 10)
	require.NoError(t, err)

	level, isNull, err := cur.ReadInt()
	require.NoError(t, err)
	assert.False(t, isNull)
	assert.Equal(t, int32(7), level)

	price, isNull, err := cur.ReadLong()
	require.NoError(t, err)
	assert.False(t, isNull)
	assert.Equal(t, int64(-100), price)

	symbol, isNull, err := cur.ReadBytes()
	require.NoError(t, err)
	assert.False(t, isNull)
	assert.Equal(t, []byte("AAPL"), symbol)

	exp, mantissa, isNull, err := cur.ReadDecimal()
	require.NoError(t, err)
	assert.False(t, isNull)
	assert.Equal(t, int32(-2), exp)
	assert.Equal(t, int64(12345), mantissa)

	note, isNull, err := cur.ReadBytes()
	require.NoError(t, err)
	assert.True(t, isNull)
	assert.Nil(t, note)
}

func TestCursor_WriteDecimal_NullExponentForcesNullMantissa(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(6))

	frag := r.BeginMessage(1, 2, 3)
	frag.WriteDecimal(0, 0, true)
	require.NoError(t, frag.Publish())

	_, cur, err := r.TryReadMessage(2, 3)
	require.NoError(t, err)

	_, _, isNull, err := cur.ReadDecimal()
	require.NoError(t, err)
	assert.True(t, isNull)
}

func TestCursor_ReadPastFieldCountErrors(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(6))

	frag := r.BeginMessage(1, 1, 1)
	frag.WriteInt(1, false)
	require.NoError(t, frag.Publish())

	_, cur, err := r.TryReadMessage(1, 1)
	require.NoError(t, err)

	_, _, err = cur.ReadInt()
	require.NoError(t, err)

	_, _, err = cur.ReadInt()
	assert.Error(t, err, "reading past the declared field count must fail rather than read garbage")
}
