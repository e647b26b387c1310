package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_PackUnpack_RoundTrip(t *testing.T) {
	tests := []Token{
		{Kind: KindInt32, Operator: OpNone, Optional: false, Instance: 0},
		{Kind: KindInt64, Operator: OpDelta, Optional: true, Instance: 1023},
		{Kind: KindAsciiText, Operator: OpTail, Optional: true, Instance: uint32(MaxInstance)},
		{Kind: KindByteVector, Operator: OpCopy, Optional: false, Instance: 42, Extra: true},
		{Kind: KindGroup, AbsentOverride: true, Optional: true, Instance: 7}, // close, hasPMap
		{Kind: KindGroupLength, Operator: OpIncrement, Instance: 3},
		{Kind: KindDictionary, Instance: 12},
	}

	for _, tok := range tests {
		packed := tok.Pack()
		got := Unpack(packed)
		assert.Equal(t, tok, got, "round trip for %+v", tok)
	}
}

func TestToken_MaxInstanceFitsField(t *testing.T) {
	tok := Token{Kind: KindInt64, Instance: uint32(MaxInstance)}
	packed := tok.Pack()
	got := Unpack(packed)

	require.Equal(t, uint32(MaxInstance), got.Instance)
}

func TestToken_InstanceOverflowIsMasked(t *testing.T) {
	tok := Token{Kind: KindInt32, Instance: uint32(MaxInstance) + 5}
	packed := tok.Pack()
	got := Unpack(packed)

	assert.LessOrEqual(t, got.Instance, uint32(MaxInstance))
}

func TestToken_GroupOpenClose(t *testing.T) {
	open := Token{Kind: KindGroup, AbsentOverride: false, Optional: true}
	close := Token{Kind: KindGroup, AbsentOverride: true, Optional: true}

	assert.True(t, open.IsGroupOpen())
	assert.False(t, open.IsGroupClose())
	assert.True(t, open.HasPMap())

	assert.True(t, close.IsGroupClose())
	assert.False(t, close.IsGroupOpen())
}

func TestToken_DecimalExponentMarker(t *testing.T) {
	exp := Token{Kind: KindInt32, Optional: true, Extra: true}
	mantissa := Token{Kind: KindInt64, Optional: false}

	assert.True(t, exp.IsDecimalExponent())
	assert.False(t, mantissa.IsDecimalExponent())
}

func TestToken_FragmentSize(t *testing.T) {
	cases := []struct {
		tok  Token
		size int
	}{
		{Token{Kind: KindInt32}, 1},
		{Token{Kind: KindInt64}, 2},
		{Token{Kind: KindAsciiText}, 2},
		{Token{Kind: KindGroupLength}, 1},
		{Token{Kind: KindGroup}, 0},
		{Token{Kind: KindDictionary}, 0},
	}

	for _, c := range cases {
		assert.Equal(t, c.size, c.tok.FragmentSize())
	}
}

func TestToken_ScriptTag(t *testing.T) {
	assert.Equal(t, "Int32", Token{Kind: KindInt32, Optional: false}.ScriptTag())
	assert.Equal(t, "Int32Opt", Token{Kind: KindInt32, Optional: true}.ScriptTag())
	assert.Equal(t, "Group", Token{Kind: KindGroup, Optional: true}.ScriptTag())
}

func TestConsumesPMapBit(t *testing.T) {
	assert.False(t, ConsumesPMapBit(OpNone))
	assert.False(t, ConsumesPMapBit(OpDelta))
	assert.True(t, ConsumesPMapBit(OpConstant))
	assert.True(t, ConsumesPMapBit(OpDefault))
	assert.True(t, ConsumesPMapBit(OpCopy))
	assert.True(t, ConsumesPMapBit(OpIncrement))
	assert.True(t, ConsumesPMapBit(OpTail))
}
