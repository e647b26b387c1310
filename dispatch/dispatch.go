package dispatch

import (
	"fmt"

	"github.com/fastcodec/fast/dict"
	"github.com/fastcodec/fast/token"
	"github.com/fastcodec/fast/varint"
)

// baseType values are token.Kind's own constants, used directly as the
// high bits of the dispatch index. intOpsTable only ever populates the
// Int32/Int64 rows and strOpsTable only the three string-kind rows; each
// table simply leaves the other kinds' rows zero.
const (
	intBaseInt32 = int(token.KindInt32)
	intBaseInt64 = int(token.KindInt64)

	strBaseAsciiText   = int(token.KindAsciiText)
	strBaseUnicodeText = int(token.KindUnicodeText)
	strBaseByteVector  = int(token.KindByteVector)
)

// operator indices, named to match token.Operator without importing its
// type into the index arithmetic (the table is plain int-indexed).
const (
	opNone      = int(token.OpNone)
	opConstant  = int(token.OpConstant)
	opDefault   = int(token.OpDefault)
	opCopy      = int(token.OpCopy)
	opIncrement = int(token.OpIncrement)
	opDelta     = int(token.OpDelta)
	opTail      = int(token.OpTail)
)

// dispatchTableSize bounds dispatchIndex's output: baseType needs 4 bits
// (token.Kind never exceeds 15), operator 4 bits (token.Operator never
// exceeds 15), plus 1 bit for optional.
const dispatchTableSize = 1 << 9

// dispatchIndex packs (baseType, operator, optional) into the table index
// every intOpsTable/strOpsTable row lives at, the engine's single dense
// dispatch table shape instead of a map keyed by operator alone.
func dispatchIndex(baseType, operator int, optional bool) int {
	idx := (baseType<<4 | operator) << 1
	if optional {
		idx |= 1
	}

	return idx
}

func tokenDispatchIndex(tok token.Token) int {
	return dispatchIndex(int(tok.Kind), int(tok.Operator), tok.Optional)
}

// DecodeInt decodes an Int32/Int64 field per tok's operator, reading from
// dec when the operator's wire shape requires it and from/to store's
// dictionary slot named by tok.Instance otherwise. pmapBit is the bit
// already popped from the current PMap frame by the caller when
// token.ConsumesPMapBit(tok.Operator) is true; its value is ignored
// otherwise. defaultValue/defaultIsNull come from the catalog's per-field
// default table (only meaningful for OpConstant/OpDefault).
func DecodeInt(tok token.Token, store *dict.Store, dec *varint.Decoder, pmapBit bool, defaultValue int64, defaultIsNull bool) (int64, bool, error) {
	entry := intOpsTable[tokenDispatchIndex(tok)]
	if entry.decode == nil {
		return 0, false, fmt.Errorf("dispatch: no int decode entry for operator %s", tok.Operator)
	}

	ctx := &IntFieldCtx{
		DefaultValue:  defaultValue,
		DefaultIsNull: defaultIsNull,
		Dec:           dec,
		PMapBit:       pmapBit,
	}

	return entry.decode(ctx, intSlotFor(tok, store))
}

// EncodeInt is DecodeInt's encode-direction counterpart. It returns the
// PMap bit the caller should set for this field when
// token.ConsumesPMapBit(tok.Operator) is true.
func EncodeInt(tok token.Token, store *dict.Store, enc *varint.Encoder, value int64, isNull bool, defaultValue int64, defaultIsNull bool) (bool, error) {
	entry := intOpsTable[tokenDispatchIndex(tok)]
	if entry.encode == nil {
		return false, fmt.Errorf("dispatch: no int encode entry for operator %s", tok.Operator)
	}

	ctx := &IntFieldCtx{
		DefaultValue:  defaultValue,
		DefaultIsNull: defaultIsNull,
		Enc:           enc,
		Value:         value,
		IsNull:        isNull,
	}

	return entry.encode(ctx, intSlotFor(tok, store))
}

// DecodeStr is DecodeInt for AsciiText/UnicodeText/ByteVector fields.
func DecodeStr(tok token.Token, store *dict.Store, dec *varint.Decoder, pmapBit bool, defaultValue []byte, defaultIsNull bool) ([]byte, bool, error) {
	entry := strOpsTable[tokenDispatchIndex(tok)]
	if entry.decode == nil {
		return nil, false, fmt.Errorf("dispatch: no string decode entry for operator %s", tok.Operator)
	}

	ctx := &StrFieldCtx{
		DefaultValue:  defaultValue,
		DefaultIsNull: defaultIsNull,
		Dec:           dec,
		PMapBit:       pmapBit,
	}

	return entry.decode(ctx, strSlot{store: store, slot: int(tok.Instance)})
}

// EncodeStr is EncodeInt for AsciiText/UnicodeText/ByteVector fields.
func EncodeStr(tok token.Token, store *dict.Store, enc *varint.Encoder, value []byte, isNull bool, defaultValue []byte, defaultIsNull bool) (bool, error) {
	entry := strOpsTable[tokenDispatchIndex(tok)]
	if entry.encode == nil {
		return false, fmt.Errorf("dispatch: no string encode entry for operator %s", tok.Operator)
	}

	ctx := &StrFieldCtx{
		DefaultValue:  defaultValue,
		DefaultIsNull: defaultIsNull,
		Enc:           enc,
		Value:         value,
		IsNull:        isNull,
	}

	return entry.encode(ctx, strSlot{store: store, slot: int(tok.Instance)})
}

func intSlotFor(tok token.Token, store *dict.Store) intSlot {
	if tok.Kind == token.KindInt64 {
		return int64Slot{store: store, slot: int(tok.Instance)}
	}

	return int32Slot{store: store, slot: int(tok.Instance)}
}
