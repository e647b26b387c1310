package dispatch

import (
	"github.com/fastcodec/fast/dict"
	"github.com/fastcodec/fast/errs"
	"github.com/fastcodec/fast/varint"
)

// IntFieldCtx carries everything one integer-field operator invocation
// needs, for either direction. Decode-only and encode-only members are
// simply left zero on the direction that doesn't use them.
type IntFieldCtx struct {
	DefaultValue  int64
	DefaultIsNull bool

	// decode
	Dec     *varint.Decoder
	PMapBit bool

	// encode
	Enc    *varint.Encoder
	Value  int64
	IsNull bool
}

// intDecodeFunc decodes one field, returning its value (meaningless if
// isNull), whether it was null, and any error. Each function is already
// specialized for a fixed optional/mandatory shape — the table index picks
// the right one, so no function branches on an Optional flag at runtime.
type intDecodeFunc func(ctx *IntFieldCtx, slot intSlot) (value int64, isNull bool, err error)

// intEncodeFunc encodes one field, returning the PMap bit to set (ignored
// by the caller for operators that never consume one) and any error.
type intEncodeFunc func(ctx *IntFieldCtx, slot intSlot) (pmapBit bool, err error)

// decodeNullableInt reverses the FAST nullable-integer shift: 0 means
// null, a positive transmitted value n decodes to n-1, a negative
// transmitted value decodes unchanged (negative values never collide
// with the null encoding).
func decodeNullableInt(transmitted int64) (value int64, isNull bool) {
	switch {
	case transmitted == 0:
		return 0, true
	case transmitted > 0:
		return transmitted - 1, false
	default:
		return transmitted, false
	}
}

// encodeNullableInt applies the shift decodeNullableInt reverses.
func encodeNullableInt(value int64, isNull bool) int64 {
	if isNull {
		return 0
	}
	if value >= 0 {
		return value + 1
	}
	return value
}

func intDecodeNoneMandatory(ctx *IntFieldCtx, _ intSlot) (int64, bool, error) {
	raw, err := ctx.Dec.ReadVarint()
	if err != nil {
		return 0, false, err
	}

	return raw, false, nil
}

func intDecodeNoneOptional(ctx *IntFieldCtx, _ intSlot) (int64, bool, error) {
	raw, err := ctx.Dec.ReadVarint()
	if err != nil {
		return 0, false, err
	}

	v, isNull := decodeNullableInt(raw)

	return v, isNull, nil
}

func intEncodeNoneMandatory(ctx *IntFieldCtx, _ intSlot) (bool, error) {
	ctx.Enc.WriteVarint(ctx.Value)
	return false, nil
}

func intEncodeNoneOptional(ctx *IntFieldCtx, _ intSlot) (bool, error) {
	ctx.Enc.WriteVarint(encodeNullableInt(ctx.Value, ctx.IsNull))
	return false, nil
}

// intDecodeConstant*/intEncodeConstant*: the value is never transmitted on
// the wire. The PMap bit says whether the field is present in this message
// (meaningful when optional: 0 means absent/null); for mandatory fields the
// bit is always consumed per the engine's uniform per-operator PMap
// accounting but its value carries no information (the encoder always sets
// it).
func intDecodeConstantMandatory(ctx *IntFieldCtx, _ intSlot) (int64, bool, error) {
	return ctx.DefaultValue, false, nil
}

func intDecodeConstantOptional(ctx *IntFieldCtx, _ intSlot) (int64, bool, error) {
	if !ctx.PMapBit {
		return 0, true, nil
	}

	return ctx.DefaultValue, false, nil
}

func intEncodeConstantMandatory(_ *IntFieldCtx, _ intSlot) (bool, error) {
	return true, nil
}

func intEncodeConstantOptional(ctx *IntFieldCtx, _ intSlot) (bool, error) {
	if ctx.IsNull {
		return false, nil
	}

	return true, nil
}

func intDecodeDefaultMandatory(ctx *IntFieldCtx, _ intSlot) (int64, bool, error) {
	if !ctx.PMapBit {
		return ctx.DefaultValue, false, nil
	}

	raw, err := ctx.Dec.ReadVarint()
	if err != nil {
		return 0, false, err
	}

	return raw, false, nil
}

func intDecodeDefaultOptional(ctx *IntFieldCtx, _ intSlot) (int64, bool, error) {
	if !ctx.PMapBit {
		if ctx.DefaultIsNull {
			return 0, true, nil
		}

		return ctx.DefaultValue, false, nil
	}

	raw, err := ctx.Dec.ReadVarint()
	if err != nil {
		return 0, false, err
	}

	v, isNull := decodeNullableInt(raw)

	return v, isNull, nil
}

func intEncodeDefaultMandatory(ctx *IntFieldCtx, _ intSlot) (bool, error) {
	if !ctx.IsNull && ctx.Value == ctx.DefaultValue && !ctx.DefaultIsNull {
		return false, nil
	}

	ctx.Enc.WriteVarint(ctx.Value)

	return true, nil
}

func intEncodeDefaultOptional(ctx *IntFieldCtx, _ intSlot) (bool, error) {
	if !ctx.IsNull && ctx.Value == ctx.DefaultValue && !ctx.DefaultIsNull {
		return false, nil
	}
	if ctx.IsNull && ctx.DefaultIsNull {
		return false, nil
	}

	ctx.Enc.WriteVarint(encodeNullableInt(ctx.Value, ctx.IsNull))

	return true, nil
}

func intDecodeCopyMandatory(ctx *IntFieldCtx, slot intSlot) (int64, bool, error) {
	if ctx.PMapBit {
		raw, err := ctx.Dec.ReadVarint()
		if err != nil {
			return 0, false, err
		}

		slot.Set(raw)

		return raw, false, nil
	}

	prev, presence := slot.Get()
	switch presence {
	case dict.Assigned:
		return prev, false, nil
	case dict.NullKnown:
		return 0, false, errs.NewDecodeError(errs.ErrProtocolViolation, 0, 0, 0, "copy of mandatory field found dictionary null")
	default: // dict.Undefined
		return 0, false, errs.NewDecodeError(errs.ErrProtocolViolation, 0, 0, 0, "copy of mandatory field found undefined dictionary entry")
	}
}

func intDecodeCopyOptional(ctx *IntFieldCtx, slot intSlot) (int64, bool, error) {
	if ctx.PMapBit {
		raw, err := ctx.Dec.ReadVarint()
		if err != nil {
			return 0, false, err
		}

		v, isNull := decodeNullableInt(raw)
		if isNull {
			slot.SetNull()
			return 0, true, nil
		}

		slot.Set(v)

		return v, false, nil
	}

	prev, presence := slot.Get()
	switch presence {
	case dict.Assigned:
		return prev, false, nil
	case dict.NullKnown:
		return 0, true, nil
	default: // dict.Undefined
		return 0, true, nil
	}
}

func intEncodeCopyMandatory(ctx *IntFieldCtx, slot intSlot) (bool, error) {
	prev, presence := slot.Get()
	if presence == dict.Assigned && prev == ctx.Value {
		return false, nil
	}

	slot.Set(ctx.Value)
	ctx.Enc.WriteVarint(ctx.Value)

	return true, nil
}

func intEncodeCopyOptional(ctx *IntFieldCtx, slot intSlot) (bool, error) {
	prev, presence := slot.Get()

	unchanged := (presence == dict.Assigned && !ctx.IsNull && prev == ctx.Value) ||
		(presence == dict.NullKnown && ctx.IsNull)
	if unchanged {
		return false, nil
	}

	if ctx.IsNull {
		slot.SetNull()
	} else {
		slot.Set(ctx.Value)
	}

	ctx.Enc.WriteVarint(encodeNullableInt(ctx.Value, ctx.IsNull))

	return true, nil
}

func intDecodeIncrementMandatory(ctx *IntFieldCtx, slot intSlot) (int64, bool, error) {
	if ctx.PMapBit {
		raw, err := ctx.Dec.ReadVarint()
		if err != nil {
			return 0, false, err
		}

		slot.Set(raw)

		return raw, false, nil
	}

	prev, presence := slot.Get()
	switch presence {
	case dict.Assigned:
		v := prev + 1
		slot.Set(v)
		return v, false, nil
	case dict.NullKnown:
		return 0, false, errs.NewDecodeError(errs.ErrProtocolViolation, 0, 0, 0, "increment of mandatory field found dictionary null")
	default:
		return 0, false, errs.NewDecodeError(errs.ErrProtocolViolation, 0, 0, 0, "increment of mandatory field found undefined dictionary entry")
	}
}

func intDecodeIncrementOptional(ctx *IntFieldCtx, slot intSlot) (int64, bool, error) {
	if ctx.PMapBit {
		raw, err := ctx.Dec.ReadVarint()
		if err != nil {
			return 0, false, err
		}

		v, isNull := decodeNullableInt(raw)
		if isNull {
			slot.SetNull()
			return 0, true, nil
		}

		slot.Set(v)

		return v, false, nil
	}

	prev, presence := slot.Get()
	switch presence {
	case dict.Assigned:
		v := prev + 1
		slot.Set(v)
		return v, false, nil
	case dict.NullKnown:
		return 0, true, nil
	default:
		return 0, true, nil
	}
}

func intEncodeIncrementMandatory(ctx *IntFieldCtx, slot intSlot) (bool, error) {
	prev, presence := slot.Get()

	predicted := presence == dict.Assigned && prev+1 == ctx.Value
	slot.Set(ctx.Value)
	if predicted {
		return false, nil
	}

	ctx.Enc.WriteVarint(ctx.Value)

	return true, nil
}

func intEncodeIncrementOptional(ctx *IntFieldCtx, slot intSlot) (bool, error) {
	prev, presence := slot.Get()

	predicted := (presence == dict.Assigned && !ctx.IsNull && prev+1 == ctx.Value) ||
		(presence == dict.NullKnown && ctx.IsNull)

	if ctx.IsNull {
		slot.SetNull()
	} else {
		slot.Set(ctx.Value)
	}

	if predicted {
		return false, nil
	}

	ctx.Enc.WriteVarint(encodeNullableInt(ctx.Value, ctx.IsNull))

	return true, nil
}

// Delta never consumes a PMap bit: the field is always transmitted, as a
// signed difference from the dictionary's previous value (0 if undefined).
func intDecodeDeltaMandatory(ctx *IntFieldCtx, slot intSlot) (int64, bool, error) {
	raw, err := ctx.Dec.ReadVarint()
	if err != nil {
		return 0, false, err
	}

	base := int64(0)
	if prev, presence := slot.Get(); presence == dict.Assigned {
		base = prev
	}

	v := base + raw
	slot.Set(v)

	return v, false, nil
}

func intDecodeDeltaOptional(ctx *IntFieldCtx, slot intSlot) (int64, bool, error) {
	raw, err := ctx.Dec.ReadVarint()
	if err != nil {
		return 0, false, err
	}

	base := int64(0)
	if prev, presence := slot.Get(); presence == dict.Assigned {
		base = prev
	}

	d, isNull := decodeNullableInt(raw)
	if isNull {
		slot.SetNull()
		return 0, true, nil
	}

	v := base + d
	slot.Set(v)

	return v, false, nil
}

func intEncodeDeltaMandatory(ctx *IntFieldCtx, slot intSlot) (bool, error) {
	base := int64(0)
	if prev, presence := slot.Get(); presence == dict.Assigned {
		base = prev
	}

	delta := ctx.Value - base
	ctx.Enc.WriteVarint(delta)
	slot.Set(ctx.Value)

	return false, nil
}

func intEncodeDeltaOptional(ctx *IntFieldCtx, slot intSlot) (bool, error) {
	if ctx.IsNull {
		ctx.Enc.WriteVarint(encodeNullableInt(0, true))
		slot.SetNull()
		return false, nil
	}

	base := int64(0)
	if prev, presence := slot.Get(); presence == dict.Assigned {
		base = prev
	}

	delta := ctx.Value - base
	ctx.Enc.WriteVarint(encodeNullableInt(delta, false))
	slot.Set(ctx.Value)

	return false, nil
}

type intOpsEntry struct {
	decode intDecodeFunc
	encode intEncodeFunc
}

// intOpsTable is indexed by dispatchIndex(baseType, operator, optional): a
// dense array rather than a map keyed by operator alone, so the table
// itself encodes the optional/mandatory split instead of each function
// branching on an Optional flag at runtime. baseType is token.Kind's own
// value (KindInt32/KindInt64 populate rows here; the string kinds' rows
// are simply unused in this table).
var intOpsTable = buildIntOpsTable()

func buildIntOpsTable() [dispatchTableSize]intOpsEntry {
	var t [dispatchTableSize]intOpsEntry

	for _, baseType := range []int{intBaseInt32, intBaseInt64} {
		set := func(op int, mandatory, optional intOpsEntry) {
			t[dispatchIndex(baseType, op, false)] = mandatory
			t[dispatchIndex(baseType, op, true)] = optional
		}

		set(opNone,
			intOpsEntry{intDecodeNoneMandatory, intEncodeNoneMandatory},
			intOpsEntry{intDecodeNoneOptional, intEncodeNoneOptional})
		set(opConstant,
			intOpsEntry{intDecodeConstantMandatory, intEncodeConstantMandatory},
			intOpsEntry{intDecodeConstantOptional, intEncodeConstantOptional})
		set(opDefault,
			intOpsEntry{intDecodeDefaultMandatory, intEncodeDefaultMandatory},
			intOpsEntry{intDecodeDefaultOptional, intEncodeDefaultOptional})
		set(opCopy,
			intOpsEntry{intDecodeCopyMandatory, intEncodeCopyMandatory},
			intOpsEntry{intDecodeCopyOptional, intEncodeCopyOptional})
		set(opIncrement,
			intOpsEntry{intDecodeIncrementMandatory, intEncodeIncrementMandatory},
			intOpsEntry{intDecodeIncrementOptional, intEncodeIncrementOptional})
		set(opDelta,
			intOpsEntry{intDecodeDeltaMandatory, intEncodeDeltaMandatory},
			intOpsEntry{intDecodeDeltaOptional, intEncodeDeltaOptional})
	}

	return t
}
