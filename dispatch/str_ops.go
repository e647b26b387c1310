package dispatch

import (
	"github.com/fastcodec/fast/dict"
	"github.com/fastcodec/fast/errs"
	"github.com/fastcodec/fast/varint"
)

// StrFieldCtx is IntFieldCtx's counterpart for AsciiText/UnicodeText/
// ByteVector fields.
type StrFieldCtx struct {
	DefaultValue  []byte
	DefaultIsNull bool

	Dec     *varint.Decoder
	PMapBit bool

	Enc    *varint.Encoder
	Value  []byte
	IsNull bool
}

// Each function below is already specialized for a fixed optional/
// mandatory shape, matching intDecodeFunc/intEncodeFunc's convention: the
// table index picks the variant, so none of them branch on an Optional
// flag at runtime.
type strDecodeFunc func(ctx *StrFieldCtx, slot strSlot) (value []byte, isNull bool, err error)
type strEncodeFunc func(ctx *StrFieldCtx, slot strSlot) (pmapBit bool, err error)

// readAsciiRun reads a stop-bit terminated character run: every byte's low
// 7 bits is one character, high bit marks the last byte. A lone first
// byte whose low 7 bits are zero represents the empty string rather than
// a one-character string holding NUL, per FAST's ascii encoding rule.
func readAsciiRun(dec *varint.Decoder) ([]byte, error) {
	var out []byte
	first := true

	for {
		b, err := dec.ReadByteForText()
		if err != nil {
			return nil, err
		}

		last := b&0x80 != 0
		data := b & 0x7F

		if last {
			if !(first && data == 0) {
				out = append(out, data)
			}
			break
		}

		out = append(out, data)
		first = false
	}

	return out, nil
}

// writeAsciiRun is readAsciiRun's inverse.
func writeAsciiRun(enc *varint.Encoder, data []byte) {
	if len(data) == 0 {
		enc.WriteRawByte(0x80)
		return
	}

	for i, c := range data {
		b := c & 0x7F
		if i == len(data)-1 {
			b |= 0x80
		}
		enc.WriteRawByte(b)
	}
}

func strDecodeNoneMandatory(ctx *StrFieldCtx, _ strSlot) ([]byte, bool, error) {
	run, err := readAsciiRun(ctx.Dec)
	if err != nil {
		return nil, false, err
	}

	return run, false, nil
}

func strDecodeNoneOptional(ctx *StrFieldCtx, _ strSlot) ([]byte, bool, error) {
	run, err := readAsciiRun(ctx.Dec)
	if err != nil {
		return nil, false, err
	}

	if len(run) == 0 {
		return nil, true, nil
	}

	return run, false, nil
}

func strEncodeNoneMandatory(ctx *StrFieldCtx, _ strSlot) (bool, error) {
	writeAsciiRun(ctx.Enc, ctx.Value)
	return false, nil
}

func strEncodeNoneOptional(ctx *StrFieldCtx, _ strSlot) (bool, error) {
	if ctx.IsNull {
		writeAsciiRun(ctx.Enc, nil)
		return false, nil
	}

	writeAsciiRun(ctx.Enc, ctx.Value)

	return false, nil
}

func strDecodeConstantMandatory(ctx *StrFieldCtx, _ strSlot) ([]byte, bool, error) {
	return ctx.DefaultValue, false, nil
}

func strDecodeConstantOptional(ctx *StrFieldCtx, _ strSlot) ([]byte, bool, error) {
	if !ctx.PMapBit {
		return nil, true, nil
	}

	return ctx.DefaultValue, false, nil
}

func strEncodeConstantMandatory(_ *StrFieldCtx, _ strSlot) (bool, error) {
	return true, nil
}

func strEncodeConstantOptional(ctx *StrFieldCtx, _ strSlot) (bool, error) {
	if ctx.IsNull {
		return false, nil
	}

	return true, nil
}

func strDecodeDefaultMandatory(ctx *StrFieldCtx, _ strSlot) ([]byte, bool, error) {
	if !ctx.PMapBit {
		return ctx.DefaultValue, false, nil
	}

	run, err := readAsciiRun(ctx.Dec)
	if err != nil {
		return nil, false, err
	}

	return run, false, nil
}

func strDecodeDefaultOptional(ctx *StrFieldCtx, _ strSlot) ([]byte, bool, error) {
	if !ctx.PMapBit {
		if ctx.DefaultIsNull {
			return nil, true, nil
		}
		return ctx.DefaultValue, false, nil
	}

	run, err := readAsciiRun(ctx.Dec)
	if err != nil {
		return nil, false, err
	}
	if len(run) == 0 {
		return nil, true, nil
	}

	return run, false, nil
}

func strEncodeDefaultMandatory(ctx *StrFieldCtx, _ strSlot) (bool, error) {
	if !ctx.DefaultIsNull && string(ctx.Value) == string(ctx.DefaultValue) {
		return false, nil
	}

	writeAsciiRun(ctx.Enc, ctx.Value)

	return true, nil
}

func strEncodeDefaultOptional(ctx *StrFieldCtx, _ strSlot) (bool, error) {
	if !ctx.IsNull && !ctx.DefaultIsNull && string(ctx.Value) == string(ctx.DefaultValue) {
		return false, nil
	}
	if ctx.IsNull && ctx.DefaultIsNull {
		return false, nil
	}

	if ctx.IsNull {
		writeAsciiRun(ctx.Enc, nil)
	} else {
		writeAsciiRun(ctx.Enc, ctx.Value)
	}

	return true, nil
}

func strDecodeCopyMandatory(ctx *StrFieldCtx, slot strSlot) ([]byte, bool, error) {
	if ctx.PMapBit {
		run, err := readAsciiRun(ctx.Dec)
		if err != nil {
			return nil, false, err
		}

		slot.Set(run)

		return run, false, nil
	}

	prev, presence := slot.Get()
	switch presence {
	case dict.Assigned:
		return prev, false, nil
	case dict.NullKnown:
		return nil, false, errs.NewDecodeError(errs.ErrProtocolViolation, 0, 0, 0, "copy of mandatory string field found dictionary null")
	default:
		return nil, false, errs.NewDecodeError(errs.ErrProtocolViolation, 0, 0, 0, "copy of mandatory string field found undefined dictionary entry")
	}
}

func strDecodeCopyOptional(ctx *StrFieldCtx, slot strSlot) ([]byte, bool, error) {
	if ctx.PMapBit {
		run, err := readAsciiRun(ctx.Dec)
		if err != nil {
			return nil, false, err
		}

		if len(run) == 0 {
			slot.SetNull()
			return nil, true, nil
		}

		slot.Set(run)

		return run, false, nil
	}

	prev, presence := slot.Get()
	switch presence {
	case dict.Assigned:
		return prev, false, nil
	default:
		return nil, true, nil
	}
}

func strEncodeCopyMandatory(ctx *StrFieldCtx, slot strSlot) (bool, error) {
	prev, presence := slot.Get()
	if presence == dict.Assigned && string(prev) == string(ctx.Value) {
		return false, nil
	}

	slot.Set(ctx.Value)
	writeAsciiRun(ctx.Enc, ctx.Value)

	return true, nil
}

func strEncodeCopyOptional(ctx *StrFieldCtx, slot strSlot) (bool, error) {
	prev, presence := slot.Get()

	unchanged := (presence == dict.Assigned && !ctx.IsNull && string(prev) == string(ctx.Value)) ||
		(presence == dict.NullKnown && ctx.IsNull)
	if unchanged {
		return false, nil
	}

	if ctx.IsNull {
		slot.SetNull()
		writeAsciiRun(ctx.Enc, nil)
	} else {
		slot.Set(ctx.Value)
		writeAsciiRun(ctx.Enc, ctx.Value)
	}

	return true, nil
}

// Tail preserves a prefix of the dictionary value and transmits only the
// differing suffix, alongside a varint byte-count of how much of the old
// value's prefix to keep. Real FAST restricts Tail to ascii/unicode/byte
// vector fields, never integers, so only str_ops.go implements it.
func strDecodeTailMandatory(ctx *StrFieldCtx, slot strSlot) ([]byte, bool, error) {
	if !ctx.PMapBit {
		prev, presence := slot.Get()
		switch presence {
		case dict.Assigned:
			return prev, false, nil
		case dict.NullKnown:
			return nil, false, errs.NewDecodeError(errs.ErrProtocolViolation, 0, 0, 0, "tail of mandatory field found dictionary null")
		default:
			return nil, false, errs.NewDecodeError(errs.ErrProtocolViolation, 0, 0, 0, "tail of mandatory field found undefined dictionary entry")
		}
	}

	prefixLen, err := ctx.Dec.ReadUvarint()
	if err != nil {
		return nil, false, err
	}

	suffix, err := readAsciiRun(ctx.Dec)
	if err != nil {
		return nil, false, err
	}

	slot.SetTail(suffix, int(prefixLen))
	v, _ := slot.Get()

	return v, false, nil
}

func strDecodeTailOptional(ctx *StrFieldCtx, slot strSlot) ([]byte, bool, error) {
	if !ctx.PMapBit {
		prev, presence := slot.Get()
		switch presence {
		case dict.Assigned:
			return prev, false, nil
		default:
			return nil, true, nil
		}
	}

	prefixLen, err := ctx.Dec.ReadUvarint()
	if err != nil {
		return nil, false, err
	}

	suffix, err := readAsciiRun(ctx.Dec)
	if err != nil {
		return nil, false, err
	}

	if len(suffix) == 0 && prefixLen == 0 {
		slot.SetNull()
		return nil, true, nil
	}

	slot.SetTail(suffix, int(prefixLen))
	v, _ := slot.Get()

	return v, false, nil
}

func strEncodeTailMandatory(ctx *StrFieldCtx, slot strSlot) (bool, error) {
	prev, presence := slot.Get()
	if presence == dict.Assigned && string(prev) == string(ctx.Value) {
		return false, nil
	}

	commonPrefix := 0
	if presence == dict.Assigned {
		commonPrefix = commonPrefixLen(prev, ctx.Value)
	}

	ctx.Enc.WriteUvarint(uint64(commonPrefix))
	writeAsciiRun(ctx.Enc, ctx.Value[commonPrefix:])

	slot.SetTail(ctx.Value[commonPrefix:], commonPrefix)

	return true, nil
}

func strEncodeTailOptional(ctx *StrFieldCtx, slot strSlot) (bool, error) {
	prev, presence := slot.Get()

	unchanged := (presence == dict.Assigned && !ctx.IsNull && string(prev) == string(ctx.Value)) ||
		(presence == dict.NullKnown && ctx.IsNull)
	if unchanged {
		return false, nil
	}

	if ctx.IsNull {
		slot.SetNull()
		ctx.Enc.WriteUvarint(0)
		writeAsciiRun(ctx.Enc, nil)
		return true, nil
	}

	commonPrefix := 0
	if presence == dict.Assigned {
		commonPrefix = commonPrefixLen(prev, ctx.Value)
	}

	ctx.Enc.WriteUvarint(uint64(commonPrefix))
	writeAsciiRun(ctx.Enc, ctx.Value[commonPrefix:])

	slot.SetTail(ctx.Value[commonPrefix:], commonPrefix)

	return true, nil
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	i := 0
	for i < n && a[i] == b[i] {
		i++
	}

	return i
}

type strOpsEntry struct {
	decode strDecodeFunc
	encode strEncodeFunc
}

// strOpsTable is intOpsTable's str_ops.go counterpart: same dense
// (baseType<<4|operator)<<1|optional indexing, populated once for each of
// the three string kinds since their wire shape doesn't differ by kind,
// only by operator and optionality.
var strOpsTable = buildStrOpsTable()

func buildStrOpsTable() [dispatchTableSize]strOpsEntry {
	var t [dispatchTableSize]strOpsEntry

	for _, baseType := range []int{strBaseAsciiText, strBaseUnicodeText, strBaseByteVector} {
		set := func(op int, mandatory, optional strOpsEntry) {
			t[dispatchIndex(baseType, op, false)] = mandatory
			t[dispatchIndex(baseType, op, true)] = optional
		}

		set(opNone,
			strOpsEntry{strDecodeNoneMandatory, strEncodeNoneMandatory},
			strOpsEntry{strDecodeNoneOptional, strEncodeNoneOptional})
		set(opConstant,
			strOpsEntry{strDecodeConstantMandatory, strEncodeConstantMandatory},
			strOpsEntry{strDecodeConstantOptional, strEncodeConstantOptional})
		set(opDefault,
			strOpsEntry{strDecodeDefaultMandatory, strEncodeDefaultMandatory},
			strOpsEntry{strDecodeDefaultOptional, strEncodeDefaultOptional})
		set(opCopy,
			strOpsEntry{strDecodeCopyMandatory, strEncodeCopyMandatory},
			strOpsEntry{strDecodeCopyOptional, strEncodeCopyOptional})
		set(opTail,
			strOpsEntry{strDecodeTailMandatory, strEncodeTailMandatory},
			strOpsEntry{strDecodeTailOptional, strEncodeTailOptional})
	}

	return t
}
