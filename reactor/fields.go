package reactor

import (
	"github.com/fastcodec/fast/dispatch"
	"github.com/fastcodec/fast/token"
)

// decodeLengthField decodes a GroupLength token the same way a mandatory
// Int32 field decodes. The catalog compiles it as a KindGroupLength token
// (operator None, per catalog.Load's sequence handling), which has no
// dispatch entry of its own, so it is dispatched as an Int32 token.
func (r *Reactor) decodeLengthField(tok token.Token) (int64, bool, error) {
	bit := false
	if token.ConsumesPMapBit(tok.Operator) {
		var err error
		bit, err = r.dec.PopBit()
		if err != nil {
			return 0, false, err
		}
	}

	lenTok := tok
	lenTok.Kind = token.KindInt32

	return dispatch.DecodeInt(lenTok, r.store, r.dec, bit, 0, true)
}

func (r *Reactor) intDefault(tok token.Token) (int64, bool) {
	slot := int(tok.Instance)

	if tok.Kind == token.KindInt64 {
		if slot < len(r.cat.Int64Default) && r.cat.Int64HasDefault[slot] {
			return r.cat.Int64Default[slot], false
		}

		return 0, true
	}

	if slot < len(r.cat.Int32Default) && r.cat.Int32HasDefault[slot] {
		return int64(r.cat.Int32Default[slot]), false
	}

	return 0, true
}

func (r *Reactor) strDefault(tok token.Token) ([]byte, bool) {
	slot := int(tok.Instance)
	if slot < len(r.cat.StrDefault) && r.cat.StrHasDefault[slot] {
		return r.cat.StrDefault[slot], false
	}

	return nil, true
}

// writeIntSlot writes a decoded int value into the active fragment's next
// slot at tok's width (Int32 or Int64), the ring-layer mirror of tok's own
// FragmentSize.
func (r *Reactor) writeIntSlot(tok token.Token, value int64, isNull bool) {
	if tok.Kind == token.KindInt64 {
		r.activeFrag().WriteLong(value, isNull)
		return
	}

	r.activeFrag().WriteInt(int32(value), isNull)
}

// execIntField decodes one Int32/Int64 script token (including the
// two-token decimal exponent+mantissa pair) and writes its value into the
// active fragment. A null exponent still reserves the mantissa's slot (as
// a null) so every instance of this scope has the same fragment layout,
// even though the wire itself omits the mantissa token entirely.
func (r *Reactor) execIntField(tok token.Token) error {
	bit := false
	if token.ConsumesPMapBit(tok.Operator) {
		var err error
		bit, err = r.dec.PopBit()
		if err != nil {
			return err
		}
	}

	defVal, defNull := r.intDefault(tok)

	value, isNull, err := dispatch.DecodeInt(tok, r.store, r.dec, bit, defVal, defNull)
	if err != nil {
		return err
	}

	r.writeIntSlot(tok, value, isNull)

	if tok.IsDecimalExponent() {
		r.cursor++ // advance past the exponent token

		if isNull {
			r.activeFrag().WriteLong(0, true) // reserve the mantissa's slot
			r.cursor++                        // skip the mantissa token entirely per the decimal null rule
			return nil
		}

		mantissaTok := token.Unpack(r.cat.Script[r.cursor])

		return r.execIntField(mantissaTok)
	}

	r.cursor++

	return nil
}

// execStrField decodes one AsciiText/UnicodeText/ByteVector script token
// and writes its value into the active fragment's variable-length area.
func (r *Reactor) execStrField(tok token.Token) error {
	bit := false
	if token.ConsumesPMapBit(tok.Operator) {
		var err error
		bit, err = r.dec.PopBit()
		if err != nil {
			return err
		}
	}

	defVal, defNull := r.strDefault(tok)

	value, isNull, err := dispatch.DecodeStr(tok, r.store, r.dec, bit, defVal, defNull)
	if err != nil {
		return err
	}

	if err := r.activeFrag().AppendBytes(value, isNull); err != nil {
		return err
	}

	r.cursor++

	return nil
}
