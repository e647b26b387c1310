package reactor

import (
	"runtime"

	"github.com/fastcodec/fast/catalog"
	"github.com/fastcodec/fast/dict"
	"github.com/fastcodec/fast/dispatch"
	"github.com/fastcodec/fast/errs"
	"github.com/fastcodec/fast/format"
	"github.com/fastcodec/fast/ring"
	"github.com/fastcodec/fast/token"
	"github.com/fastcodec/fast/varint"
)

// DynamicWriter is Reactor's encode-direction mirror: it walks the same
// catalog script shape, pulling one ring fragment per scope (in the exact
// order Reactor would have published them for the same message) instead
// of reading wire bytes, and writes wire bytes instead of publishing
// fragments.
type DynamicWriter struct {
	cat   *catalog.Catalog
	store *dict.Store
	enc   *varint.Encoder
	in    *ring.Ring

	curTemplate *catalog.Template
	cursor      int
	limit       int
	scopeStack  []scopeFrame
	rootFrag    *ring.Cursor
}

// NewWriter creates a DynamicWriter encoding messages into enc, pulling
// field values from in and tracking dictionary state in store.
func NewWriter(cat *catalog.Catalog, store *dict.Store, enc *varint.Encoder, in *ring.Ring) *DynamicWriter {
	return &DynamicWriter{cat: cat, store: store, enc: enc, in: in}
}

// activeFrag returns the ring.Cursor the writer's current scope pulls its
// fields from: the innermost open group/sequence iteration, or the
// message root if no scope is open.
func (w *DynamicWriter) activeFrag() *ring.Cursor {
	if len(w.scopeStack) == 0 {
		return w.rootFrag
	}

	return w.scopeStack[len(w.scopeStack)-1].frag
}

// writeTemplateID writes templateID's wire varint, applying the
// catalog's TemplateIDMode: in TemplateIDPMapDefault mode, the catalog's
// own DefaultTemplateID is written as the reserved sentinel 0 instead of
// its real id, Reactor.resolveTemplateID's exact mirror.
func (w *DynamicWriter) writeTemplateID(templateID int32) {
	wire := templateID
	if w.cat.TemplateIDMode == format.TemplateIDPMapDefault && templateID == w.cat.DefaultTemplateID {
		wire = 0
	}

	w.enc.WriteUvarint(uint64(wire))
}

// EncodeMessage writes one complete message for templateID, pulling its
// fragments from the ring in script order, then flushes the encoder. It
// returns errs.ErrProtocolViolation wrapped in a *errs.DecodeError if
// templateID is not in the catalog.
func (w *DynamicWriter) EncodeMessage(templateID int32) error {
	tpl, ok := w.cat.TemplateByID(templateID)
	if !ok {
		return errs.NewDecodeError(errs.ErrProtocolViolation, uint32(templateID), 0, 0, "unknown template id")
	}

	w.writeTemplateID(templateID)

	w.store.ApplyReset(tpl.ResetGroup)

	w.curTemplate = tpl
	w.cursor = tpl.ScriptStart
	w.limit = tpl.ScriptLimit
	w.scopeStack = w.scopeStack[:0]

	root, err := w.nextCursor(tpl.MaxFragmentFields, tpl.MaxFragmentWords)
	if err != nil {
		return err
	}
	w.rootFrag = root

	w.enc.OpenPMap()

	for w.cursor < w.limit || len(w.scopeStack) > 0 {
		if w.cursor >= w.limit {
			if err := w.exitScope(); err != nil {
				return err
			}

			continue
		}

		if err := w.execStep(); err != nil {
			return err
		}
	}

	if err := w.enc.ClosePMap(); err != nil {
		return err
	}

	return w.enc.Flush()
}

func (w *DynamicWriter) execStep() error {
	tok := token.Unpack(w.cat.Script[w.cursor])

	switch tok.Kind {
	case token.KindGroupLength:
		return w.enterSequence(tok)
	case token.KindGroup:
		if tok.IsGroupOpen() {
			return w.enterGroup()
		}

		w.cursor++

		return nil
	case token.KindInt32, token.KindInt64:
		return w.writeIntField(tok)
	case token.KindAsciiText, token.KindUnicodeText, token.KindByteVector:
		return w.writeStrField(tok)
	default:
		w.cursor++
		return nil
	}
}

func (w *DynamicWriter) exitScope() error {
	if len(w.scopeStack) == 0 {
		return nil
	}

	top := &w.scopeStack[len(w.scopeStack)-1]

	if err := w.enc.ClosePMap(); err != nil {
		return err
	}

	if top.isSequence {
		top.remaining--
		if top.remaining > 0 {
			w.cursor = top.bodyStart
			w.enc.OpenPMap()

			frag, err := w.nextCursor(top.fieldCount, top.fixedWords)
			if err != nil {
				return err
			}
			top.frag = frag

			return nil
		}
	}

	closeIdx := top.closeIdx
	w.scopeStack = w.scopeStack[:len(w.scopeStack)-1]
	w.cursor = closeIdx + 1
	w.limit = w.currentLimit()

	return nil
}

func (w *DynamicWriter) currentLimit() int {
	if len(w.scopeStack) == 0 {
		return w.curTemplate.ScriptLimit
	}

	return w.scopeStack[len(w.scopeStack)-1].closeIdx
}

func (w *DynamicWriter) enterSequence(lenTok token.Token) error {
	raw, isNull, err := w.activeFrag().ReadInt()
	if err != nil {
		return err
	}

	length := int64(raw)

	if err := w.writeLengthField(lenTok, length, isNull); err != nil {
		return err
	}
	if isNull {
		length = 0
	}

	openIdx := w.cursor + 1
	closeIdx := catalog.MatchGroupClose(w.cat.Script, openIdx)

	if length <= 0 {
		w.cursor = closeIdx + 1
		return nil
	}

	bodyStart := openIdx + 1
	layout := catalog.FragmentLayoutForRange(w.cat.Script, bodyStart, closeIdx)

	w.enc.OpenPMap()

	frag, err := w.nextCursor(layout.FieldCount, layout.FixedWords)
	if err != nil {
		return err
	}

	w.scopeStack = append(w.scopeStack, scopeFrame{
		isSequence: true,
		bodyStart:  bodyStart,
		closeIdx:   closeIdx,
		remaining:  int(length),
		fieldCount: layout.FieldCount,
		fixedWords: layout.FixedWords,
		frag:       frag,
	})

	w.cursor = bodyStart
	w.limit = closeIdx

	return nil
}

func (w *DynamicWriter) enterGroup() error {
	openIdx := w.cursor
	closeIdx := catalog.MatchGroupClose(w.cat.Script, openIdx)
	bodyStart := openIdx + 1
	layout := catalog.FragmentLayoutForRange(w.cat.Script, bodyStart, closeIdx)

	w.enc.OpenPMap()

	frag, err := w.nextCursor(layout.FieldCount, layout.FixedWords)
	if err != nil {
		return err
	}

	w.scopeStack = append(w.scopeStack, scopeFrame{
		bodyStart:  bodyStart,
		closeIdx:   closeIdx,
		fieldCount: layout.FieldCount,
		fixedWords: layout.FixedWords,
		frag:       frag,
	})
	w.cursor = bodyStart
	w.limit = closeIdx

	return nil
}

func (w *DynamicWriter) writeLengthField(tok token.Token, length int64, isNull bool) error {
	// The GroupLength token has no dispatch entry of its own; it is
	// encoded as a mandatory Int32, mirroring Reactor.decodeLengthField.
	intTok := tok
	intTok.Kind = token.KindInt32

	bit, err := dispatch.EncodeInt(intTok, w.store, w.enc, length, isNull, 0, true)
	if err != nil {
		return err
	}

	if token.ConsumesPMapBit(tok.Operator) {
		return w.enc.SetBit(bit)
	}

	return nil
}

func (w *DynamicWriter) intDefault(tok token.Token) (int64, bool) {
	slot := int(tok.Instance)

	if tok.Kind == token.KindInt64 {
		if slot < len(w.cat.Int64Default) && w.cat.Int64HasDefault[slot] {
			return w.cat.Int64Default[slot], false
		}

		return 0, true
	}

	if slot < len(w.cat.Int32Default) && w.cat.Int32HasDefault[slot] {
		return int64(w.cat.Int32Default[slot]), false
	}

	return 0, true
}

func (w *DynamicWriter) strDefault(tok token.Token) ([]byte, bool) {
	slot := int(tok.Instance)
	if slot < len(w.cat.StrDefault) && w.cat.StrHasDefault[slot] {
		return w.cat.StrDefault[slot], false
	}

	return nil, true
}

// readIntSlot reads one Int32/Int64-width fragment slot per tok's kind,
// widening an Int32 read to int64.
func (w *DynamicWriter) readIntSlot(tok token.Token) (int64, bool, error) {
	if tok.Kind == token.KindInt64 {
		return w.activeFrag().ReadLong()
	}

	v, isNull, err := w.activeFrag().ReadInt()

	return int64(v), isNull, err
}

func (w *DynamicWriter) writeIntField(tok token.Token) error {
	value, isNull, err := w.readIntSlot(tok)
	if err != nil {
		return err
	}

	defVal, defNull := w.intDefault(tok)

	bit, err := dispatch.EncodeInt(tok, w.store, w.enc, value, isNull, defVal, defNull)
	if err != nil {
		return err
	}
	if token.ConsumesPMapBit(tok.Operator) {
		if err := w.enc.SetBit(bit); err != nil {
			return err
		}
	}

	if tok.IsDecimalExponent() {
		w.cursor++

		if isNull {
			if _, _, err := w.activeFrag().ReadLong(); err != nil { // consume the mantissa's reserved slot
				return err
			}

			w.cursor++

			return nil
		}

		mantissaTok := token.Unpack(w.cat.Script[w.cursor])

		return w.writeIntField(mantissaTok)
	}

	w.cursor++

	return nil
}

func (w *DynamicWriter) writeStrField(tok token.Token) error {
	value, isNull, err := w.activeFrag().ReadBytes()
	if err != nil {
		return err
	}

	defVal, defNull := w.strDefault(tok)

	bit, err := dispatch.EncodeStr(tok, w.store, w.enc, value, isNull, defVal, defNull)
	if err != nil {
		return err
	}
	if token.ConsumesPMapBit(tok.Operator) {
		if err := w.enc.SetBit(bit); err != nil {
			return err
		}
	}

	w.cursor++

	return nil
}

// nextCursor blocks (spinning, per the engine's single-threaded
// blocking-mode contract) until the ring has the next scope's fragment
// available, sized for fieldCount fields occupying fixedWords words.
func (w *DynamicWriter) nextCursor(fieldCount, fixedWords int) (*ring.Cursor, error) {
	for {
		_, cur, err := w.in.TryReadMessage(fieldCount, fixedWords)
		if err == nil {
			return cur, nil
		}
		if err == errs.ErrWouldBlock {
			runtime.Gosched()
			continue
		}

		return nil, err
	}
}
