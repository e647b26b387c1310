// Package reactor implements the Reactor (decode) and DynamicWriter
// (encode) state machines that drive a catalog's token script against a
// wire byte stream, handing decoded/consumed field values to and from a
// ring.Ring fragment queue.
//
// Both directions walk the same script shape: open-message, a flat run of
// field tokens, nested static groups, and repeating groups (sequences),
// each scope owning its own PMap. The state names — AwaitTemplate,
// InMessage, InSequence, EndOfStream — follow the small explicit-state
// parser style of a line-oriented stream tokenizer rather than a
// recursive-descent walk, so a single WouldBlock mid-field suspends
// cleanly: every field boundary is a safe resume point because the
// scope stack (not the Go call stack) carries the walk's position.
//
// A ring fragment is one scope's worth of fields, not one field: the
// message root, each static group instance, and each sequence iteration
// each get their own ring.Cursor, opened when the scope is entered and
// published when it closes. This matches ring.Cursor's unit of transfer
// to the catalog's own FragmentLayout bookkeeping.
package reactor

import (
	"io"

	"github.com/fastcodec/fast/catalog"
	"github.com/fastcodec/fast/dict"
	"github.com/fastcodec/fast/errs"
	"github.com/fastcodec/fast/format"
	"github.com/fastcodec/fast/ring"
	"github.com/fastcodec/fast/token"
	"github.com/fastcodec/fast/varint"
)

// State is the reactor's top-level position, mirroring the small number
// of states a template-script walk can be in between complete fields.
type State uint8

const (
	StateAwaitTemplate State = iota
	StateInMessage
	StateInSequence
	StateEndOfStream
)

// scopeFrame is one entry of the nested-group scope stack: a plain group
// or one repeating-group instance, each bracketing a sub-range of the
// script, owning its own PMap, and — since this scope's fields form one
// ring fragment — its own ring.Cursor.
type scopeFrame struct {
	isSequence bool
	bodyStart  int
	closeIdx   int
	remaining  int // sequence only: iterations left, including the current one

	frag       *ring.Cursor
	fieldCount int // cached FragmentLayoutForRange(bodyStart, closeIdx), reused per iteration
	fixedWords int
}

// Reactor decodes one wire byte stream into a sequence of dictionary
// mutations and ring fragments, per catalog-compiled template scripts.
type Reactor struct {
	cat   *catalog.Catalog
	store *dict.Store
	dec   *varint.Decoder
	out   *ring.Ring

	state       State
	curTemplate *catalog.Template
	cursor      int
	limit       int
	scopeStack  []scopeFrame
	rootFrag    *ring.Cursor
}

// New creates a Reactor reading template-id-prefixed messages from dec,
// tracking field state in store, and publishing one ring fragment per
// decoded scope into out.
func New(cat *catalog.Catalog, store *dict.Store, dec *varint.Decoder, out *ring.Ring) *Reactor {
	return &Reactor{cat: cat, store: store, dec: dec, out: out, state: StateAwaitTemplate}
}

// State returns the reactor's current top-level state.
func (r *Reactor) State() State { return r.state }

// DecodeMessage decodes exactly one complete message (including all of
// its nested groups and sequences), publishing its fragments to the ring
// and returning once the message's closing scope is reached. It returns
// io.EOF when called at a clean message boundary with no more bytes
// available, errs.ErrWouldBlock if the underlying Source suspends
// mid-field (safe to call again later; no partial progress is lost), or
// a fatal *errs.DecodeError for a protocol violation or truncated
// stream.
func (r *Reactor) DecodeMessage() error {
	for {
		switch r.state {
		case StateAwaitTemplate:
			if err := r.beginMessage(); err != nil {
				return err
			}
		case StateInMessage, StateInSequence:
			done, err := r.execStep()
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		case StateEndOfStream:
			return io.EOF
		}
	}
}

// activeFrag returns the ring.Cursor the reactor's current scope writes
// its fields into: the innermost open group/sequence iteration, or the
// message root if no scope is open.
func (r *Reactor) activeFrag() *ring.Cursor {
	if len(r.scopeStack) == 0 {
		return r.rootFrag
	}

	return r.scopeStack[len(r.scopeStack)-1].frag
}

// resolveTemplateID reads the message's leading template-id varint and
// applies the catalog's TemplateIDMode: in TemplateIDPMapDefault mode, a
// transmitted 0 is a reserved sentinel for the catalog's
// DefaultTemplateID rather than naming template 0 directly. This reuses
// ReadUvarint's existing clean-io.EOF-at-a-message-boundary behavior
// instead of opening a separate PMap before the template is even known.
func (r *Reactor) resolveTemplateID() (int32, error) {
	raw, err := r.dec.ReadUvarint()
	if err != nil {
		return 0, err
	}

	id := int32(raw)
	if id == 0 && r.cat.TemplateIDMode == format.TemplateIDPMapDefault {
		return r.cat.DefaultTemplateID, nil
	}

	return id, nil
}

func (r *Reactor) beginMessage() error {
	templateID, err := r.resolveTemplateID()
	if err != nil {
		if err == io.EOF {
			r.state = StateEndOfStream
			return io.EOF
		}

		return err
	}

	tpl, ok := r.cat.TemplateByID(templateID)
	if !ok {
		return errs.NewDecodeError(errs.ErrProtocolViolation, uint32(templateID), 0, 0, "unknown template id")
	}

	r.store.ApplyReset(tpl.ResetGroup)

	if err := r.dec.OpenPMap(tpl.MaxPMapBits); err != nil {
		return errs.NewDecodeError(errs.ErrProtocolViolation, uint32(tpl.ID), 0, 0, err.Error())
	}

	r.curTemplate = tpl
	r.cursor = tpl.ScriptStart
	r.limit = tpl.ScriptLimit
	r.scopeStack = r.scopeStack[:0]
	r.rootFrag = r.out.BeginMessage(tpl.ID, tpl.MaxFragmentFields, tpl.MaxFragmentWords)
	r.state = StateInMessage

	return nil
}

// execStep executes exactly one script token (or one scope transition)
// at the reactor's current cursor, returning done=true once the active
// message's outermost scope is fully consumed.
func (r *Reactor) execStep() (bool, error) {
	if r.cursor >= r.limit {
		return r.exitScope()
	}

	tok := token.Unpack(r.cat.Script[r.cursor])

	switch tok.Kind {
	case token.KindGroupLength:
		return false, r.enterSequence(tok)
	case token.KindGroup:
		if tok.IsGroupOpen() {
			return false, r.enterGroup()
		}
		// A close token reached directly (not via exitScope) means the
		// catalog built an empty scope; treat it as a no-op advance.
		r.cursor++
		return false, nil
	case token.KindInt32, token.KindInt64:
		return false, r.execIntField(tok)
	case token.KindAsciiText, token.KindUnicodeText, token.KindByteVector:
		return false, r.execStrField(tok)
	default:
		r.cursor++
		return false, nil
	}
}

func (r *Reactor) exitScope() (bool, error) {
	if len(r.scopeStack) == 0 {
		if err := r.dec.ClosePMap(); err != nil {
			return false, errs.NewDecodeError(errs.ErrProtocolViolation, uint32(r.curTemplate.ID), 0, 0, err.Error())
		}

		if err := r.rootFrag.Publish(); err != nil {
			return false, err
		}

		r.out.Publish() // flush this message's fragments even if the batch threshold wasn't reached
		r.state = StateAwaitTemplate
		r.curTemplate = nil
		r.rootFrag = nil

		return true, nil
	}

	top := &r.scopeStack[len(r.scopeStack)-1]

	if err := r.dec.ClosePMap(); err != nil {
		return false, errs.NewDecodeError(errs.ErrProtocolViolation, uint32(r.curTemplate.ID), 0, 0, err.Error())
	}

	if err := top.frag.Publish(); err != nil {
		return false, err
	}

	if top.isSequence {
		top.remaining--
		if top.remaining > 0 {
			r.cursor = top.bodyStart

			if err := r.dec.OpenPMap(catalog.PMapBitsForRange(r.cat.Script, top.bodyStart, top.closeIdx)); err != nil {
				return false, err
			}

			top.frag = r.out.BeginMessage(r.curTemplate.ID, top.fieldCount, top.fixedWords)

			return false, nil
		}
	}

	closeIdx := top.closeIdx
	r.scopeStack = r.scopeStack[:len(r.scopeStack)-1]
	r.cursor = closeIdx + 1
	r.limit = r.currentLimit()
	r.state = StateInMessage

	return false, nil
}

func (r *Reactor) currentLimit() int {
	if len(r.scopeStack) == 0 {
		return r.curTemplate.ScriptLimit
	}

	return r.scopeStack[len(r.scopeStack)-1].closeIdx
}

func (r *Reactor) enterSequence(lenTok token.Token) error {
	length, isNull, err := r.decodeLengthField(lenTok)
	if err != nil {
		return err
	}

	r.activeFrag().WriteInt(int32(length), isNull)

	if isNull {
		length = 0
	}

	openIdx := r.cursor + 1
	closeIdx := catalog.MatchGroupClose(r.cat.Script, openIdx)

	if length <= 0 {
		r.cursor = closeIdx + 1
		return nil
	}

	bodyStart := openIdx + 1
	layout := catalog.FragmentLayoutForRange(r.cat.Script, bodyStart, closeIdx)

	if err := r.dec.OpenPMap(catalog.PMapBitsForRange(r.cat.Script, bodyStart, closeIdx)); err != nil {
		return err
	}

	r.scopeStack = append(r.scopeStack, scopeFrame{
		isSequence: true,
		bodyStart:  bodyStart,
		closeIdx:   closeIdx,
		remaining:  int(length),
		fieldCount: layout.FieldCount,
		fixedWords: layout.FixedWords,
		frag:       r.out.BeginMessage(r.curTemplate.ID, layout.FieldCount, layout.FixedWords),
	})

	r.cursor = bodyStart
	r.limit = closeIdx
	r.state = StateInSequence

	return nil
}

func (r *Reactor) enterGroup() error {
	openIdx := r.cursor
	closeIdx := catalog.MatchGroupClose(r.cat.Script, openIdx)
	bodyStart := openIdx + 1
	layout := catalog.FragmentLayoutForRange(r.cat.Script, bodyStart, closeIdx)

	if err := r.dec.OpenPMap(catalog.PMapBitsForRange(r.cat.Script, bodyStart, closeIdx)); err != nil {
		return err
	}

	r.scopeStack = append(r.scopeStack, scopeFrame{
		bodyStart:  bodyStart,
		closeIdx:   closeIdx,
		fieldCount: layout.FieldCount,
		fixedWords: layout.FixedWords,
		frag:       r.out.BeginMessage(r.curTemplate.ID, layout.FieldCount, layout.FixedWords),
	})
	r.cursor = bodyStart
	r.limit = closeIdx

	return nil
}
