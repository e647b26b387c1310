// Package catalog implements CatalogLoader: building an executable
// Catalog (template scripts, dictionary slot assignments, reset groups,
// default values) from a flattened template-definition event stream, and
// serializing/deserializing that Catalog to FAST's own bit-exact binary
// form so a host doesn't have to re-walk XML on every process start.
package catalog

import (
	"github.com/cespare/xxhash/v2"
	"github.com/fastcodec/fast/dict"
	"github.com/fastcodec/fast/errs"
	"github.com/fastcodec/fast/format"
	"github.com/fastcodec/fast/longhash"
	"github.com/fastcodec/fast/token"
)

// Template is one compiled message definition: its script slice and the
// dictionary slots of its fields compiled with the explicit reset flag,
// which the reactor resets when it crosses a reset boundary for it.
//
// MaxFragmentFields/MaxFragmentWords size the template root's own ring
// fragment the same way MaxPMapBits sizes its own PMap: a nested group or
// sequence iteration isn't covered by these counts since it publishes its
// own separate fragment, sized live via FragmentLayoutForRange once its
// iteration count is known.
type Template struct {
	ID                int32
	Name              string
	ScriptStart       int
	ScriptLimit       int
	MaxPMapBits       int
	MaxFragmentFields int
	MaxFragmentWords  int
	ResetGroup        []dict.ResetEntry
}

// Catalog is CatalogLoader's product: a flattened, template-indexed
// token script plus the dictionary default-value tables the reactor and
// dispatch package need at decode/encode time.
type Catalog struct {
	Templates     []Template
	templateIndex *longhash.Table // int32(templateID) -> index into Templates

	Script []uint32 // every template's packed tokens, concatenated

	NumInt32Slots int
	NumInt64Slots int
	NumStrSlots   int

	Int32Default    []int32
	Int32HasDefault []bool
	Int64Default    []int64
	Int64HasDefault []bool
	StrDefault      [][]byte
	StrHasDefault   []bool

	MaxPMapBytes int

	// TemplateIDMode and DefaultTemplateID together select how Reactor and
	// DynamicWriter resolve a message's leading template id. Under
	// TemplateIDPMapDefault, a transmitted id of 0 means "use
	// DefaultTemplateID" instead of naming template 0 directly, so
	// DefaultTemplateID can never itself be 0 under that mode.
	TemplateIDMode    format.TemplateIDMode
	DefaultTemplateID int32
}

// TemplateByID resolves templateID to its Template via the catalog's
// LongHashTable index, without an allocation or a map lookup.
func (c *Catalog) TemplateByID(templateID int32) (*Template, bool) {
	idx, ok := c.templateIndex.Get(int64(templateID))
	if !ok {
		return nil, false
	}

	return &c.Templates[idx], true
}

// NewDictionaryStore builds a dict.Store sized for this catalog, records
// every slot's configured default/constant value as its reset-restore
// initial value, then applies a full-dictionary reset so a freshly built
// store starts with those initial values already live instead of
// Undefined — the same "stream start acts like a reset boundary"
// treatment the reactor applies again at template-level reset groups.
func (c *Catalog) NewDictionaryStore() *dict.Store {
	s := dict.NewStore(c.NumInt32Slots, c.NumInt64Slots, c.NumStrSlots)

	var allSlots []dict.ResetEntry

	for slot, v := range c.Int32Default {
		if c.Int32HasDefault[slot] {
			s.SetInt32Initial(slot, v)
		}
		allSlots = append(allSlots, dict.ResetEntry{Kind: dict.KindInt32, Slot: slot})
	}
	for slot, v := range c.Int64Default {
		if c.Int64HasDefault[slot] {
			s.SetInt64Initial(slot, v)
		}
		allSlots = append(allSlots, dict.ResetEntry{Kind: dict.KindInt64, Slot: slot})
	}
	for slot, v := range c.StrDefault {
		if c.StrHasDefault[slot] {
			s.SetStrInitial(slot, v)
		}
		allSlots = append(allSlots, dict.ResetEntry{Kind: dict.KindString, Slot: slot})
	}

	s.ApplyReset(allSlots)

	return s
}

// builder accumulates catalog state while walking a TokenEventStream.
type builder struct {
	templates []Template
	script    []uint32

	int32Default    []int32
	int32HasDefault []bool
	int64Default    []int64
	int64HasDefault []bool
	strDefault      [][]byte
	strHasDefault   []bool

	names *longhash.Table

	curTemplate       *Template
	curResetGroup     []dict.ResetEntry
	curPMapBits       int
	curFragmentFields int
	curFragmentWords  int

	templateIDMode    format.TemplateIDMode
	defaultTemplateID int32
}

// countsFragmentSlot tallies a field's slot count for the current
// template, nested scopes included, mirroring countsPMapBit's accounting
// for the PMap. Template.MaxFragmentFields/MaxFragmentWords are not taken
// from this tally: they come from FragmentLayoutForRange over the root
// scope at TemplateEnd.
func (b *builder) countsFragmentSlot(words int) {
	b.curFragmentFields++
	b.curFragmentWords += words
}

// Load consumes events and compiles them into a Catalog. Templates are
// walked strictly in event-stream order (never via map iteration), so
// two loads over the same stream always produce byte-identical catalogs.
func Load(events TokenEventStream) (*Catalog, error) {
	b := &builder{names: longhash.New(10), templateIDMode: format.TemplateIDExplicit} // 1024 slots, 1023 usable names

	for {
		ev, ok := events.Next()
		if !ok {
			break
		}

		if err := b.handle(ev); err != nil {
			return nil, err
		}
	}

	if b.curTemplate != nil {
		return nil, errs.CatalogErrorf("template %d missing TemplateEnd", b.curTemplate.ID)
	}

	idx := longhash.New(bitsFor(len(b.templates)))
	for i, t := range b.templates {
		if err := idx.Insert(int64(t.ID), int64(i)); err != nil {
			return nil, errs.CatalogErrorf("template id %d: %v", t.ID, err)
		}
	}

	maxPMapBytes := 0
	for _, t := range b.templates {
		bytesNeeded := (t.MaxPMapBits + 6) / 7
		if bytesNeeded > maxPMapBytes {
			maxPMapBytes = bytesNeeded
		}
	}

	cat := &Catalog{
		Templates:       b.templates,
		templateIndex:   idx,
		Script:          b.script,
		NumInt32Slots:   len(b.int32Default),
		NumInt64Slots:   len(b.int64Default),
		NumStrSlots:     len(b.strDefault),
		Int32Default:    b.int32Default,
		Int32HasDefault: b.int32HasDefault,
		Int64Default:    b.int64Default,
		Int64HasDefault: b.int64HasDefault,
		StrDefault:      b.strDefault,
		StrHasDefault:   b.strHasDefault,
		MaxPMapBytes:    maxPMapBytes,

		TemplateIDMode:    b.templateIDMode,
		DefaultTemplateID: b.defaultTemplateID,
	}

	if err := validateScript(cat); err != nil {
		return nil, err
	}

	return cat, nil
}

// validateScript walks the compiled script once, checking the two
// invariants a hand-built event stream (or a corrupted encoded catalog
// read back by DecodeCatalog) could otherwise violate silently: every
// decimal exponent token is immediately followed by its mandatory mantissa
// token, and every scalar/string token's dictionary slot was actually
// allocated.
func validateScript(c *Catalog) error {
	for i, raw := range c.Script {
		tok := token.Unpack(raw)

		switch tok.Kind {
		case token.KindInt32:
			if tok.IsDecimalExponent() {
				if i+1 >= len(c.Script) {
					return errs.DecimalMissingSubfieldf("exponent token at script index %d has no following mantissa", i)
				}

				next := token.Unpack(c.Script[i+1])
				if next.Kind != token.KindInt64 {
					return errs.DecimalMissingSubfieldf("exponent token at script index %d is followed by kind %s, want Int64 mantissa", i, next.Kind)
				}
			}

			if int(tok.Instance) >= c.NumInt32Slots {
				return errs.UndefinedFieldf("script index %d references int32 slot %d, only %d allocated", i, tok.Instance, c.NumInt32Slots)
			}
		case token.KindInt64:
			if int(tok.Instance) >= c.NumInt64Slots {
				return errs.UndefinedFieldf("script index %d references int64 slot %d, only %d allocated", i, tok.Instance, c.NumInt64Slots)
			}
		case token.KindAsciiText, token.KindUnicodeText, token.KindByteVector:
			if int(tok.Instance) >= c.NumStrSlots {
				return errs.UndefinedFieldf("script index %d references string slot %d, only %d allocated", i, tok.Instance, c.NumStrSlots)
			}
		}
	}

	return nil
}

func bitsFor(n int) int {
	bits := 1
	for (1 << uint(bits)) <= n {
		bits++
	}
	return bits
}

func (b *builder) internName(name string) error {
	h := int64(xxhash.Sum64String(name))
	if _, exists := b.names.Get(h); exists {
		return errs.CatalogNameCollisionf("duplicate name %q", name)
	}

	return b.names.Insert(h, 1)
}

func (b *builder) handle(ev Event) error {
	switch ev.Kind {
	case EventTemplateStart:
		if b.curTemplate != nil {
			return errs.CatalogErrorf("nested TemplateStart for template %d", ev.TemplateID)
		}
		if err := b.internName(ev.Name); err != nil {
			return err
		}

		b.curTemplate = &Template{ID: ev.TemplateID, Name: ev.Name, ScriptStart: len(b.script)}
		b.curResetGroup = nil
		b.curPMapBits = 0
		b.curFragmentFields = 0
		b.curFragmentWords = 0

		return nil

	case EventTemplateEnd:
		if b.curTemplate == nil {
			return errs.CatalogErrorf("TemplateEnd with no open template")
		}

		b.curTemplate.ScriptLimit = len(b.script)
		b.curTemplate.ResetGroup = b.curResetGroup
		b.curTemplate.MaxPMapBits = b.curPMapBits
		rootLayout := FragmentLayoutForRange(b.script, b.curTemplate.ScriptStart, b.curTemplate.ScriptLimit)
		b.curTemplate.MaxFragmentFields = rootLayout.FieldCount
		b.curTemplate.MaxFragmentWords = rootLayout.FixedWords
		b.templates = append(b.templates, *b.curTemplate)
		b.curTemplate = nil

		return nil

	case EventSetTemplateIDMode:
		b.templateIDMode = ev.TemplateIDMode
		b.defaultTemplateID = ev.TemplateID

		return nil

	case EventInt32Field:
		return b.addScalarField(ev, token.KindInt32, false)

	case EventInt64Field:
		return b.addScalarField(ev, token.KindInt64, false)

	case EventDecimalField:
		return b.addDecimalField(ev)

	case EventAsciiTextField:
		return b.addStrField(ev, token.KindAsciiText)

	case EventUnicodeTextField:
		return b.addStrField(ev, token.KindUnicodeText)

	case EventByteVectorField:
		return b.addStrField(ev, token.KindByteVector)

	case EventGroupStart:
		return b.addGroupMarker(false, false)

	case EventSequenceStart:
		return b.addGroupMarker(true, false)

	case EventGroupEnd:
		return b.addGroupMarker(false, true)

	default:
		return errs.CatalogErrorf("unknown event kind %d", ev.Kind)
	}
}

func (b *builder) requireOpenTemplate() error {
	if b.curTemplate == nil {
		return errs.CatalogErrorf("field event outside any template")
	}
	return nil
}

func (b *builder) countsPMapBit(op token.Operator) {
	if token.ConsumesPMapBit(op) {
		b.curPMapBits++
	}
}

func (b *builder) addScalarField(ev Event, kind token.Kind, extra bool) error {
	if err := b.requireOpenTemplate(); err != nil {
		return err
	}
	if err := b.internName(ev.Name); err != nil {
		return err
	}

	var slot int
	switch kind {
	case token.KindInt32:
		slot = len(b.int32Default)
		b.int32Default = append(b.int32Default, int32(ev.IntInit))
		b.int32HasDefault = append(b.int32HasDefault, ev.HasIntInit)
	case token.KindInt64:
		slot = len(b.int64Default)
		b.int64Default = append(b.int64Default, ev.IntInit)
		b.int64HasDefault = append(b.int64HasDefault, ev.HasIntInit)
	}

	b.countsPMapBit(ev.Operator)
	if ev.Reset {
		kindTag := dict.KindInt32
		if kind == token.KindInt64 {
			kindTag = dict.KindInt64
		}
		b.curResetGroup = append(b.curResetGroup, dict.ResetEntry{Kind: kindTag, Slot: slot})
	}

	tok := token.Token{Kind: kind, Operator: ev.Operator, Optional: ev.Optional, Instance: uint32(slot), Extra: extra}
	b.countsFragmentSlot(tok.FragmentSize())
	b.script = append(b.script, tok.Pack())

	return nil
}

// addDecimalField expands one Decimal field event into two script
// tokens: an Int32 exponent (Extra=true, marking it as a decimal
// exponent whose mantissa occupies the next slot) and a mandatory Int64
// mantissa. A null exponent at decode time means the mantissa token is
// skipped entirely (handled by the reactor, not here).
func (b *builder) addDecimalField(ev Event) error {
	if err := b.requireOpenTemplate(); err != nil {
		return err
	}
	if err := b.internName(ev.Name); err != nil {
		return err
	}

	expSlot := len(b.int32Default)
	b.int32Default = append(b.int32Default, int32(ev.IntInit))
	b.int32HasDefault = append(b.int32HasDefault, ev.HasIntInit)

	mantissaSlot := len(b.int64Default)
	b.int64Default = append(b.int64Default, 0)
	b.int64HasDefault = append(b.int64HasDefault, false)

	b.countsPMapBit(ev.Operator)
	if ev.Reset {
		b.curResetGroup = append(b.curResetGroup,
			dict.ResetEntry{Kind: dict.KindInt32, Slot: expSlot},
			dict.ResetEntry{Kind: dict.KindInt64, Slot: mantissaSlot},
		)
	}

	expTok := token.Token{Kind: token.KindInt32, Operator: ev.Operator, Optional: ev.Optional, Instance: uint32(expSlot), Extra: true}
	mantissaTok := token.Token{Kind: token.KindInt64, Operator: ev.Operator, Optional: false, Instance: uint32(mantissaSlot)}

	b.countsFragmentSlot(expTok.FragmentSize())
	b.countsFragmentSlot(mantissaTok.FragmentSize())
	b.script = append(b.script, expTok.Pack(), mantissaTok.Pack())

	return nil
}

func (b *builder) addStrField(ev Event, kind token.Kind) error {
	if err := b.requireOpenTemplate(); err != nil {
		return err
	}
	if err := b.internName(ev.Name); err != nil {
		return err
	}

	slot := len(b.strDefault)
	b.strDefault = append(b.strDefault, ev.BytesInit)
	b.strHasDefault = append(b.strHasDefault, ev.HasBytesInit)

	b.countsPMapBit(ev.Operator)
	if ev.Reset {
		b.curResetGroup = append(b.curResetGroup, dict.ResetEntry{Kind: dict.KindString, Slot: slot})
	}

	tok := token.Token{Kind: kind, Operator: ev.Operator, Optional: ev.Optional, Instance: uint32(slot)}
	b.countsFragmentSlot(tok.FragmentSize())
	b.script = append(b.script, tok.Pack())

	return nil
}

func (b *builder) addGroupMarker(isSequence, isClose bool) error {
	if err := b.requireOpenTemplate(); err != nil {
		return err
	}

	if isSequence {
		lenTok := token.Token{Kind: token.KindGroupLength}
		b.countsFragmentSlot(lenTok.FragmentSize())
		b.script = append(b.script, lenTok.Pack())
	}

	if !isClose {
		b.curPMapBits++ // one bit counted for the group open; Reactor and DynamicWriter neither pop nor set it
		tok := token.Token{Kind: token.KindGroup, Optional: true, AbsentOverride: false}
		b.script = append(b.script, tok.Pack())
		return nil
	}

	tok := token.Token{Kind: token.KindGroup, Optional: true, AbsentOverride: true}
	b.script = append(b.script, tok.Pack())

	return nil
}
