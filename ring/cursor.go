package ring

import (
	"encoding/binary"
	"fmt"

	"github.com/fastcodec/fast/errs"
)

// wordSize is one fragment slot's fixed byte width, matching
// token.Token.FragmentSize()'s unit: an Int32 field occupies 1 word, an
// Int64 field or a variable-length {offset,length} pair occupies 2.
const wordSize = 4

// Cursor is a sequential typed view over one fragment — the ring's actual
// unit of transfer, a scope's (message root, static group instance, or
// sequence iteration) worth of fixed-size slots. A leading null-presence
// bitmap (one bit per field, MSB-first, in call order) precedes the
// fields' fixed-width slots, themselves in that same call order.
// Variable-length field bytes live in a trailing area and are addressed
// by the {offset,length} pair recorded in their own slot, so ReadBytes
// needs no running position of its own.
type Cursor struct {
	nullBits []byte
	fixed    []byte
	variable []byte

	fieldIdx int
	fixedPos int

	fieldCount   int
	maxVariable  int
	ring         *Ring
	messageID    int32
}

// NewWriteCursor starts a producer-side Cursor sized for fieldCount fields
// occupying fixedWords fixed-size words.
func NewWriteCursor(fieldCount, fixedWords int) *Cursor {
	return &Cursor{
		nullBits:   make([]byte, (fieldCount+7)/8),
		fixed:      make([]byte, fixedWords*wordSize),
		fieldCount: fieldCount,
	}
}

// NewReadCursor wraps a dequeued fragment's payload for sequential typed
// reads, given the same (fieldCount, fixedWords) the writer built it with.
func NewReadCursor(payload []byte, fieldCount, fixedWords int) (*Cursor, error) {
	nullLen := (fieldCount + 7) / 8
	fixedLen := fixedWords * wordSize

	if len(payload) < nullLen+fixedLen {
		return nil, fmt.Errorf("%w: fragment too short: have %d bytes, need at least %d", errs.ErrProtocolViolation, len(payload), nullLen+fixedLen)
	}

	return &Cursor{
		nullBits:   payload[:nullLen],
		fixed:      payload[nullLen : nullLen+fixedLen],
		variable:   payload[nullLen+fixedLen:],
		fieldCount: fieldCount,
	}, nil
}

func (c *Cursor) setNull(isNull bool) {
	if isNull {
		c.nullBits[c.fieldIdx/8] |= 1 << uint(7-c.fieldIdx%8)
	}
	c.fieldIdx++
}

func (c *Cursor) isNull() (bool, error) {
	if c.fieldIdx >= c.fieldCount {
		return false, fmt.Errorf("%w: fragment field index %d exceeds field count %d", errs.ErrProtocolViolation, c.fieldIdx, c.fieldCount)
	}

	null := c.nullBits[c.fieldIdx/8]&(1<<uint(7-c.fieldIdx%8)) != 0
	c.fieldIdx++

	return null, nil
}

// WriteInt writes one Int32-width field (null, or a 4-byte little-endian
// value).
func (c *Cursor) WriteInt(v int32, isNull bool) {
	c.setNull(isNull)
	binary.LittleEndian.PutUint32(c.fixed[c.fixedPos:], uint32(v))
	c.fixedPos += 4
}

// ReadInt reads one Int32-width field written by WriteInt.
func (c *Cursor) ReadInt() (int32, bool, error) {
	isNull, err := c.isNull()
	if err != nil {
		return 0, false, err
	}
	if c.fixedPos+4 > len(c.fixed) {
		return 0, false, fmt.Errorf("%w: fragment fixed area truncated", errs.ErrProtocolViolation)
	}

	v := int32(binary.LittleEndian.Uint32(c.fixed[c.fixedPos:]))
	c.fixedPos += 4

	return v, isNull, nil
}

// WriteLong writes one Int64-width field.
func (c *Cursor) WriteLong(v int64, isNull bool) {
	c.setNull(isNull)
	binary.LittleEndian.PutUint64(c.fixed[c.fixedPos:], uint64(v))
	c.fixedPos += 8
}

// ReadLong reads one Int64-width field written by WriteLong.
func (c *Cursor) ReadLong() (int64, bool, error) {
	isNull, err := c.isNull()
	if err != nil {
		return 0, false, err
	}
	if c.fixedPos+8 > len(c.fixed) {
		return 0, false, fmt.Errorf("%w: fragment fixed area truncated", errs.ErrProtocolViolation)
	}

	v := int64(binary.LittleEndian.Uint64(c.fixed[c.fixedPos:]))
	c.fixedPos += 8

	return v, isNull, nil
}

// WriteDecimal writes a decimal's exponent and mantissa as two adjacent
// fields (1 word, 2 words), mirroring the paired Int32/Int64 script
// tokens a decimal field compiles to. A null exponent always carries a
// null (zero) mantissa alongside it, keeping the fragment's field count
// and byte layout identical across every instance of the same scope.
func (c *Cursor) WriteDecimal(exp int32, mantissa int64, isNull bool) {
	c.WriteInt(exp, isNull)
	if isNull {
		c.WriteLong(0, true)
		return
	}

	c.WriteLong(mantissa, false)
}

// ReadDecimal reads a decimal's exponent and mantissa pair written by
// WriteDecimal.
func (c *Cursor) ReadDecimal() (int32, int64, bool, error) {
	exp, expNull, err := c.ReadInt()
	if err != nil {
		return 0, 0, false, err
	}

	mantissa, _, err := c.ReadLong()
	if err != nil {
		return 0, 0, false, err
	}
	if expNull {
		return 0, 0, true, nil
	}

	return exp, mantissa, false, nil
}

// AppendBytes writes one variable-length field: its raw bytes are
// appended to the fragment's trailing variable area, with an {offset,
// length} pair recorded in the field's own two-word fixed slot. It
// returns errs.ErrProtocolViolation if b is longer than the ring's
// configured text/byte-vector limit.
func (c *Cursor) AppendBytes(b []byte, isNull bool) error {
	if !isNull && c.maxVariable > 0 && len(b) > c.maxVariable {
		return fmt.Errorf("%w: field of %d bytes exceeds ring limit of %d", errs.ErrProtocolViolation, len(b), c.maxVariable)
	}

	c.setNull(isNull)
	if isNull {
		binary.LittleEndian.PutUint32(c.fixed[c.fixedPos:], 0)
		binary.LittleEndian.PutUint32(c.fixed[c.fixedPos+4:], 0)
		c.fixedPos += 8

		return nil
	}

	offset := uint32(len(c.variable))
	c.variable = append(c.variable, b...)
	binary.LittleEndian.PutUint32(c.fixed[c.fixedPos:], offset)
	binary.LittleEndian.PutUint32(c.fixed[c.fixedPos+4:], uint32(len(b)))
	c.fixedPos += 8

	return nil
}

// ReadBytes reads one variable-length field written by AppendBytes. The
// returned slice aliases the Cursor's own variable-area buffer and is
// only valid until the Cursor is discarded.
func (c *Cursor) ReadBytes() ([]byte, bool, error) {
	isNull, err := c.isNull()
	if err != nil {
		return nil, false, err
	}
	if c.fixedPos+8 > len(c.fixed) {
		return nil, false, fmt.Errorf("%w: fragment fixed area truncated", errs.ErrProtocolViolation)
	}

	offset := binary.LittleEndian.Uint32(c.fixed[c.fixedPos:])
	length := binary.LittleEndian.Uint32(c.fixed[c.fixedPos+4:])
	c.fixedPos += 8

	if isNull {
		return nil, true, nil
	}
	if uint64(offset)+uint64(length) > uint64(len(c.variable)) {
		return nil, false, fmt.Errorf("%w: fragment variable area truncated", errs.ErrProtocolViolation)
	}

	return c.variable[offset : offset+length], false, nil
}

// Bytes assembles a producer-side Cursor's accumulated fields into one
// contiguous payload ready for Ring.Reserve.
func (c *Cursor) Bytes() []byte {
	out := make([]byte, 0, len(c.nullBits)+len(c.fixed)+len(c.variable))
	out = append(out, c.nullBits...)
	out = append(out, c.fixed...)
	out = append(out, c.variable...)

	return out
}

// Publish reserves and enqueues a producer-side Cursor's bytes as one
// ring fragment, spinning past transient overflow the way the engine's
// blocking mode is specified to: bounded backpressure, not a fatal error.
func (c *Cursor) Publish() error {
	return c.ring.reserveBlocking(c.messageID, c.Bytes())
}

// BeginMessage starts a producer-side Cursor for one fragment — FAST's
// "group's worth of fixed-size slots" — sized for fieldCount fields
// occupying fixedWords fixed-size words. Call cursor.Publish once every
// field has been written to reserve and enqueue it.
func (r *Ring) BeginMessage(messageID int32, fieldCount, fixedWords int) *Cursor {
	c := NewWriteCursor(fieldCount, fixedWords)
	c.ring = r
	c.messageID = messageID
	c.maxVariable = r.maxVariableLen()

	return c
}

// TryReadMessage is TryReadFragment plus wrapping the payload as a typed
// read Cursor sized for fieldCount fields occupying fixedWords words. The
// payload is copied out of the blob before the fragment's ring space is
// released, so the returned Cursor's ReadBytes slices stay valid for as
// long as the Cursor itself does.
func (r *Ring) TryReadMessage(fieldCount, fixedWords int) (int32, *Cursor, error) {
	frag, err := r.TryReadFragment()
	if err != nil {
		return 0, nil, err
	}

	payload := append([]byte(nil), r.trimPreamble(frag.Data)...)
	r.ReleaseRead()

	cur, err := NewReadCursor(payload, fieldCount, fixedWords)
	if err != nil {
		return 0, nil, err
	}

	return frag.MessageID, cur, nil
}
