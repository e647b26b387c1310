// Package dict implements DictionaryFactory: the per-instance value store
// backing the Copy/Default/Increment/Delta/Tail field operators.
//
// A dictionary slot holds one of three presence states per the FAST
// wire semantics: Undefined (never assigned; Copy/Increment/Delta must
// fall back to the field's initial value or fail), Assigned (holds a
// live value), or NullKnown (the field was previously transmitted as
// null, distinct from never having been transmitted at all). Three
// parallel stores back the three scalar shapes a token can reference:
// int32 values, int64 values (including the decimal mantissa subfield),
// and byte-string values living in a shared heap.Heap.
package dict

import "github.com/fastcodec/fast/heap"

// Presence is the three-state FAST dictionary presence marker.
type Presence uint8

const (
	Undefined Presence = iota
	Assigned
	NullKnown
)

// Kind selects which of the three parallel stores a ResetEntry or lookup
// targets.
type Kind uint8

const (
	KindInt32 Kind = iota
	KindInt64
	KindString
)

// ResetEntry names one dictionary slot that must be restored to its
// configured initial value (or Undefined, if it has none) whenever its
// reset group fires — on template PMap reset or group boundary per the
// catalog's reset-group table.
type ResetEntry struct {
	Kind Kind
	Slot int
}

// Store is DictionaryFactory: a fixed-size collection of int32, int64 and
// string dictionary slots, addressed by a token's instance field.
type Store struct {
	int32Vals     []int32
	int32Presence []Presence
	int32Initial  []int32
	int32HasInit  []bool

	int64Vals     []int64
	int64Presence []Presence
	int64Initial  []int64
	int64HasInit  []bool

	strHeap     *heap.Heap
	strPresence []Presence
	strInitial  [][]byte
	strHasInit  []bool
}

// NewStore creates a Store with the given number of slots in each of the
// three parallel dictionaries. All slots start Undefined.
func NewStore(numInt32, numInt64, numStr int) *Store {
	return &Store{
		int32Vals:     make([]int32, numInt32),
		int32Presence: make([]Presence, numInt32),
		int32Initial:  make([]int32, numInt32),
		int32HasInit:  make([]bool, numInt32),

		int64Vals:     make([]int64, numInt64),
		int64Presence: make([]Presence, numInt64),
		int64Initial:  make([]int64, numInt64),
		int64HasInit:  make([]bool, numInt64),

		strHeap:     heap.New(numStr),
		strPresence: make([]Presence, numStr),
		strInitial:  make([][]byte, numStr),
		strHasInit:  make([]bool, numStr),
	}
}

// SetInt32Initial configures slot's catalog-defined initial value, used
// both by Default operator decoding and by ResetEntry restoration.
func (s *Store) SetInt32Initial(slot int, val int32) {
	s.int32Initial[slot] = val
	s.int32HasInit[slot] = true
}

// SetInt64Initial is SetInt32Initial for the int64 dictionary.
func (s *Store) SetInt64Initial(slot int, val int64) {
	s.int64Initial[slot] = val
	s.int64HasInit[slot] = true
}

// SetStrInitial is SetInt32Initial for the string dictionary. The slice
// is copied.
func (s *Store) SetStrInitial(slot int, val []byte) {
	s.strInitial[slot] = append([]byte(nil), val...)
	s.strHasInit[slot] = true
}

// Int32 returns slot's current value and presence state.
func (s *Store) Int32(slot int) (int32, Presence) {
	return s.int32Vals[slot], s.int32Presence[slot]
}

// SetInt32 assigns slot's value, marking it Assigned.
func (s *Store) SetInt32(slot int, val int32) {
	s.int32Vals[slot] = val
	s.int32Presence[slot] = Assigned
}

// SetInt32Null marks slot NullKnown: the field was transmitted but its
// value is the FAST null.
func (s *Store) SetInt32Null(slot int) {
	s.int32Presence[slot] = NullKnown
}

// Int64 returns slot's current value and presence state.
func (s *Store) Int64(slot int) (int64, Presence) {
	return s.int64Vals[slot], s.int64Presence[slot]
}

// SetInt64 assigns slot's value, marking it Assigned.
func (s *Store) SetInt64(slot int, val int64) {
	s.int64Vals[slot] = val
	s.int64Presence[slot] = Assigned
}

// SetInt64Null marks slot NullKnown.
func (s *Store) SetInt64Null(slot int) {
	s.int64Presence[slot] = NullKnown
}

// Str returns slot's current byte-string value (aliasing the backing
// heap; do not retain past the next mutating call) and presence state.
func (s *Store) Str(slot int) ([]byte, Presence) {
	if s.strPresence[slot] != Assigned {
		return nil, s.strPresence[slot]
	}

	return s.strHeap.View(slot), Assigned
}

// SetStr assigns slot's value outright.
func (s *Store) SetStr(slot int, val []byte) {
	s.strHeap.Set(slot, val)
	s.strPresence[slot] = Assigned
}

// SetStrTail assigns slot's value via the Tail operator: the first
// commonPrefix bytes of the current value are kept, tail is appended.
func (s *Store) SetStrTail(slot int, tail []byte, commonPrefix int) {
	s.strHeap.SetTail(slot, tail, commonPrefix)
	s.strPresence[slot] = Assigned
}

// SetStrNull marks slot NullKnown.
func (s *Store) SetStrNull(slot int) {
	s.strPresence[slot] = NullKnown
}

// ApplyReset restores every slot named in entries to its configured
// initial value (Assigned) or, lacking one, Undefined. This runs when a
// reset group boundary is crossed (new template, explicit reset
// operator).
func (s *Store) ApplyReset(entries []ResetEntry) {
	for _, e := range entries {
		switch e.Kind {
		case KindInt32:
			if s.int32HasInit[e.Slot] {
				s.int32Vals[e.Slot] = s.int32Initial[e.Slot]
				s.int32Presence[e.Slot] = Assigned
			} else {
				s.int32Presence[e.Slot] = Undefined
			}
		case KindInt64:
			if s.int64HasInit[e.Slot] {
				s.int64Vals[e.Slot] = s.int64Initial[e.Slot]
				s.int64Presence[e.Slot] = Assigned
			} else {
				s.int64Presence[e.Slot] = Undefined
			}
		case KindString:
			if s.strHasInit[e.Slot] {
				s.strHeap.Set(e.Slot, s.strInitial[e.Slot])
				s.strPresence[e.Slot] = Assigned
			} else {
				s.strHeap.Clear(e.Slot)
				s.strPresence[e.Slot] = Undefined
			}
		}
	}
}
