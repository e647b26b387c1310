// Package dispatch implements OperatorDispatch: a dense table mapping
// (tokenKind, operator, optional) to the decode/encode function pair that
// implements that field operator for that kind, indexed directly off
// token.Token's packed bit layout instead of a type switch.
package dispatch

import "github.com/fastcodec/fast/dict"

// intSlot abstracts over the int32 and int64 dictionary stores so the
// operator logic in int_ops.go is written once and shared by both widths.
type intSlot interface {
	Get() (int64, dict.Presence)
	Set(int64)
	SetNull()
}

type int32Slot struct {
	store *dict.Store
	slot  int
}

func (s int32Slot) Get() (int64, dict.Presence) {
	v, p := s.store.Int32(s.slot)
	return int64(v), p
}

func (s int32Slot) Set(v int64) { s.store.SetInt32(s.slot, int32(v)) }
func (s int32Slot) SetNull()     { s.store.SetInt32Null(s.slot) }

type int64Slot struct {
	store *dict.Store
	slot  int
}

func (s int64Slot) Get() (int64, dict.Presence) {
	return s.store.Int64(s.slot)
}

func (s int64Slot) Set(v int64) { s.store.SetInt64(s.slot, v) }
func (s int64Slot) SetNull()     { s.store.SetInt64Null(s.slot) }

// strSlot is the single string-dictionary accessor (no width variants).
type strSlot struct {
	store *dict.Store
	slot  int
}

func (s strSlot) Get() ([]byte, dict.Presence) { return s.store.Str(s.slot) }
func (s strSlot) Set(v []byte)                 { s.store.SetStr(s.slot, v) }
func (s strSlot) SetTail(tail []byte, prefix int) {
	s.store.SetStrTail(s.slot, tail, prefix)
}
func (s strSlot) SetNull() { s.store.SetStrNull(s.slot) }
