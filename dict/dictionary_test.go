package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Int32_UndefinedUntilSet(t *testing.T) {
	s := NewStore(2, 0, 0)

	_, presence := s.Int32(0)
	assert.Equal(t, Undefined, presence)

	s.SetInt32(0, 42)
	v, presence := s.Int32(0)
	assert.Equal(t, int32(42), v)
	assert.Equal(t, Assigned, presence)
}

func TestStore_Int32Null(t *testing.T) {
	s := NewStore(1, 0, 0)
	s.SetInt32(0, 7)
	s.SetInt32Null(0)

	_, presence := s.Int32(0)
	assert.Equal(t, NullKnown, presence)
}

func TestStore_Int64_Basic(t *testing.T) {
	s := NewStore(0, 1, 0)
	s.SetInt64(0, 123456789)

	v, presence := s.Int64(0)
	assert.Equal(t, int64(123456789), v)
	assert.Equal(t, Assigned, presence)
}

func TestStore_Str_SetAndTail(t *testing.T) {
	s := NewStore(0, 0, 1)
	s.SetStr(0, []byte("GOOG"))

	v, presence := s.Str(0)
	require.Equal(t, Assigned, presence)
	assert.Equal(t, []byte("GOOG"), v)

	s.SetStrTail(0, []byte("L"), 3) // "GOO" + "L"
	v, _ = s.Str(0)
	assert.Equal(t, []byte("GOOL"), v)
}

func TestStore_ApplyReset_RestoresInitialValue(t *testing.T) {
	s := NewStore(1, 1, 1)
	s.SetInt32Initial(0, 100)
	s.SetInt64Initial(0, -5)
	s.SetStrInitial(0, []byte("default"))

	s.SetInt32(0, 999)
	s.SetInt64(0, 999)
	s.SetStr(0, []byte("overwritten"))

	s.ApplyReset([]ResetEntry{
		{Kind: KindInt32, Slot: 0},
		{Kind: KindInt64, Slot: 0},
		{Kind: KindString, Slot: 0},
	})

	v32, p32 := s.Int32(0)
	assert.Equal(t, int32(100), v32)
	assert.Equal(t, Assigned, p32)

	v64, p64 := s.Int64(0)
	assert.Equal(t, int64(-5), v64)
	assert.Equal(t, Assigned, p64)

	vs, ps := s.Str(0)
	assert.Equal(t, []byte("default"), vs)
	assert.Equal(t, Assigned, ps)
}

func TestStore_ApplyReset_NoInitialMeansUndefined(t *testing.T) {
	s := NewStore(1, 0, 1)
	s.SetInt32(0, 5)
	s.SetStr(0, []byte("x"))

	s.ApplyReset([]ResetEntry{
		{Kind: KindInt32, Slot: 0},
		{Kind: KindString, Slot: 0},
	})

	_, p32 := s.Int32(0)
	assert.Equal(t, Undefined, p32)

	_, ps := s.Str(0)
	assert.Equal(t, Undefined, ps)
}
