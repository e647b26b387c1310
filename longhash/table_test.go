package longhash

import (
	"testing"

	"github.com/fastcodec/fast/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTable_SaturationAt513 mirrors the engine's S4 testable property:
// bits=9 gives capacity 512 (usable 511). Inserting keys 1..511 must all
// succeed and be readable; the table must then refuse further inserts, so
// by the 513th insert attempt across the test it has certainly failed.
func TestTable_SaturationAt513(t *testing.T) {
	tbl := New(9)
	require.Equal(t, 512, tbl.Capacity())
	require.Equal(t, 511, tbl.UsableCapacity())

	for j := int64(1); j <= 511; j++ {
		require.NoError(t, tbl.Insert(j, j*7))
	}

	for j := int64(1); j <= 511; j++ {
		v, ok := tbl.Get(j)
		require.True(t, ok, "key %d must be present", j)
		require.Equal(t, j*7, v)
	}

	// 512th insert (a brand-new key): table is already full.
	err512 := tbl.Insert(512, 512*7)
	assert.ErrorIs(t, err512, errs.ErrTableFull)

	// 513th insert attempt: must also fail.
	err513 := tbl.Insert(513, 513*7)
	assert.ErrorIs(t, err513, errs.ErrTableFull)
}

func TestTable_GetMissingKey(t *testing.T) {
	tbl := New(4)
	_, ok := tbl.Get(99)
	assert.False(t, ok)
}

func TestTable_InsertOverwritesExistingKey(t *testing.T) {
	tbl := New(4)
	require.NoError(t, tbl.Insert(1, 100))
	require.NoError(t, tbl.Insert(1, 200))

	v, ok := tbl.Get(1)
	require.True(t, ok)
	assert.Equal(t, int64(200), v)
	assert.Equal(t, 1, tbl.Count())
}

func TestTable_Reset(t *testing.T) {
	tbl := New(4)
	require.NoError(t, tbl.Insert(1, 1))
	require.NoError(t, tbl.Insert(2, 2))

	tbl.Reset()

	assert.Equal(t, 0, tbl.Count())
	_, ok := tbl.Get(1)
	assert.False(t, ok)
}

func TestTable_NegativeKeys(t *testing.T) {
	tbl := New(4)
	require.NoError(t, tbl.Insert(-1, 42))

	v, ok := tbl.Get(-1)
	require.True(t, ok)
	assert.Equal(t, int64(42), v)
}
