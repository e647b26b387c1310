package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(64)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 64, bb.Cap())
}

func TestByteBuffer_Reset(t *testing.T) {
	bb := NewByteBuffer(DefaultSize)
	bb.MustWrite([]byte("some data"))
	originalCap := bb.Cap()

	bb.Reset()

	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, originalCap, bb.Cap())
}

func TestByteBuffer_ExtendOrGrow(t *testing.T) {
	bb := NewByteBuffer(4)
	bb.ExtendOrGrow(16)

	assert.Equal(t, 16, bb.Len())
	assert.GreaterOrEqual(t, bb.Cap(), 16)
}

func TestByteBuffer_Extend_InsufficientCapacity(t *testing.T) {
	bb := NewByteBuffer(2)

	ok := bb.Extend(8)
	assert.False(t, ok)
	assert.Equal(t, 0, bb.Len())
}

func TestByteBuffer_Grow_LargeBufferGrowsByQuarter(t *testing.T) {
	bb := NewByteBuffer(8 * DefaultSize)
	bb.B = bb.B[:8*DefaultSize] // simulate a fully used large buffer
	prevCap := bb.Cap()

	bb.Grow(1)

	assert.Greater(t, bb.Cap(), prevCap)
}

func TestPool_GetPut(t *testing.T) {
	p := NewPool(32, 128)

	bb := p.Get()
	require.NotNil(t, bb)
	bb.MustWrite([]byte("hello"))

	p.Put(bb)

	bb2 := p.Get()
	assert.Equal(t, 0, bb2.Len(), "buffer from pool should be reset")
}

func TestPool_Put_DiscardsOversizedBuffers(t *testing.T) {
	p := NewPool(8, 16)

	bb := NewByteBuffer(1024)
	p.Put(bb)

	// The oversized buffer should have been discarded, not retained; the
	// next Get() must come from New() rather than returning the 1024-cap one.
	got := p.Get()
	assert.Less(t, got.Cap(), 1024)
}

func TestDefaultPool(t *testing.T) {
	bb := Get()
	require.NotNil(t, bb)
	Put(bb)
}
