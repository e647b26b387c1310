package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeap_SetAndView(t *testing.T) {
	h := New(4)

	assert.False(t, h.IsAssigned(0))

	h.Set(0, []byte("hello"))

	require.True(t, h.IsAssigned(0))
	assert.Equal(t, []byte("hello"), h.View(0))
}

func TestHeap_SetTail_CommonPrefix(t *testing.T) {
	h := New(2)

	h.Set(0, []byte("GOOGL"))
	h.SetTail(0, []byte("B"), 4) // keep "GOOG", append "B" -> "GOOGB"

	assert.Equal(t, []byte("GOOGB"), h.View(0))
}

// TestHeap_SetTailTwice_PropertyEight mirrors the engine's testable
// property 8: after setTail(s, k); setTail(t, j) the stored bytes equal
// prefix||t for the correct computed prefix.
func TestHeap_SetTailTwice_PropertyEight(t *testing.T) {
	h := New(1)

	h.Set(0, []byte("ABCDEFG"))
	h.SetTail(0, []byte("XYZ"), 3) // "ABC" + "XYZ" = "ABCXYZ"
	require.Equal(t, []byte("ABCXYZ"), h.View(0))

	h.SetTail(0, []byte("99"), 2) // keep "AB" + "99" = "AB99"
	assert.Equal(t, []byte("AB99"), h.View(0))
}

func TestHeap_SetTail_PrefixLongerThanCurrent_Clamped(t *testing.T) {
	h := New(1)
	h.Set(0, []byte("ab"))

	h.SetTail(0, []byte("cd"), 10) // commonPrefix clamps to len("ab")=2

	assert.Equal(t, []byte("abcd"), h.View(0))
}

func TestHeap_SetHead_CommonSuffix(t *testing.T) {
	h := New(1)
	h.Set(0, []byte("world"))

	h.SetHead(0, []byte("hello "), 5) // keep "world", prepend "hello "

	assert.Equal(t, []byte("hello world"), h.View(0))
}

func TestHeap_Equals(t *testing.T) {
	h := New(1)
	h.Set(0, []byte("same"))

	assert.True(t, h.Equals(0, []byte("same")))
	assert.False(t, h.Equals(0, []byte("different")))
}

func TestHeap_ViewRange(t *testing.T) {
	h := New(1)
	h.Set(0, []byte("abcdef"))

	assert.Equal(t, []byte("cd"), h.ViewRange(0, 2, 2))
}

func TestHeap_Clear(t *testing.T) {
	h := New(1)
	h.Set(0, []byte("x"))
	h.Clear(0)

	assert.False(t, h.IsAssigned(0))
}

func TestHeap_GrowsAcrossManyAppends(t *testing.T) {
	h := New(1)
	h.Set(0, []byte("a"))

	for i := 0; i < 2000; i++ {
		cur := h.View(0)
		h.SetTail(0, []byte("x"), len(cur))
	}

	assert.Equal(t, 2001, len(h.View(0)))
}

func TestHeap_Compact_PreservesContent(t *testing.T) {
	h := New(3)
	h.Set(0, []byte("one"))
	h.Set(1, []byte("two"))
	h.Set(2, []byte("three"))

	h.Compact()

	assert.Equal(t, []byte("one"), h.View(0))
	assert.Equal(t, []byte("two"), h.View(1))
	assert.Equal(t, []byte("three"), h.View(2))
}

func TestHeap_MultipleSlotsIndependent(t *testing.T) {
	h := New(3)
	h.Set(0, []byte("alpha"))
	h.Set(1, []byte("beta"))
	h.Set(2, []byte("gamma"))

	h.SetTail(1, []byte("!!"), 4)

	assert.Equal(t, []byte("alpha"), h.View(0))
	assert.Equal(t, []byte("beta!!"), h.View(1))
	assert.Equal(t, []byte("gamma"), h.View(2))
}
