package ring

import (
	"sync"
	"testing"

	"github.com/fastcodec/fast/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRing(t *testing.T, opts ...Option) *Ring {
	t.Helper()

	cfg, err := NewConfig(opts...)
	require.NoError(t, err)

	return New(cfg)
}

func TestRing_ReserveAndReadFragment(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(8))

	require.NoError(t, r.Reserve(1, []byte("hello")))
	r.Publish()

	frag, err := r.TryReadFragment()
	require.NoError(t, err)
	assert.Equal(t, int32(1), frag.MessageID)
	assert.Equal(t, []byte("hello"), frag.Data)
}

func TestRing_TryReadFragment_EmptyReturnsWouldBlock(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(8))

	_, err := r.TryReadFragment()
	assert.ErrorIs(t, err, errs.ErrWouldBlock)
}

func TestRing_UnpublishedReservationNotVisible(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(8), WithBatchPublishSize(2))

	require.NoError(t, r.Reserve(1, []byte("a")))

	_, err := r.TryReadFragment()
	assert.ErrorIs(t, err, errs.ErrWouldBlock, "batch of 2 shouldn't auto-publish after 1 reservation")

	require.NoError(t, r.Reserve(2, []byte("b")))

	frag1, err := r.TryReadFragment()
	require.NoError(t, err)
	assert.Equal(t, int32(1), frag1.MessageID)

	frag2, err := r.TryReadFragment()
	require.NoError(t, err)
	assert.Equal(t, int32(2), frag2.MessageID)
}

func TestRing_ReserveTooLargeFragmentFails(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(4)) // 16 bytes of blob

	err := r.Reserve(1, make([]byte, 100))
	assert.Error(t, err)
}

func TestRing_OverflowWhenBlobFull(t *testing.T) {
	r := newTestRing(t, WithSlabBits(8), WithBlobBits(4)) // 16 bytes blob

	require.NoError(t, r.Reserve(1, make([]byte, 10)))
	r.Publish()

	err := r.Reserve(2, make([]byte, 10))
	assert.ErrorIs(t, err, errs.ErrRingOverflow)
}

func TestRing_OverflowWhenSlabFull(t *testing.T) {
	r := newTestRing(t, WithSlabBits(1), WithBlobBits(10)) // 2 slab slots

	require.NoError(t, r.Reserve(1, []byte("a")))
	require.NoError(t, r.Reserve(2, []byte("b")))

	err := r.Reserve(3, []byte("c"))
	assert.ErrorIs(t, err, errs.ErrRingOverflow)
}

func TestRing_ReleaseFreesSpaceForProducer(t *testing.T) {
	r := newTestRing(t, WithSlabBits(8), WithBlobBits(4)) // 16 bytes blob

	require.NoError(t, r.Reserve(1, make([]byte, 10)))
	r.Publish()

	err := r.Reserve(2, make([]byte, 10))
	require.ErrorIs(t, err, errs.ErrRingOverflow)

	frag, err := r.TryReadFragment()
	require.NoError(t, err)
	assert.Len(t, frag.Data, 10)
	r.ForceRelease()

	require.NoError(t, r.Reserve(2, make([]byte, 10)))
}

func TestRing_WrapAroundPadsInsteadOfSplitting(t *testing.T) {
	r := newTestRing(t, WithSlabBits(8), WithBlobBits(4)) // 16-byte blob

	require.NoError(t, r.Reserve(1, make([]byte, 10)))
	r.Publish()
	frag1, err := r.TryReadFragment()
	require.NoError(t, err)
	assert.Len(t, frag1.Data, 10)
	r.ForceRelease()

	// Only 6 bytes remain contiguous before the wrap point; an 8-byte
	// fragment must pad the tail and restart at offset 0 rather than
	// splitting across the boundary.
	require.NoError(t, r.Reserve(2, make([]byte, 8)))
	r.Publish()

	frag2, err := r.TryReadFragment()
	require.NoError(t, err)
	assert.Len(t, frag2.Data, 8)
}

func TestRing_EOFSentinel(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(8))

	require.NoError(t, r.PublishEOF())

	frag, err := r.TryReadFragment()
	require.NoError(t, err)
	assert.Equal(t, EOFMessageID, frag.MessageID)
}

func TestRing_MarkResetReplaysUnreleasedFragment(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(8))

	require.NoError(t, r.Reserve(1, []byte("x")))
	require.NoError(t, r.Reserve(2, []byte("y")))
	r.Publish()

	r.Mark()

	frag1, err := r.TryReadFragment()
	require.NoError(t, err)
	assert.Equal(t, int32(1), frag1.MessageID)

	r.Reset()

	// Replays from the mark: the same fragment comes back again.
	again, err := r.TryReadFragment()
	require.NoError(t, err)
	assert.Equal(t, int32(1), again.MessageID)
}

func TestRing_PreambleBytesZeroedOnWrite(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(8), WithPreambleBytes(4))

	require.NoError(t, r.Reserve(1, []byte("hi")))
	r.Publish()

	frag, err := r.TryReadFragment()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 'h', 'i'}, frag.Data, "Reserve zero-fills the configured preamble ahead of the payload")
}

func TestRing_TryReadMessage_RejectsFragmentTooShortForLayout(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(8))

	require.NoError(t, r.Reserve(1, []byte("x")))
	r.Publish()

	_, cur, err := r.TryReadMessage(2, 2)
	require.Error(t, err, "a 1-byte payload can't hold a 2-field/2-word fragment layout")
	assert.Nil(t, cur)
}

func TestRing_TryReadMessage_StripsPreambleBeforeBuildingCursor(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(6), WithPreambleBytes(8))

	frag := r.BeginMessage(1, 1, 1)
	frag.WriteInt(42, false)
	require.NoError(t, frag.Publish())

	_, cur, err := r.TryReadMessage(1, 1)
	require.NoError(t, err)

	v, isNull, err := cur.ReadInt()
	require.NoError(t, err)
	assert.False(t, isNull)
	assert.Equal(t, int32(42), v, "TryReadMessage must strip the preamble before the Cursor interprets the bytes")
}

func TestRing_MaxVariableLenRejectsOverlongField(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(8), WithMaxTextLen(4), WithMaxByteVectorLen(4))

	frag := r.BeginMessage(1, 1, 2)
	err := frag.AppendBytes([]byte("too long"), false)
	assert.ErrorIs(t, err, errs.ErrProtocolViolation)
}

func TestRing_DebugFlagPoisonReleasedZeroesRetiredBytes(t *testing.T) {
	r := newTestRing(t, WithSlabBits(4), WithBlobBits(8), WithDebugFlags(DebugFlagPoisonReleased))

	require.NoError(t, r.Reserve(1, []byte("hello")))
	r.Publish()

	frag, err := r.TryReadFragment()
	require.NoError(t, err)
	data := frag.Data
	assert.Equal(t, []byte("hello"), data)

	r.ForceRelease()
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, data, "ForceRelease under DebugFlagPoisonReleased must zero the retired blob bytes in place")
}

// TestRing_ConcurrentProducerConsumer_OneMillionFragments drives the ring
// through its intended real-goroutine SPSC usage: one producer goroutine
// reserving and publishing, one consumer goroutine draining with
// TryReadFragment/ReleaseRead, synchronized only by the ring's own padded
// atomic cursors.
func TestRing_ConcurrentProducerConsumer_OneMillionFragments(t *testing.T) {
	const total = 1_000_000

	r := newTestRing(t, WithSlabBits(10), WithBlobBits(16), WithBatchPublishSize(64), WithBatchReleaseSize(64))

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()

		payload := make([]byte, 8)
		for i := int32(0); i < total; i++ {
			for {
				err := r.Reserve(i, payload)
				if err == nil {
					break
				}
				if err == errs.ErrRingOverflow {
					continue
				}

				t.Errorf("unexpected Reserve error: %v", err)
				return
			}
		}

		r.Publish()
	}()

	go func() {
		defer wg.Done()

		var next int32
		for next < total {
			frag, err := r.TryReadFragment()
			if err != nil {
				if err == errs.ErrWouldBlock {
					continue
				}

				t.Errorf("unexpected TryReadFragment error: %v", err)
				return
			}

			if frag.MessageID != next {
				t.Errorf("fragment out of order: got %d, want %d", frag.MessageID, next)
				return
			}

			r.ReleaseRead()
			next++
		}

		r.ForceRelease()
	}()

	wg.Wait()
}

func TestConfig_InvalidBatchSizeRejected(t *testing.T) {
	_, err := NewConfig(WithBatchPublishSize(0))
	assert.Error(t, err)
}

func TestConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.BatchPublishSize)
	assert.Equal(t, 1, cfg.BatchReleaseSize)
}
