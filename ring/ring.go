// Package ring implements DualRing: a single-producer/single-consumer
// lock-free queue of variable-length byte fragments.
//
// Two backing arrays share one set of cursors: slab holds one fixed-size
// record per fragment (message id, offset, length, and total byte
// advance), blob holds the fragment payload bytes contiguously. Producer
// and consumer each keep their own unpublished write/read position as a
// plain (non-atomic) local and only publish progress through a padded
// atomic cursor, the same separation the disruptor ring buffer pattern
// uses to keep the hot path allocation- and contention-free.
//
// A fragment's payload is always contiguous: if it would straddle the
// blob ring's wraparound point, the producer pads the remaining tail
// space (wasting it) and restarts the fragment at offset 0, so readers
// never need to stitch two slices together.
package ring

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/fastcodec/fast/errs"
)

// EOFMessageID is the sentinel message id published to signal a clean end
// of stream; the reactor reading it transitions to EndOfStream instead of
// decoding a message body.
const EOFMessageID int32 = -1

// cachelinePad is sized so a paddedCursor occupies a full 64-byte cache
// line, keeping independently-written producer and consumer cursors from
// false-sharing the same line.
type cachelinePad = [7]uint64

type paddedCursor struct {
	value atomic.Uint64
	_     cachelinePad
}

type slabRecord struct {
	MessageID int32
	Offset    uint32
	Length    uint32
	Advance   uint32
}

// Fragment is one dequeued unit: a message id (or EOFMessageID) and its
// payload, a slice aliasing the ring's blob buffer.
type Fragment struct {
	MessageID int32
	Data      []byte
}

// Ring is DualRing.
type Ring struct {
	cfg Config

	slab     []slabRecord
	slabMask uint64

	blob     []byte
	blobMask uint64

	slabHead paddedCursor // consumer publishes, producer reads
	slabTail paddedCursor // producer publishes, consumer reads
	blobHead paddedCursor
	blobTail paddedCursor

	// producer-local: touched only by the single writer goroutine.
	slabWritePos   uint64
	blobWritePos   uint64
	pendingPublish int

	// consumer-local: touched only by the single reader goroutine.
	slabReadPos     uint64
	blobReadPos     uint64
	pendingRelease  int
	markSlabReadPos uint64
	markBlobReadPos uint64
}

// New creates a Ring sized per cfg.
func New(cfg *Config) *Ring {
	slabCap := 1 << uint(cfg.SlabBits)
	blobCap := 1 << uint(cfg.BlobBits)

	return &Ring{
		cfg:      *cfg,
		slab:     make([]slabRecord, slabCap),
		slabMask: uint64(slabCap - 1),
		blob:     make([]byte, blobCap),
		blobMask: uint64(blobCap - 1),
	}
}

// Config returns the configuration the Ring was built with.
func (r *Ring) Config() Config { return r.cfg }

// Reserve copies payload into the blob ring and records a pending
// fragment for messageID, auto-publishing once cfg.BatchPublishSize
// reservations have accumulated. It returns errs.ErrRingOverflow if the
// ring has no room; the caller should apply backpressure and retry once
// the consumer has released more space.
func (r *Ring) Reserve(messageID int32, payload []byte) error {
	blobCap := uint64(len(r.blob))
	preamble := uint64(r.cfg.PreambleBytes)
	needed := preamble + uint64(len(payload))

	if needed > blobCap {
		return fmt.Errorf("%w: fragment length %d exceeds blob capacity %d", errs.ErrProtocolViolation, needed, blobCap)
	}

	slabCap := uint64(len(r.slab))
	if r.slabWritePos-r.slabHead.value.Load() >= slabCap {
		return errs.ErrRingOverflow
	}

	writePos := r.blobWritePos
	offset := writePos & r.blobMask
	remaining := blobCap - offset

	var skip uint64
	if remaining < needed {
		skip = remaining
		writePos += skip
		offset = 0
	}

	headSnapshot := r.blobHead.value.Load()
	if writePos+needed-headSnapshot > blobCap {
		return errs.ErrRingOverflow
	}

	if preamble > 0 {
		clear(r.blob[offset : offset+preamble])
	}
	copy(r.blob[offset+preamble:offset+needed], payload)

	r.slab[r.slabWritePos&r.slabMask] = slabRecord{
		MessageID: messageID,
		Offset:    uint32(offset),
		Length:    uint32(needed),
		Advance:   uint32(skip + needed),
	}
	r.slabWritePos++
	r.blobWritePos = writePos + needed

	r.pendingPublish++
	if r.pendingPublish >= r.cfg.BatchPublishSize {
		r.Publish()
	}

	return nil
}

// reserveBlocking retries Reserve across errs.ErrRingOverflow, yielding the
// goroutine between attempts, until the payload fits or a non-overflow
// error occurs. This is the engine's bounded-backpressure behavior for a
// slow consumer, not a fatal condition.
func (r *Ring) reserveBlocking(messageID int32, payload []byte) error {
	for {
		err := r.Reserve(messageID, payload)
		if err == nil {
			r.Publish()
			return nil
		}
		if !errors.Is(err, errs.ErrRingOverflow) {
			return err
		}

		runtime.Gosched()
	}
}

// trimPreamble strips the ring's configured PreambleBytes headroom from a
// dequeued fragment's payload, the read-path mirror of the zero-fill
// Reserve applies on the write path, so both sides of the ring agree on
// where a fragment's real content begins.
func (r *Ring) trimPreamble(data []byte) []byte {
	if r.cfg.PreambleBytes == 0 {
		return data
	}
	if len(data) < r.cfg.PreambleBytes {
		return data
	}

	return data[r.cfg.PreambleBytes:]
}

// maxVariableLen is the Cursor-level bound applied to every variable-length
// field regardless of whether it is ascii/unicode text or a byte vector:
// the looser of the two configured limits, since a Cursor's AppendBytes has
// no field-type tag to pick between them. Either limit set to 0 (unbounded)
// disables the ceiling entirely, since a Cursor can't tell which of the two
// a 0 was meant to relax.
func (r *Ring) maxVariableLen() int {
	if r.cfg.MaxTextLen == 0 || r.cfg.MaxByteVectorLen == 0 {
		return 0
	}
	if r.cfg.MaxTextLen > r.cfg.MaxByteVectorLen {
		return r.cfg.MaxTextLen
	}

	return r.cfg.MaxByteVectorLen
}

// Publish makes every reservation since the last Publish visible to the
// consumer. It is a no-op if nothing is pending.
func (r *Ring) Publish() {
	if r.pendingPublish == 0 {
		return
	}

	r.blobTail.value.Store(r.blobWritePos)
	r.slabTail.value.Store(r.slabWritePos)
	r.pendingPublish = 0
}

// PublishEOF reserves and immediately publishes the end-of-stream
// sentinel fragment.
func (r *Ring) PublishEOF() error {
	if err := r.Reserve(EOFMessageID, nil); err != nil {
		return err
	}

	r.Publish()

	return nil
}

// TryReadFragment returns the next published fragment, or
// errs.ErrWouldBlock if the producer hasn't published one yet.
func (r *Ring) TryReadFragment() (Fragment, error) {
	tail := r.slabTail.value.Load()
	if r.slabReadPos >= tail {
		return Fragment{}, errs.ErrWouldBlock
	}

	rec := r.slab[r.slabReadPos&r.slabMask]

	r.slabReadPos++
	r.blobReadPos += uint64(rec.Advance)

	return Fragment{
		MessageID: rec.MessageID,
		Data:      r.blob[rec.Offset : rec.Offset+rec.Length],
	}, nil
}

// ReleaseRead retires the most recently returned fragment, freeing its
// space once cfg.BatchReleaseSize releases have accumulated (or
// immediately, for a batch size of 1).
func (r *Ring) ReleaseRead() {
	r.pendingRelease++
	if r.pendingRelease >= r.cfg.BatchReleaseSize {
		r.flushRelease()
	}
}

// ForceRelease flushes any batched releases immediately, regardless of
// cfg.BatchReleaseSize.
func (r *Ring) ForceRelease() {
	r.flushRelease()
}

func (r *Ring) flushRelease() {
	if r.cfg.DebugFlags&DebugFlagPoisonReleased != 0 {
		r.poisonRange(r.blobHead.value.Load(), r.blobReadPos)
	}

	r.slabHead.value.Store(r.slabReadPos)
	r.blobHead.value.Store(r.blobReadPos)
	r.pendingRelease = 0
}

// poisonRange zero-fills the blob bytes between the ring positions [from,
// to), a diagnostic aid (DebugFlagPoisonReleased) that turns a use of a
// Fragment/Cursor past its release into visibly wrong data instead of
// silently-still-correct-by-luck bytes.
func (r *Ring) poisonRange(from, to uint64) {
	blobCap := uint64(len(r.blob))
	for pos := from; pos < to; {
		offset := pos & r.blobMask
		span := to - pos
		if remaining := blobCap - offset; span > remaining {
			span = remaining
		}

		clear(r.blob[offset : offset+span])
		pos += span
	}
}

// Mark snapshots the consumer's current (unreleased) read position so a
// failed downstream step can Reset back to it and replay the same
// fragments. Valid only for fragments not yet released: once
// ReleaseRead/ForceRelease has retired a fragment its space may be
// reused by the producer.
func (r *Ring) Mark() {
	r.markSlabReadPos = r.slabReadPos
	r.markBlobReadPos = r.blobReadPos
}

// Reset rewinds the consumer's read position to the last Mark.
func (r *Ring) Reset() {
	r.slabReadPos = r.markSlabReadPos
	r.blobReadPos = r.markBlobReadPos
}
