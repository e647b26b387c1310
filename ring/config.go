package ring

import (
	"fmt"

	"github.com/fastcodec/fast/internal/options"
)

func errConfig(format string, args ...any) error {
	return fmt.Errorf("ring: "+format, args...)
}

// Config sizes and tunes a Ring. SlabBits and BlobBits must each leave the
// corresponding buffer a power of two so index arithmetic can use a mask
// instead of a modulo.
type Config struct {
	SlabBits         int
	BlobBits         int
	PreambleBytes    int
	MaxTextLen       int
	MaxByteVectorLen int
	BatchPublishSize int
	BatchReleaseSize int
	DebugFlags       uint32
}

// Option configures a Config via the shared functional-option pattern.
type Option = options.Option[*Config]

func defaultConfig() *Config {
	return &Config{
		SlabBits:         10, // 1024 fragment slots
		BlobBits:         16, // 64 KiB of payload bytes
		PreambleBytes:    0,
		MaxTextLen:       65536,
		MaxByteVectorLen: 65536,
		BatchPublishSize: 1,
		BatchReleaseSize: 1,
		DebugFlags:       0,
	}
}

// WithSlabBits sets the fragment-slot ring's size to 1<<bits.
func WithSlabBits(bits int) Option {
	return options.New(func(c *Config) error {
		if bits < 1 || bits > 30 {
			return errConfig("slab bits out of range: %d", bits)
		}
		c.SlabBits = bits
		return nil
	})
}

// WithBlobBits sets the payload ring's size to 1<<bits bytes.
func WithBlobBits(bits int) Option {
	return options.New(func(c *Config) error {
		if bits < 1 || bits > 30 {
			return errConfig("blob bits out of range: %d", bits)
		}
		c.BlobBits = bits
		return nil
	})
}

// WithPreambleBytes reserves preambleBytes of zero-filled headroom ahead of
// every fragment's payload. Reserve writes it on the producer side;
// Ring.TryReadMessage strips it on the consumer side, so both ends of the
// ring agree on where a fragment's real content begins. Reserve/
// TryReadFragment's lower-level API does not strip it, since a caller at
// that level may want the headroom itself (e.g. to stamp a transport
// header in place without a second copy).
func WithPreambleBytes(n int) Option {
	return options.NoError(func(c *Config) { c.PreambleBytes = n })
}

// WithMaxTextLen bounds the largest ascii/unicode string fragment accepted
// by a Cursor's AppendBytes, alongside MaxByteVectorLen.
func WithMaxTextLen(n int) Option {
	return options.NoError(func(c *Config) { c.MaxTextLen = n })
}

// WithMaxByteVectorLen bounds the largest byteVector fragment accepted by a
// Cursor's AppendBytes, alongside MaxTextLen.
func WithMaxByteVectorLen(n int) Option {
	return options.NoError(func(c *Config) { c.MaxByteVectorLen = n })
}

// WithBatchPublishSize batches producer commits: the ring only becomes
// visible to the consumer every n reservations (or on an explicit Publish
// call), trading latency for throughput.
func WithBatchPublishSize(n int) Option {
	return options.New(func(c *Config) error {
		if n < 1 {
			return errConfig("batch publish size must be >= 1, got %d", n)
		}
		c.BatchPublishSize = n
		return nil
	})
}

// WithBatchReleaseSize batches consumer releases the same way
// WithBatchPublishSize batches producer commits.
func WithBatchReleaseSize(n int) Option {
	return options.New(func(c *Config) error {
		if n < 1 {
			return errConfig("batch release size must be >= 1, got %d", n)
		}
		c.BatchReleaseSize = n
		return nil
	})
}

// DebugFlagPoisonReleased zero-fills a fragment's blob bytes as soon as
// ReleaseRead/ForceRelease retires it, turning a read of a Fragment/Cursor
// held past its release into visibly wrong data rather than silently
// correct-by-luck leftover bytes. Meant for tests, not production: it adds
// a pass over every released byte.
const DebugFlagPoisonReleased uint32 = 1 << 0

// WithDebugFlags sets diagnostic flags the ring itself interprets (see
// DebugFlagPoisonReleased); unrecognized bits are ignored.
func WithDebugFlags(flags uint32) Option {
	return options.NoError(func(c *Config) { c.DebugFlags = flags })
}

// NewConfig builds a Config from defaults plus the given options, applied
// in order.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}
