package compress

// NoOpCodec passes data through unchanged. It is the default catalog body
// codec.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec creates a no-op codec.
func NewNoOpCodec() NoOpCodec { return NoOpCodec{} }

// Compress returns data unchanged.
func (c NoOpCodec) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns data unchanged.
func (c NoOpCodec) Decompress(data []byte) ([]byte, error) { return data, nil }
