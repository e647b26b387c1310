package compress

// ZstdCodec compresses the catalog body with Zstandard, favoring
// compression ratio over speed — appropriate for a catalog that is built
// once and read many times.
//
// The actual Compress/Decompress implementation is selected at build time:
// zstd_pure.go (default, pure Go via klauspost/compress/zstd) or
// zstd_cgo.go (build tag "cgo", via valyala/gozstd) for environments where
// cgo is available and the extra throughput matters.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a Zstd codec.
func NewZstdCodec() ZstdCodec { return ZstdCodec{} }
