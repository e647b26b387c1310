//go:build cgo

package compress

import "github.com/valyala/gozstd"

// Compress compresses data with Zstandard via the cgo-accelerated gozstd
// binding, trading a cgo dependency for materially higher throughput. Level
// 19 mirrors the pure-Go path's SpeedBestCompression: a catalog body is
// compressed once and decompressed on every load, so the extra encode time
// buys a smaller body for all of those reads.
func (c ZstdCodec) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, 19), nil
}

// Decompress decompresses Zstandard-compressed data via gozstd.
func (c ZstdCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}
